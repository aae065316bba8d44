package migrate

import (
	"context"
	"strings"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

func (e *Engine) migratePerson(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	project, err := e.Resolve(ctx, manifest.ProjectUUID)
	if err != nil {
		if isMissing(err) {
			return nil, missingDep(manifest.UUID, "owning project "+manifest.ProjectUUID+" unresolvable")
		}
		return nil, err
	}

	legacyPerson, err := e.legacy.GetPerson(ctx, nil, manifest.UUID)
	if err != nil {
		return nil, err
	}

	entity := baseEntity(manifest, types.ItemPersons, project.ID, project.ID)
	if entity.Label == "" && legacyPerson != nil {
		entity.Label = personLabel(legacyPerson)
	}
	if entity.Label == "" {
		return nil, missingDep(manifest.UUID, "person has no usable name")
	}
	if legacyPerson != nil {
		if legacyPerson.GivenName != "" {
			entity.Meta = appendMeta(entity.Meta, "given_name", legacyPerson.GivenName)
		}
		if legacyPerson.Surname != "" {
			entity.Meta = appendMeta(entity.Meta, "surname", legacyPerson.Surname)
		}
		if legacyPerson.Initials != "" {
			entity.Meta = appendMeta(entity.Meta, "initials", legacyPerson.Initials)
		}
	}
	return e.finishEntity(ctx, manifest, entity)
}

func personLabel(p *types.LegacyPerson) string {
	if p.ForeName != "" {
		return p.ForeName
	}
	full := strings.TrimSpace(p.GivenName + " " + p.Surname)
	if full != "" {
		return full
	}
	return p.Initials
}
