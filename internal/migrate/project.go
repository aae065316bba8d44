package migrate

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// migrateProject translates one legacy project. The parent project chain is
// resolved recursively; a project that is its own parent (or has none)
// anchors at the root project.
func (e *Engine) migrateProject(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	legacyProject, err := e.legacy.GetProject(ctx, nil, manifest.UUID)
	if err != nil {
		return nil, err
	}

	parentID := RootProjectID
	parentLegacy := manifest.ProjectUUID
	if legacyProject != nil && legacyProject.ProjectUUID != "" {
		parentLegacy = legacyProject.ProjectUUID
	}
	// Self-parented rows mark top-level projects in the legacy schema. A
	// parent whose own resolution is still in progress is a cycle; it anchors
	// at the root the same way subject containment cycles do.
	if parentLegacy != "" && parentLegacy != manifest.UUID && !IsLegacyRoot(parentLegacy) && !e.visiting[parentLegacy] {
		parent, err := e.Resolve(ctx, parentLegacy)
		if err != nil {
			if isMissing(err) {
				return nil, missingDep(manifest.UUID, "parent project "+parentLegacy+" unresolvable")
			}
			return nil, err
		}
		parentID = parent.ID
	}

	entity := baseEntity(manifest, types.ItemProjects, DeriveID(manifest.UUID), parentID)
	// A project belongs to itself; ContextID carries the parent chain.
	entity.ProjectID = entity.ID
	if legacyProject != nil && legacyProject.ShortDes != "" {
		entity.Meta = appendMeta(entity.Meta, "short_description", legacyProject.ShortDes)
	}
	return e.finishEntity(ctx, manifest, entity)
}

func appendMeta(meta datatypes.JSON, key, value string) datatypes.JSON {
	decoded := map[string]interface{}{}
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &decoded)
	}
	decoded[key] = value
	encoded, _ := json.Marshal(decoded)
	return datatypes.JSON(encoded)
}
