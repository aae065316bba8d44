package migrate

import (
	"context"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

func (e *Engine) migrateDocument(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	project, err := e.Resolve(ctx, manifest.ProjectUUID)
	if err != nil {
		if isMissing(err) {
			return nil, missingDep(manifest.UUID, "owning project "+manifest.ProjectUUID+" unresolvable")
		}
		return nil, err
	}

	legacyDocument, err := e.legacy.GetDocument(ctx, nil, manifest.UUID)
	if err != nil {
		return nil, err
	}

	entity := baseEntity(manifest, types.ItemDocuments, project.ID, project.ID)
	if legacyDocument != nil && legacyDocument.Content != "" {
		entity.Meta = appendMeta(entity.Meta, "content", legacyDocument.Content)
	}
	return e.finishEntity(ctx, manifest, entity)
}
