package migrate

import (
	"context"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// migrateType translates one controlled-vocabulary value. A type needs its
// owning predicate and a display string; without both it cannot be placed in
// the unified hierarchy and is skipped.
func (e *Engine) migrateType(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	project, err := e.Resolve(ctx, manifest.ProjectUUID)
	if err != nil {
		if isMissing(err) {
			return nil, missingDep(manifest.UUID, "owning project "+manifest.ProjectUUID+" unresolvable")
		}
		return nil, err
	}

	legacyType, err := e.legacy.GetOCType(ctx, nil, manifest.UUID)
	if err != nil {
		return nil, err
	}

	predicateUUID := ""
	if legacyType != nil {
		predicateUUID = legacyType.PredicateUUID
	}
	if predicateUUID == "" {
		predicateUUID = e.rules.TypePredicates[manifest.UUID]
	}
	if predicateUUID == "" {
		// Fall back to the first historical assertion that used this type
		// as its object.
		first, err := e.legacy.FirstAssertionUsingType(ctx, nil, manifest.UUID)
		if err != nil {
			return nil, err
		}
		if first != nil {
			predicateUUID = first.PredicateUUID
		}
	}
	if predicateUUID == "" {
		return nil, missingDep(manifest.UUID, "no owning predicate for type")
	}

	predicate, err := e.Resolve(ctx, predicateUUID)
	if err != nil {
		if isMissing(err) {
			return nil, missingDep(manifest.UUID, "owning predicate "+predicateUUID+" unresolvable")
		}
		return nil, err
	}

	label := manifest.Label
	if legacyType != nil && legacyType.ContentUUID != "" {
		content, err := e.legacy.GetString(ctx, nil, legacyType.ContentUUID)
		if err != nil {
			return nil, err
		}
		if content != nil && content.Content != "" {
			label = content.Content
		}
	}
	if label == "" {
		return nil, missingDep(manifest.UUID, "no display string for type")
	}

	entity := baseEntity(manifest, types.ItemTypes, project.ID, predicate.ID)
	entity.Label = label
	return e.finishEntity(ctx, manifest, entity)
}
