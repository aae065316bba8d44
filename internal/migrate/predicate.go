package migrate

import (
	"context"
	"sort"
	"strings"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// migratePredicate translates one legacy predicate. The declared data type
// is taken from the legacy row unless an override applies or the predicate's
// own historical usage contradicts it.
func (e *Engine) migratePredicate(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	project, err := e.Resolve(ctx, manifest.ProjectUUID)
	if err != nil {
		if isMissing(err) {
			return nil, missingDep(manifest.UUID, "owning project "+manifest.ProjectUUID+" unresolvable")
		}
		return nil, err
	}

	legacyPredicate, err := e.legacy.GetPredicate(ctx, nil, manifest.UUID)
	if err != nil {
		return nil, err
	}

	dataType, err := e.predicateDataType(ctx, manifest.UUID, legacyPredicate)
	if err != nil {
		return nil, err
	}

	entity := baseEntity(manifest, types.ItemPredicates, project.ID, project.ID)
	entity.DataType = dataType
	if legacyPredicate != nil {
		entity.Meta = appendMeta(entity.Meta, "legacy_data_type", legacyPredicate.DataType)
	}
	return e.finishEntity(ctx, manifest, entity)
}

// predicateDataType applies, in order: the override table, the legacy
// declaration, and a usage audit. When historical assertions used more than
// one non-string object type: all entity references reclassify the predicate
// as entity-valued; a genuine literal mixture is a reportable conflict,
// never guessed at.
func (e *Engine) predicateDataType(ctx context.Context, predicateUUID string, legacyPredicate *types.LegacyPredicate) (string, error) {
	if override, ok := e.rules.PredicateDataTypes[predicateUUID]; ok {
		return normalizeDataType(override), nil
	}

	declared := types.DataTypeID
	if legacyPredicate != nil {
		declared = normalizeDataType(legacyPredicate.DataType)
	}

	used, err := e.legacy.ObjectTypesForPredicate(ctx, nil, predicateUUID)
	if err != nil {
		return "", err
	}

	rawDistinct := 0
	canonical := map[string]bool{}
	for _, tag := range used {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		rawDistinct++
		canonical[normalizeObjectType(tag)] = true
	}

	literals := 0
	for tag := range canonical {
		if tag != types.DataTypeID {
			literals++
		}
	}

	switch {
	case literals > 1:
		// A genuine literal mixture (string+numeric, numeric+date, ...)
		// cannot be reconciled without guessing.
		found := make([]string, 0, len(canonical))
		for tag := range canonical {
			found = append(found, tag)
		}
		sort.Strings(found)
		return "", &TypeConflictError{PredicateID: predicateUUID, Declared: declared, Found: found}
	case len(canonical) == 2 && canonical[types.DataTypeID] && canonical[types.DataTypeString]:
		// Strings alongside entity references are absorbed by label
		// substitution; the declaration stands.
		return declared, nil
	case len(canonical) == 2:
		// Entity references mixed with a non-string literal.
		found := make([]string, 0, len(canonical))
		for tag := range canonical {
			found = append(found, tag)
		}
		sort.Strings(found)
		return "", &TypeConflictError{PredicateID: predicateUUID, Declared: declared, Found: found}
	case canonical[types.DataTypeID] && rawDistinct > 1:
		// Several raw tags, all naming entity tables: the predicate is
		// entity-valued regardless of its declaration.
		return types.DataTypeID, nil
	default:
		return declared, nil
	}
}
