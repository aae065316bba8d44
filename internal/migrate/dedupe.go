package migrate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/ekansa/opencontext-migrate/internal/types"
)

// resolveDuplicate collapses a candidate entity into an existing row with the
// same content fingerprint, if one exists. The candidate's legacy id lands in
// the survivor's duplicate-id metadata and the survivor is returned; a nil
// survivor tells the caller to proceed with insertion.
func (e *Engine) resolveDuplicate(ctx context.Context, candidate *types.Entity, legacyID string) (*types.Entity, error) {
	existing, err := e.entities.GetByContentHash(ctx, nil, candidate.ContentHash)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.ID == candidate.ID {
		return nil, nil
	}

	e.log.Info("collapsing duplicate entity",
		"legacy_id", legacyID,
		"survivor", existing.ID,
		"label", candidate.Label)
	// The duplicate-id list names every legacy id the surviving row now
	// answers for, the survivor's own included.
	for _, dupe := range []string{survivorLegacyID(existing), legacyID} {
		if dupe == "" {
			continue
		}
		if err := e.entities.AppendDuplicateID(ctx, nil, existing.ID, dupe); err != nil {
			return nil, &PersistenceError{Kind: candidate.ItemType, LegacyID: legacyID, Err: err}
		}
	}
	e.memoize(ctx, legacyID, existing)
	return existing, nil
}

func survivorLegacyID(entity *types.Entity) string {
	if len(entity.Meta) == 0 {
		return ""
	}
	meta := map[string]interface{}{}
	if err := json.Unmarshal(entity.Meta, &meta); err != nil {
		return ""
	}
	if id, ok := meta[types.MetaLegacyID].(string); ok {
		return id
	}
	return ""
}

// migrateStableIdentifiers carries legacy DOI/ARK/ORCID registrations over
// to the unified identifier table, normalizing scheme prefixes.
func (e *Engine) migrateStableIdentifiers(ctx context.Context, legacyID string, entityID uuid.UUID) error {
	stables, err := e.legacy.GetStableIdentifiers(ctx, nil, legacyID)
	if err != nil {
		return err
	}
	for _, stable := range stables {
		scheme, value := normalizeStableID(stable.Scheme, stable.StableID)
		if value == "" {
			continue
		}
		row := &types.Identifier{
			ID:         DeriveSeedID("identifier", scheme, value),
			EntityID:   entityID,
			Scheme:     scheme,
			Identifier: value,
		}
		if _, err := e.identifiers.InsertOnce(ctx, nil, row); err != nil {
			return &PersistenceError{Kind: "identifier", LegacyID: legacyID, Err: err}
		}
	}
	return nil
}

// normalizeStableID trims historical prefix noise from stable identifiers.
func normalizeStableID(scheme, value string) (string, string) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case types.SchemeDOI:
		value = strings.TrimPrefix(value, "https://doi.org/")
		value = strings.TrimPrefix(value, "http://dx.doi.org/")
		value = strings.TrimPrefix(value, "doi:")
		return types.SchemeDOI, value
	case types.SchemeARK:
		value = strings.TrimPrefix(value, "https://n2t.net/")
		value = strings.TrimPrefix(value, "ark:/")
		value = strings.TrimPrefix(value, "ark:")
		return types.SchemeARK, value
	case types.SchemeORCID:
		value = strings.TrimPrefix(value, "https://orcid.org/")
		return types.SchemeORCID, value
	default:
		return types.SchemeLegacy, value
	}
}
