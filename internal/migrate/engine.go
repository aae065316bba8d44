package migrate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ekansa/opencontext-migrate/internal/cache"
	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/repos"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

// Engine holds the shared state of one migration run: the target repos, the
// legacy source, the lookup cache and the rule tables. Not safe for
// concurrent use; one Engine per batch invocation.
type Engine struct {
	log   *logger.Logger
	rules *Rules
	memo  cache.Cache

	legacy      repos.LegacyRepo
	entities    repos.EntityRepo
	assertions  repos.AssertionRepo
	identifiers repos.IdentifierRepo
	spacetime   repos.SpaceTimeRepo
	resources   repos.ResourceRepo

	// visiting guards the recursive resolver against cyclic legacy
	// containment graphs.
	visiting map[string]bool
}

func NewEngine(
	baseLog *logger.Logger,
	memo cache.Cache,
	rules *Rules,
	legacy repos.LegacyRepo,
	entities repos.EntityRepo,
	assertions repos.AssertionRepo,
	identifiers repos.IdentifierRepo,
	spacetime repos.SpaceTimeRepo,
	resources repos.ResourceRepo,
) *Engine {
	return &Engine{
		log:         baseLog.With("service", "MigrationEngine"),
		rules:       rules,
		memo:        memo,
		legacy:      legacy,
		entities:    entities,
		assertions:  assertions,
		identifiers: identifiers,
		spacetime:   spacetime,
		resources:   resources,
		visiting:    map[string]bool{},
	}
}

// EnsureRoots get-or-creates the well-known root entities every hierarchy
// anchors at. Insert-only; safe to call at the start of every batch.
func (e *Engine) EnsureRoots(ctx context.Context) error {
	now := time.Now().UTC()
	roots := []*types.Entity{
		{
			ID:          RootProjectID,
			ItemType:    types.ItemProjects,
			DataType:    types.DataTypeID,
			ProjectID:   RootProjectID,
			PublisherID: DefaultPublisherID,
			ContextID:   RootProjectID,
			Label:       "Open Context",
			SourceID:    "root",
			Published:   now,
			Revised:     now,
		},
		{
			ID:          WorldSubjectID,
			ItemType:    types.ItemSubjects,
			DataType:    types.DataTypeID,
			ProjectID:   RootProjectID,
			PublisherID: DefaultPublisherID,
			ContextID:   RootProjectID,
			Label:       "World",
			SourceID:    "root",
			Published:   now,
			Revised:     now,
		},
		{
			ID:          ContainsPredicateID,
			ItemType:    types.ItemPredicates,
			DataType:    types.DataTypeID,
			ProjectID:   RootProjectID,
			PublisherID: DefaultPublisherID,
			ContextID:   RootProjectID,
			Label:       "Contains",
			SourceID:    "root",
			Published:   now,
			Revised:     now,
		},
	}
	for _, root := range roots {
		if _, err := e.entities.InsertOnce(ctx, nil, root); err != nil {
			return &PersistenceError{Kind: root.ItemType, LegacyID: root.Label, Err: err}
		}
	}
	return nil
}

// =====================================
// Legacy identifier resolution
// =====================================

const negativeMarker = "!"

func cacheKey(legacyID string) string { return "legacy:" + legacyID }

// Resolve maps a legacy id to its migrated entity, migrating it (and,
// recursively, its prerequisites) on demand. Negative results are memoized
// so unresolvable ids are not re-attempted thousands of times.
func (e *Engine) Resolve(ctx context.Context, legacyID string) (*types.Entity, error) {
	if IsLegacyRoot(legacyID) {
		return e.entities.GetByID(ctx, nil, RootProjectID)
	}

	if cached, err := e.memo.Get(ctx, cacheKey(legacyID)); err == nil {
		if string(cached) == negativeMarker {
			return nil, missingDep(legacyID, "memoized unresolvable id")
		}
		var entity types.Entity
		if err := json.Unmarshal(cached, &entity); err == nil {
			return &entity, nil
		}
		// Unreadable memo entries are dropped and re-derived.
		_ = e.memo.Delete(ctx, cacheKey(legacyID))
	}

	// Idempotence short-circuit: a prior run may already have migrated it.
	if existing, err := e.entities.GetByID(ctx, nil, DeriveID(legacyID)); err != nil {
		return nil, err
	} else if existing != nil {
		e.memoize(ctx, legacyID, existing)
		return existing, nil
	}

	if e.visiting[legacyID] {
		return nil, &CycleError{LegacyID: legacyID}
	}
	e.visiting[legacyID] = true
	defer delete(e.visiting, legacyID)

	manifest, err := e.legacy.GetManifest(ctx, nil, legacyID)
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		e.memoizeNegative(ctx, legacyID)
		return nil, missingDep(legacyID, "no legacy manifest row")
	}

	entity, err := e.migrateManifest(ctx, manifest)
	if err != nil {
		if isMissing(err) && !isCycle(err) {
			e.memoizeNegative(ctx, legacyID)
		}
		return nil, err
	}
	e.memoize(ctx, legacyID, entity)
	return entity, nil
}

// migrateManifest dispatches a manifest row to its item-type migrator.
func (e *Engine) migrateManifest(ctx context.Context, manifest *types.LegacyManifest) (*types.Entity, error) {
	switch manifest.ItemType {
	case types.ItemProjects:
		return e.migrateProject(ctx, manifest)
	case types.ItemPredicates:
		return e.migratePredicate(ctx, manifest)
	case types.ItemTypes:
		return e.migrateType(ctx, manifest)
	case types.ItemPersons:
		return e.migratePerson(ctx, manifest)
	case types.ItemDocuments:
		return e.migrateDocument(ctx, manifest)
	case types.ItemMedia:
		return e.migrateMedia(ctx, manifest)
	case types.ItemSubjects:
		return e.migrateSubject(ctx, manifest)
	default:
		return nil, missingDep(manifest.UUID, "unknown legacy item type "+manifest.ItemType)
	}
}

func (e *Engine) memoize(ctx context.Context, legacyID string, entity *types.Entity) {
	encoded, err := json.Marshal(entity)
	if err != nil {
		return
	}
	if err := e.memo.Set(ctx, cacheKey(legacyID), encoded); err != nil {
		e.log.Warn("cache set failed", "legacy_id", legacyID, "error", err)
	}
}

func (e *Engine) memoizeNegative(ctx context.Context, legacyID string) {
	if err := e.memo.Set(ctx, cacheKey(legacyID), []byte(negativeMarker)); err != nil {
		e.log.Warn("cache set failed", "legacy_id", legacyID, "error", err)
	}
}

func isMissing(err error) bool {
	return errors.Is(err, ErrMissingDependency)
}

func isCycle(err error) bool {
	var cycle *CycleError
	return errors.As(err, &cycle)
}

// =====================================
// Shared persistence path
// =====================================

// finishEntity runs the common tail of every item-type migrator: duplicate
// collapse, insert-only persistence, legacy identifier registration and
// stable identifier carry-over.
func (e *Engine) finishEntity(ctx context.Context, manifest *types.LegacyManifest, entity *types.Entity) (*types.Entity, error) {
	entity.ContentHash = ContentHash(entity.ItemType, entity.DataType, entity.Label, entity.ProjectID, entity.ContextID)

	if survivor, err := e.resolveDuplicate(ctx, entity, manifest.UUID); err != nil {
		return nil, err
	} else if survivor != nil {
		return survivor, nil
	}

	inserted, err := e.entities.InsertOnce(ctx, nil, entity)
	if err != nil {
		return nil, &PersistenceError{Kind: entity.ItemType, LegacyID: manifest.UUID, Err: err}
	}
	if !inserted {
		// Concurrent or prior creation under the same derived id counts as
		// already migrated.
		existing, err := e.entities.GetByID(ctx, nil, entity.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	if entity.ID.String() != manifest.UUID {
		legacyRef := &types.Identifier{
			ID:         DeriveSeedID("identifier", types.SchemeLegacy, manifest.UUID),
			EntityID:   entity.ID,
			Scheme:     types.SchemeLegacy,
			Identifier: manifest.UUID,
		}
		if _, err := e.identifiers.InsertOnce(ctx, nil, legacyRef); err != nil {
			return nil, &PersistenceError{Kind: "identifier", LegacyID: manifest.UUID, Err: err}
		}
	}

	if err := e.migrateStableIdentifiers(ctx, manifest.UUID, entity.ID); err != nil {
		return nil, err
	}
	return entity, nil
}

// baseEntity seeds the unified record with the fields every item type shares.
func baseEntity(manifest *types.LegacyManifest, itemType string, projectID, contextID uuid.UUID) *types.Entity {
	return &types.Entity{
		ID:          DeriveID(manifest.UUID),
		ItemType:    itemType,
		DataType:    types.DataTypeID,
		ProjectID:   projectID,
		PublisherID: DefaultPublisherID,
		ContextID:   contextID,
		Label:       manifest.Label,
		SourceID:    manifest.SourceID,
		Published:   manifest.Published,
		Revised:     manifest.Revised,
		Meta:        legacyMeta(manifest),
	}
}

func legacyMeta(manifest *types.LegacyManifest, extra ...string) datatypes.JSON {
	meta := map[string]interface{}{
		types.MetaLegacyID:     manifest.UUID,
		types.MetaLegacySource: manifest.SourceID,
	}
	for i := 0; i+1 < len(extra); i += 2 {
		meta[extra[i]] = extra[i+1]
	}
	encoded, _ := json.Marshal(meta)
	return datatypes.JSON(encoded)
}
