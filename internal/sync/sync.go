package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/repos"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

// Policy controls how destination rows are written.
type Policy int

const (
	// InsertOnly never overwrites existing destination rows. Used when
	// seeding a secondary read replica.
	InsertOnly Policy = iota
	// UpsertWithFallback attempts a full-row save and, when the destination
	// rejects it, falls back to a narrower column update keyed on the
	// record kind's natural key. Used when pushing edits back to a primary.
	UpsertWithFallback
)

// Counts accumulates one record kind's outcomes.
type Counts struct {
	Synced int
	Failed int
}

// Result reports per-kind counts plus the identifying keys of failed rows.
type Result struct {
	PerKind map[string]*Counts
	Order   []string
	Failed  []string
}

func newResult() *Result {
	return &Result{PerKind: map[string]*Counts{}}
}

func (r *Result) kind(name string) *Counts {
	c, ok := r.PerKind[name]
	if !ok {
		c = &Counts{}
		r.PerKind[name] = c
		r.Order = append(r.Order, name)
	}
	return c
}

func (r *Result) record(kind, key string, err error) {
	c := r.kind(kind)
	if err == nil {
		c.Synced++
		return
	}
	c.Failed++
	r.Failed = append(r.Failed, fmt.Sprintf("%s:%s", kind, key))
}

// Synchronizer replays unified rows of one scope between the default and
// prod stores (in either direction).
type Synchronizer struct {
	src *gorm.DB
	dst *gorm.DB
	log *logger.Logger

	srcEntities   repos.EntityRepo
	srcAssertions repos.AssertionRepo
	srcIdents     repos.IdentifierRepo
	srcSpaceTime  repos.SpaceTimeRepo
	srcResources  repos.ResourceRepo

	dstEntities   repos.EntityRepo
	dstAssertions repos.AssertionRepo
	dstIdents     repos.IdentifierRepo
	dstSpaceTime  repos.SpaceTimeRepo
	dstResources  repos.ResourceRepo

	batchSize int
}

func NewSynchronizer(src, dst *gorm.DB, baseLog *logger.Logger, batchSize int) *Synchronizer {
	log := baseLog.With("service", "CrossDatabaseSynchronizer")
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Synchronizer{
		src:           src,
		dst:           dst,
		log:           log,
		srcEntities:   repos.NewEntityRepo(src, log),
		srcAssertions: repos.NewAssertionRepo(src, log),
		srcIdents:     repos.NewIdentifierRepo(src, log),
		srcSpaceTime:  repos.NewSpaceTimeRepo(src, log),
		srcResources:  repos.NewResourceRepo(src, log),
		dstEntities:   repos.NewEntityRepo(dst, log),
		dstAssertions: repos.NewAssertionRepo(dst, log),
		dstIdents:     repos.NewIdentifierRepo(dst, log),
		dstSpaceTime:  repos.NewSpaceTimeRepo(dst, log),
		dstResources:  repos.NewResourceRepo(dst, log),
		batchSize:     batchSize,
	}
}

// SyncProject replays every unified row scoped to a project. Row failures
// are caught, logged with an identifying key and never abort the batch.
func (s *Synchronizer) SyncProject(ctx context.Context, projectID uuid.UUID, policy Policy) (*Result, error) {
	if s.dst == nil {
		return nil, fmt.Errorf("destination database unavailable")
	}
	result := newResult()

	totalAssertions, err := s.srcAssertions.CountByProject(ctx, nil, projectID)
	if err != nil {
		return nil, fmt.Errorf("count source assertions: %w", err)
	}
	s.log.Info("sync starting", "project", projectID, "assertions", totalAssertions)

	err = s.srcEntities.ListByProject(ctx, nil, projectID, s.batchSize, func(batch []*types.Entity) error {
		for _, entity := range batch {
			err := s.syncEntity(ctx, entity, policy)
			if err != nil {
				s.log.Error("entity sync failed", "id", entity.ID, "error", err)
			}
			result.record("entities", entity.ID.String(), err)
			if err != nil {
				continue
			}
			s.syncAttachments(ctx, entity, policy, result)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("list source entities: %w", err)
	}

	err = s.srcAssertions.ListByProject(ctx, nil, projectID, s.batchSize, func(batch []*types.Assertion) error {
		for _, assertion := range batch {
			err := s.syncAssertion(ctx, assertion, policy)
			if err != nil {
				s.log.Error("assertion sync failed", "id", assertion.ID, "error", err)
			}
			result.record("assertions", assertion.ID.String(), err)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("list source assertions: %w", err)
	}

	for _, name := range result.Order {
		c := result.PerKind[name]
		s.log.Info("sync summary", "kind", name, "synced", c.Synced, "failed", c.Failed)
	}
	return result, nil
}

func (s *Synchronizer) syncEntity(ctx context.Context, entity *types.Entity, policy Policy) error {
	if policy == InsertOnly {
		_, err := s.dstEntities.InsertOnce(ctx, nil, entity)
		return err
	}
	if err := s.dstEntities.Save(ctx, nil, entity); err == nil {
		return nil
	}
	// Narrow fallback: the destination may carry constraints the full row
	// violates; update the mutable columns keyed by derived id.
	return s.dstEntities.UpdateColumns(ctx, nil, entity.ID, map[string]interface{}{
		"label":        entity.Label,
		"data_type":    entity.DataType,
		"context_id":   entity.ContextID,
		"content_hash": entity.ContentHash,
		"meta":         entity.Meta,
		"revised":      entity.Revised,
	})
}

func (s *Synchronizer) syncAssertion(ctx context.Context, assertion *types.Assertion, policy Policy) error {
	if policy == InsertOnly {
		_, err := s.dstAssertions.InsertOnce(ctx, nil, assertion)
		return err
	}
	if err := s.dstAssertions.Save(ctx, nil, assertion); err == nil {
		return nil
	}
	return s.dstAssertions.UpdateColumns(ctx, nil, assertion.ID, map[string]interface{}{
		"sort":    assertion.Sort,
		"visible": assertion.Visible,
	})
}

// syncAttachments replays the per-entity satellite rows: identifiers,
// space-time records and media resources. These are insert-only under both
// policies; their derived ids make replays idempotent.
func (s *Synchronizer) syncAttachments(ctx context.Context, entity *types.Entity, policy Policy, result *Result) {
	identifiers, err := s.srcIdents.ListByEntity(ctx, nil, entity.ID)
	if err != nil {
		s.log.Error("list identifiers failed", "entity", entity.ID, "error", err)
		result.record("identifiers", entity.ID.String(), err)
	} else {
		for _, identifier := range identifiers {
			_, err := s.dstIdents.InsertOnce(ctx, nil, identifier)
			if err != nil && policy == UpsertWithFallback {
				// Natural key for identifiers is (scheme, identifier).
				err = s.dst.WithContext(ctx).
					Model(&types.Identifier{}).
					Where("scheme = ? AND identifier = ?", identifier.Scheme, identifier.Identifier).
					Update("entity_id", identifier.EntityID).Error
			}
			if err != nil {
				s.log.Error("identifier sync failed", "id", identifier.ID, "error", err)
			}
			result.record("identifiers", identifier.ID.String(), err)
		}
	}

	spaceTimes, err := s.srcSpaceTime.ListByEntity(ctx, nil, entity.ID)
	if err != nil {
		result.record("spacetime", entity.ID.String(), err)
	} else {
		for _, record := range spaceTimes {
			_, err := s.dstSpaceTime.InsertOnce(ctx, nil, record)
			if err != nil {
				s.log.Error("space-time sync failed", "id", record.ID, "error", err)
			}
			result.record("spacetime", record.ID.String(), err)
		}
	}

	if entity.ItemType != types.ItemMedia {
		return
	}
	resources, err := s.srcResources.ListByEntity(ctx, nil, entity.ID)
	if err != nil {
		result.record("resources", entity.ID.String(), err)
		return
	}
	for _, resource := range resources {
		_, err := s.dstResources.InsertOnce(ctx, nil, resource)
		if err != nil {
			s.log.Error("resource sync failed", "id", resource.ID, "error", err)
		}
		result.record("resources", resource.ID.String(), err)
	}
}
