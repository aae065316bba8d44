package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ekansa/opencontext-migrate/internal/repos"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

// Stage names, in the fixed dependency order the batch runs them.
const (
	StageIdentifiers = "identifiers"
	StageAssertions  = "assertions"
	StageSpaceTime   = "spacetime"
)

// entityStages is the hand-specified topological order of item types:
// parents before children, predicates before the types they own.
var entityStages = []string{
	types.ItemProjects,
	types.ItemPredicates,
	types.ItemTypes,
	types.ItemPersons,
	types.ItemDocuments,
	types.ItemMedia,
	types.ItemSubjects,
}

// Options scope one batch run. At least one of ProjectUUID and ModifiedAfter
// must be supplied.
type Options struct {
	ProjectUUID   string
	ModifiedAfter *time.Time
	BatchSize     int
}

func (o Options) scope() repos.LegacyScope {
	return repos.LegacyScope{ProjectUUID: o.ProjectUUID, ModifiedAfter: o.ModifiedAfter}
}

// StageResult accumulates per-item-type counts for one stage.
type StageResult struct {
	Migrated int
	Skipped  int
	Errored  int
}

// FailedRecord identifies one record excluded from the success count.
type FailedRecord struct {
	Stage    string
	LegacyID string
	Err      string
}

// Result is the batch accumulator returned to the caller; nothing in the
// engine mutates shared state across runs.
type Result struct {
	Stages map[string]*StageResult
	Order  []string
	Failed []FailedRecord
	// FailedAssertions retains the full legacy rows so they can be exported
	// to a retry file and replayed without re-querying the legacy store.
	FailedAssertions []*types.LegacyAssertion
}

func newResult() *Result {
	return &Result{Stages: map[string]*StageResult{}}
}

func (r *Result) stage(name string) *StageResult {
	s, ok := r.Stages[name]
	if !ok {
		s = &StageResult{}
		r.Stages[name] = s
		r.Order = append(r.Order, name)
	}
	return s
}

func (r *Result) record(stage, legacyID string, err error) {
	s := r.stage(stage)
	switch {
	case err == nil:
		s.Migrated++
	case errors.Is(err, ErrMissingDependency):
		s.Skipped++
	default:
		s.Errored++
		r.Failed = append(r.Failed, FailedRecord{Stage: stage, LegacyID: legacyID, Err: err.Error()})
	}
}

// RunBatch drives a full migration pass over the scoped legacy records.
// Per-record failures are isolated: they are logged, counted and excluded
// from the success totals without aborting the batch. Only a bad scope or an
// unreachable store aborts the whole run.
func (e *Engine) RunBatch(ctx context.Context, opts Options) (*Result, error) {
	if opts.ProjectUUID == "" && opts.ModifiedAfter == nil {
		return nil, ErrBadScope
	}
	if err := e.EnsureRoots(ctx); err != nil {
		return nil, err
	}

	result := newResult()
	scope := opts.scope()

	for _, itemType := range entityStages {
		if err := e.runEntityStage(ctx, scope, itemType, opts.BatchSize, result); err != nil {
			return result, err
		}
	}
	// Stable identifiers migrate alongside their entities in finishEntity;
	// the explicit stage sweeps entities whose identifier rows were added
	// after the entity itself was first migrated.
	if err := e.runIdentifierStage(ctx, scope, opts.BatchSize, result); err != nil {
		return result, err
	}
	if err := e.runAssertionStage(ctx, scope, opts.BatchSize, result); err != nil {
		return result, err
	}
	if err := e.runSpaceTimeStage(ctx, scope, opts.BatchSize, result); err != nil {
		return result, err
	}

	e.logSummary(result)
	return result, nil
}

func (e *Engine) runEntityStage(ctx context.Context, scope repos.LegacyScope, itemType string, batchSize int, result *Result) error {
	total, err := e.legacy.CountManifest(ctx, nil, scope, itemType)
	if err != nil {
		return fmt.Errorf("count %s: %w", itemType, err)
	}
	stageLog := e.log.With("stage", itemType)
	index := 0

	return e.legacy.ListManifest(ctx, nil, scope, itemType, batchSize, func(batch []*types.LegacyManifest) error {
		for _, manifest := range batch {
			index++
			stageLog.Info(progress(index, total), "label", manifest.Label)
			_, err := e.Resolve(ctx, manifest.UUID)
			if err != nil && !errors.Is(err, ErrMissingDependency) {
				stageLog.Error("record failed", "legacy_id", manifest.UUID, "error", err)
			}
			result.record(itemType, manifest.UUID, err)
		}
		return nil
	})
}

func (e *Engine) runIdentifierStage(ctx context.Context, scope repos.LegacyScope, batchSize int, result *Result) error {
	stageLog := e.log.With("stage", StageIdentifiers)
	for _, itemType := range entityStages {
		err := e.legacy.ListManifest(ctx, nil, scope, itemType, batchSize, func(batch []*types.LegacyManifest) error {
			for _, manifest := range batch {
				stables, err := e.legacy.GetStableIdentifiers(ctx, nil, manifest.UUID)
				if err == nil && len(stables) == 0 {
					continue
				}
				if err == nil {
					// Resolve instead of re-deriving the id: a collapsed
					// duplicate maps to its survivor, and a record that never
					// migrated skips instead of leaving identifier rows that
					// reference nothing.
					var entity *types.Entity
					entity, err = e.Resolve(ctx, manifest.UUID)
					if err == nil {
						err = e.migrateStableIdentifiers(ctx, manifest.UUID, entity.ID)
					}
				}
				if err != nil && !errors.Is(err, ErrMissingDependency) {
					stageLog.Error("identifier migration failed", "legacy_id", manifest.UUID, "error", err)
				}
				result.record(StageIdentifiers, manifest.UUID, err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("identifier stage %s: %w", itemType, err)
		}
	}
	return nil
}

func (e *Engine) runAssertionStage(ctx context.Context, scope repos.LegacyScope, batchSize int, result *Result) error {
	total, err := e.legacy.CountAssertions(ctx, nil, scope)
	if err != nil {
		return fmt.Errorf("count assertions: %w", err)
	}
	stageLog := e.log.With("stage", StageAssertions)
	index := 0

	return e.legacy.ListAssertions(ctx, nil, scope, batchSize, func(batch []*types.LegacyAssertion) error {
		for _, legacy := range batch {
			index++
			if index%1000 == 1 || index == int(total) {
				stageLog.Info(progress(index, total))
			}
			_, err := e.TranslateAssertion(ctx, legacy)
			if err != nil && !errors.Is(err, ErrMissingDependency) {
				stageLog.Error("assertion failed", "hash_id", legacy.HashID, "error", err)
				result.FailedAssertions = append(result.FailedAssertions, legacy)
			}
			result.record(StageAssertions, legacy.HashID, err)
		}
		return nil
	})
}

func (e *Engine) runSpaceTimeStage(ctx context.Context, scope repos.LegacyScope, batchSize int, result *Result) error {
	stageLog := e.log.With("stage", StageSpaceTime)
	for _, itemType := range entityStages {
		err := e.legacy.ListManifest(ctx, nil, scope, itemType, batchSize, func(batch []*types.LegacyManifest) error {
			for _, manifest := range batch {
				written, err := e.CoalesceSpaceTime(ctx, manifest.UUID)
				if err != nil && !errors.Is(err, ErrMissingDependency) {
					stageLog.Error("space-time failed", "legacy_id", manifest.UUID, "error", err)
				}
				if err == nil && written == 0 {
					continue
				}
				result.record(StageSpaceTime, manifest.UUID, err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("space-time stage %s: %w", itemType, err)
		}
	}
	return nil
}

// ReplayAssertions re-runs previously failed assertion candidates, typically
// loaded from a retry file.
func (e *Engine) ReplayAssertions(ctx context.Context, records []*types.LegacyAssertion) (*Result, error) {
	if err := e.EnsureRoots(ctx); err != nil {
		return nil, err
	}
	result := newResult()
	total := int64(len(records))
	stageLog := e.log.With("stage", StageAssertions)
	for index, legacy := range records {
		stageLog.Info(progress(index+1, total))
		_, err := e.TranslateAssertion(ctx, legacy)
		if err != nil && !errors.Is(err, ErrMissingDependency) {
			result.FailedAssertions = append(result.FailedAssertions, legacy)
		}
		result.record(StageAssertions, legacy.HashID, err)
	}
	e.logSummary(result)
	return result, nil
}

func (e *Engine) logSummary(result *Result) {
	for _, name := range result.Order {
		s := result.Stages[name]
		e.log.Info("stage summary",
			"stage", name,
			"migrated", s.Migrated,
			"skipped", s.Skipped,
			"errored", s.Errored)
	}
}

func progress(index int, total int64) string {
	return fmt.Sprintf("%07d-of-%07d", index, total)
}
