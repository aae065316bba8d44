package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

// LegacyScope filters legacy reads to a project, a modification horizon, or
// both. Validation (at least one present) is the batch driver's job.
type LegacyScope struct {
	ProjectUUID   string
	ModifiedAfter *time.Time
}

func (s LegacyScope) apply(q *gorm.DB, updatedCol string) *gorm.DB {
	if s.ProjectUUID != "" {
		q = q.Where("project_uuid = ?", s.ProjectUUID)
	}
	if s.ModifiedAfter != nil {
		q = q.Where(updatedCol+" > ?", *s.ModifiedAfter)
	}
	return q
}

// LegacyRepo is the read-only gateway to the first-generation schema. Every
// method that looks up a single row returns (nil, nil) when the row does not
// exist; absence is a normal condition for legacy data.
type LegacyRepo interface {
	GetManifest(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyManifest, error)
	GetProject(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyProject, error)
	GetPredicate(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyPredicate, error)
	GetOCType(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyOCType, error)
	GetString(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyOCString, error)
	GetPerson(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyPerson, error)
	GetDocument(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyDocument, error)
	GetMediaFiles(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyMediaFile, error)
	GetGeospace(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyGeospace, error)
	GetEvents(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyEvent, error)
	GetParentContainment(ctx context.Context, tx *gorm.DB, childUUID string) (*types.LegacyContainment, error)
	GetStableIdentifiers(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyStableIdentifier, error)

	// ListManifest streams manifest rows of one item type within scope.
	ListManifest(ctx context.Context, tx *gorm.DB, scope LegacyScope, itemType string, batchSize int, fn func(batch []*types.LegacyManifest) error) error
	CountManifest(ctx context.Context, tx *gorm.DB, scope LegacyScope, itemType string) (int64, error)
	ListAssertions(ctx context.Context, tx *gorm.DB, scope LegacyScope, batchSize int, fn func(batch []*types.LegacyAssertion) error) error
	CountAssertions(ctx context.Context, tx *gorm.DB, scope LegacyScope) (int64, error)

	// ObjectTypesForPredicate reports the distinct object-type tags the
	// legacy corpus ever used with a predicate.
	ObjectTypesForPredicate(ctx context.Context, tx *gorm.DB, predicateUUID string) ([]string, error)
	// FirstAssertionUsingType finds the earliest assertion whose object is
	// the given type, used to infer a type's owning predicate.
	FirstAssertionUsingType(ctx context.Context, tx *gorm.DB, typeUUID string) (*types.LegacyAssertion, error)
}

type legacyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLegacyRepo(db *gorm.DB, baseLog *logger.Logger) LegacyRepo {
	return &legacyRepo{db: db, log: baseLog.With("repo", "LegacyRepo")}
}

func (r *legacyRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func firstOrNil[T any](q *gorm.DB) (*T, error) {
	var result T
	err := q.First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *legacyRepo) GetManifest(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyManifest, error) {
	return firstOrNil[types.LegacyManifest](r.tx(tx).WithContext(ctx).Where("uuid = ?", uuid))
}

func (r *legacyRepo) GetProject(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyProject, error) {
	return firstOrNil[types.LegacyProject](r.tx(tx).WithContext(ctx).Where("uuid = ?", uuid))
}

func (r *legacyRepo) GetPredicate(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyPredicate, error) {
	return firstOrNil[types.LegacyPredicate](r.tx(tx).WithContext(ctx).Where("uuid = ?", uuid))
}

func (r *legacyRepo) GetOCType(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyOCType, error) {
	return firstOrNil[types.LegacyOCType](r.tx(tx).WithContext(ctx).Where("uuid = ?", uuid))
}

func (r *legacyRepo) GetString(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyOCString, error) {
	return firstOrNil[types.LegacyOCString](r.tx(tx).WithContext(ctx).Where("uuid = ?", uuid))
}

func (r *legacyRepo) GetPerson(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyPerson, error) {
	return firstOrNil[types.LegacyPerson](r.tx(tx).WithContext(ctx).Where("uuid = ?", uuid))
}

func (r *legacyRepo) GetDocument(ctx context.Context, tx *gorm.DB, uuid string) (*types.LegacyDocument, error) {
	return firstOrNil[types.LegacyDocument](r.tx(tx).WithContext(ctx).Where("uuid = ?", uuid))
}

func (r *legacyRepo) GetMediaFiles(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyMediaFile, error) {
	var results []*types.LegacyMediaFile
	if err := r.tx(tx).WithContext(ctx).
		Where("uuid = ?", uuid).
		Order("file_type").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *legacyRepo) GetGeospace(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyGeospace, error) {
	var results []*types.LegacyGeospace
	if err := r.tx(tx).WithContext(ctx).
		Where("uuid = ?", uuid).
		Order("hash_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *legacyRepo) GetEvents(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyEvent, error) {
	var results []*types.LegacyEvent
	if err := r.tx(tx).WithContext(ctx).
		Where("uuid = ?", uuid).
		Order("hash_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *legacyRepo) GetParentContainment(ctx context.Context, tx *gorm.DB, childUUID string) (*types.LegacyContainment, error) {
	return firstOrNil[types.LegacyContainment](r.tx(tx).WithContext(ctx).Where("child_uuid = ?", childUUID))
}

func (r *legacyRepo) GetStableIdentifiers(ctx context.Context, tx *gorm.DB, uuid string) ([]*types.LegacyStableIdentifier, error) {
	var results []*types.LegacyStableIdentifier
	if err := r.tx(tx).WithContext(ctx).
		Where("uuid = ?", uuid).
		Order("id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *legacyRepo) ListManifest(ctx context.Context, tx *gorm.DB, scope LegacyScope, itemType string, batchSize int, fn func(batch []*types.LegacyManifest) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	// FindInBatches paginates with a primary-key cursor and supplies its own
	// ordering; adding another Order desynchronizes the cursor and rows get
	// skipped or repeated across batches.
	q := scope.apply(r.tx(tx).WithContext(ctx), "revised").
		Where("item_type = ?", itemType)

	var batch []*types.LegacyManifest
	return q.FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

func (r *legacyRepo) CountManifest(ctx context.Context, tx *gorm.DB, scope LegacyScope, itemType string) (int64, error) {
	var n int64
	err := scope.apply(r.tx(tx).WithContext(ctx).Model(&types.LegacyManifest{}), "revised").
		Where("item_type = ?", itemType).
		Count(&n).Error
	return n, err
}

func (r *legacyRepo) ListAssertions(ctx context.Context, tx *gorm.DB, scope LegacyScope, batchSize int, fn func(batch []*types.LegacyAssertion) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	// Rows stream in hash_id order; see ListManifest on why FindInBatches
	// queries must not carry their own Order.
	q := scope.apply(r.tx(tx).WithContext(ctx), "updated")

	var batch []*types.LegacyAssertion
	return q.FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

func (r *legacyRepo) CountAssertions(ctx context.Context, tx *gorm.DB, scope LegacyScope) (int64, error) {
	var n int64
	err := scope.apply(r.tx(tx).WithContext(ctx).Model(&types.LegacyAssertion{}), "updated").
		Count(&n).Error
	return n, err
}

func (r *legacyRepo) ObjectTypesForPredicate(ctx context.Context, tx *gorm.DB, predicateUUID string) ([]string, error) {
	var results []string
	if err := r.tx(tx).WithContext(ctx).
		Model(&types.LegacyAssertion{}).
		Where("predicate_uuid = ?", predicateUUID).
		Distinct("object_type").
		Order("object_type").
		Pluck("object_type", &results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *legacyRepo) FirstAssertionUsingType(ctx context.Context, tx *gorm.DB, typeUUID string) (*types.LegacyAssertion, error) {
	return firstOrNil[types.LegacyAssertion](r.tx(tx).WithContext(ctx).
		Where("object_uuid = ?", typeUUID).
		Order("hash_id"))
}
