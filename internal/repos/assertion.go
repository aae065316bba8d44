package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

type AssertionRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assertion, error)
	InsertOnce(ctx context.Context, tx *gorm.DB, assertion *types.Assertion) (bool, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, batchSize int, fn func(batch []*types.Assertion) error) error
	CountByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error)
	Save(ctx context.Context, tx *gorm.DB, assertion *types.Assertion) error
	UpdateColumns(ctx context.Context, tx *gorm.DB, id uuid.UUID, cols map[string]interface{}) error
}

type assertionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssertionRepo(db *gorm.DB, baseLog *logger.Logger) AssertionRepo {
	return &assertionRepo{db: db, log: baseLog.With("repo", "AssertionRepo")}
}

func (r *assertionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assertion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Assertion
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *assertionRepo) InsertOnce(ctx context.Context, tx *gorm.DB, assertion *types.Assertion) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(assertion)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *assertionRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, batchSize int, fn func(batch []*types.Assertion) error) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	// No extra Order here: FindInBatches cursors on the primary key and a
	// competing ordering makes it skip and repeat rows between batches.
	var batch []*types.Assertion
	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

func (r *assertionRepo) CountByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	err := transaction.WithContext(ctx).
		Model(&types.Assertion{}).
		Where("project_id = ?", projectID).
		Count(&n).Error
	return n, err
}

func (r *assertionRepo) Save(ctx context.Context, tx *gorm.DB, assertion *types.Assertion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(assertion).Error
}

func (r *assertionRepo) UpdateColumns(ctx context.Context, tx *gorm.DB, id uuid.UUID, cols map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Assertion{}).
		Where("id = ?", id).
		Updates(cols).Error
}
