package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

type ResourceRepo interface {
	InsertOnce(ctx context.Context, tx *gorm.DB, resource *types.Resource) (bool, error)
	ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) ([]*types.Resource, error)
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return &resourceRepo{db: db, log: baseLog.With("repo", "ResourceRepo")}
}

func (r *resourceRepo) InsertOnce(ctx context.Context, tx *gorm.DB, resource *types.Resource) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(resource)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *resourceRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) ([]*types.Resource, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Resource
	if err := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("resource_type, rank").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
