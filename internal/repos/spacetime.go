package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

type SpaceTimeRepo interface {
	InsertOnce(ctx context.Context, tx *gorm.DB, record *types.SpaceTime) (bool, error)
	ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) ([]*types.SpaceTime, error)
}

type spaceTimeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSpaceTimeRepo(db *gorm.DB, baseLog *logger.Logger) SpaceTimeRepo {
	return &spaceTimeRepo{db: db, log: baseLog.With("repo", "SpaceTimeRepo")}
}

func (r *spaceTimeRepo) InsertOnce(ctx context.Context, tx *gorm.DB, record *types.SpaceTime) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *spaceTimeRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) ([]*types.SpaceTime, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SpaceTime
	if err := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("feature_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
