package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

type IdentifierRepo interface {
	InsertOnce(ctx context.Context, tx *gorm.DB, identifier *types.Identifier) (bool, error)
	ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) ([]*types.Identifier, error)
}

type identifierRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdentifierRepo(db *gorm.DB, baseLog *logger.Logger) IdentifierRepo {
	return &identifierRepo{db: db, log: baseLog.With("repo", "IdentifierRepo")}
}

func (r *identifierRepo) InsertOnce(ctx context.Context, tx *gorm.DB, identifier *types.Identifier) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(identifier)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *identifierRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) ([]*types.Identifier, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Identifier
	if err := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("scheme, identifier").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
