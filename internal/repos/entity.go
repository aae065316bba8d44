package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ekansa/opencontext-migrate/internal/logger"
	"github.com/ekansa/opencontext-migrate/internal/types"
)

type EntityRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Entity, error)
	GetByContentHash(ctx context.Context, tx *gorm.DB, hash string) (*types.Entity, error)
	// InsertOnce persists the entity unless a row with the same id already
	// exists. Returns true when a new row was written.
	InsertOnce(ctx context.Context, tx *gorm.DB, entity *types.Entity) (bool, error)
	// AppendDuplicateID records a collapsed legacy id in the survivor's
	// metadata, deduplicated.
	AppendDuplicateID(ctx context.Context, tx *gorm.DB, id uuid.UUID, legacyID string) error
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, batchSize int, fn func(batch []*types.Entity) error) error
	CountByItemType(ctx context.Context, tx *gorm.DB, itemType string) (int64, error)
	Save(ctx context.Context, tx *gorm.DB, entity *types.Entity) error
	UpdateColumns(ctx context.Context, tx *gorm.DB, id uuid.UUID, cols map[string]interface{}) error
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: baseLog.With("repo", "EntityRepo")}
}

func (r *entityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Entity
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *entityRepo) GetByContentHash(ctx context.Context, tx *gorm.DB, hash string) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Entity
	err := transaction.WithContext(ctx).Where("content_hash = ?", hash).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *entityRepo) InsertOnce(ctx context.Context, tx *gorm.DB, entity *types.Entity) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entity)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *entityRepo) AppendDuplicateID(ctx context.Context, tx *gorm.DB, id uuid.UUID, legacyID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	existing, err := r.GetByID(ctx, transaction, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("append duplicate id: entity %s not found", id)
	}

	meta := map[string]interface{}{}
	if len(existing.Meta) > 0 {
		if err := json.Unmarshal(existing.Meta, &meta); err != nil {
			return fmt.Errorf("decode entity meta: %w", err)
		}
	}
	dupes := []string{}
	if raw, ok := meta[types.MetaDuplicateIDs].([]interface{}); ok {
		for _, d := range raw {
			if s, ok := d.(string); ok {
				if s == legacyID {
					return nil
				}
				dupes = append(dupes, s)
			}
		}
	}
	meta[types.MetaDuplicateIDs] = append(dupes, legacyID)

	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode entity meta: %w", err)
	}
	return transaction.WithContext(ctx).
		Model(&types.Entity{}).
		Where("id = ?", id).
		Update("meta", datatypes.JSON(encoded)).Error
}

func (r *entityRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, batchSize int, fn func(batch []*types.Entity) error) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	// No extra Order here: FindInBatches cursors on the primary key and a
	// competing ordering makes it skip and repeat rows between batches.
	var batch []*types.Entity
	return transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

func (r *entityRepo) CountByItemType(ctx context.Context, tx *gorm.DB, itemType string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	err := transaction.WithContext(ctx).
		Model(&types.Entity{}).
		Where("item_type = ?", itemType).
		Count(&n).Error
	return n, err
}

func (r *entityRepo) Save(ctx context.Context, tx *gorm.DB, entity *types.Entity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(entity).Error
}

func (r *entityRepo) UpdateColumns(ctx context.Context, tx *gorm.DB, id uuid.UUID, cols map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Entity{}).
		Where("id = ?", id).
		Updates(cols).Error
}
