package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/store/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, store *domain.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Store, error) {
	var s domain.Store
	err := r.db.WithContext(ctx).Where("id = ?", id.Int64()).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repo) FindByOwner(ctx context.Context, ownerID snowflake.ID) ([]domain.Store, error) {
	var items []domain.Store
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID.Int64()).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindAll(ctx context.Context) ([]domain.Store, error) {
	var items []domain.Store
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) OwnsStore(ctx context.Context, ownerID, storeID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Store{}).
		Where("id = ? AND owner_id = ?", storeID.Int64(), ownerID.Int64()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
