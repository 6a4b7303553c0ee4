package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/profile/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, profile *domain.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repo) FindByAccountID(ctx context.Context, accountID snowflake.ID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID.Int64()).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, accountID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("account_id = ?", accountID.Int64()).Delete(&domain.Profile{}).Error
}
