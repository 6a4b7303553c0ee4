package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/order/domain"
	"gorm.io/gorm"
)

const historySelect = `orders.*,
	products.title AS product_title,
	products.image_url AS product_image,
	stores.name AS store_name,
	stores.address AS store_address`

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", id.Int64()).Delete(&domain.Order{}).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).Where("id = ?", id.Int64()).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByPickupCode(ctx context.Context, code string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Where("pickup_code = ? AND status = ?", code, domain.StatusPending).
		Order("created_at DESC").
		First(&order).Error
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// No pending match; surface the latest order for the code so callers
	// can distinguish already-redeemed and cancelled from unknown.
	err = r.db.WithContext(ctx).
		Where("pickup_code = ?", code).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) MarkCompleted(ctx context.Context, id snowflake.ID) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id.Int64(), domain.StatusPending).
		Updates(map[string]any{
			"status":      domain.StatusCompleted,
			"redeemed_at": now,
			"updated_at":  now,
		})
	return res.RowsAffected, res.Error
}

func (r *repo) MarkCancelled(ctx context.Context, id snowflake.ID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id.Int64(), domain.StatusPending).
		Updates(map[string]any{
			"status":     domain.StatusCancelled,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repo) ListByConsumer(ctx context.Context, consumerID snowflake.ID) ([]domain.HistoryRow, error) {
	return r.listHistory(ctx, "orders.consumer_id = ?", consumerID.Int64())
}

func (r *repo) ListByStore(ctx context.Context, storeID snowflake.ID) ([]domain.HistoryRow, error) {
	return r.listHistory(ctx, "orders.store_id = ?", storeID.Int64())
}

func (r *repo) listHistory(ctx context.Context, cond string, arg any) ([]domain.HistoryRow, error) {
	var rows []domain.HistoryRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select(historySelect).
		Joins("JOIN products ON products.id = orders.product_id").
		Joins("JOIN stores ON stores.id = orders.store_id").
		Where(cond, arg).
		Order("orders.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
