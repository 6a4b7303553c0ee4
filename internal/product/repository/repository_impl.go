package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id.Int64()).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListActive(ctx context.Context, now time.Time, filter domain.ListFilter) ([]domain.Listing, error) {
	stmt := r.db.WithContext(ctx).
		Table("products").
		Select(`products.*,
			stores.name AS store_name,
			stores.address AS store_address,
			stores.latitude AS store_latitude,
			stores.longitude AS store_longitude`).
		Joins("JOIN stores ON stores.id = products.store_id")

	if filter.StoreID != 0 {
		stmt = stmt.Where("products.store_id = ?", filter.StoreID.Int64())
	}
	if !filter.IncludeExpired {
		stmt = stmt.Where("products.expiry_date > ?", now)
	}
	if !filter.IncludeSoldOut {
		stmt = stmt.Where("products.stock_quantity > 0")
	}

	var items []domain.Listing
	if err := stmt.Order("products.expiry_date ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", id.Int64()).Delete(&domain.Product{}).Error
}

func (r *repo) FetchStock(ctx context.Context, id snowflake.ID) (int, error) {
	var stock *int
	err := r.db.WithContext(ctx).
		Table("products").
		Select("stock_quantity").
		Where("id = ?", id.Int64()).
		Scan(&stock).Error
	if err != nil {
		return 0, err
	}
	if stock == nil {
		return 0, domain.ErrNotFound
	}
	return *stock, nil
}

func (r *repo) DecrementStockAtomic(ctx context.Context, id snowflake.ID, quantity int) error {
	var affected int64
	err := r.db.WithContext(ctx).
		Raw("SELECT decrement_stock(?, ?)", id.Int64(), quantity).
		Scan(&affected).Error
	if err != nil {
		// Procedure missing or backend error; caller decides on the fallback.
		return err
	}
	if affected == 0 {
		return domain.ErrStockConflict
	}
	return nil
}

func (r *repo) DecrementStockGuarded(ctx context.Context, id snowflake.ID, newStock, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE products SET stock_quantity = ?, updated_at = ? WHERE id = ? AND stock_quantity >= ?`,
		newStock,
		time.Now().UTC(),
		id.Int64(),
		quantity,
	)
	return res.RowsAffected, res.Error
}
