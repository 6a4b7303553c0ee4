package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/resqfood/resq/internal/product/domain"
	"gorm.io/gorm"
)

func setupRepo(t *testing.T) (domain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	schema := []string{
		`CREATE TABLE stores (
			id BIGINT PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE products (
			id BIGINT PRIMARY KEY,
			store_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			original_price BIGINT NOT NULL,
			discount_price BIGINT NOT NULL,
			stock_quantity INTEGER NOT NULL,
			expiry_date DATETIME NOT NULL,
			co2_saved DOUBLE PRECISION NOT NULL DEFAULT 0,
			image_url TEXT,
			metadata JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return Provide(db), db, node
}

func seedStore(t *testing.T, db *gorm.DB, node *snowflake.Node) snowflake.ID {
	t.Helper()
	storeID := node.Generate()
	if err := db.Exec(
		`INSERT INTO stores (id, owner_id, name, address, latitude, longitude) VALUES (?, ?, ?, ?, ?, ?)`,
		storeID.Int64(), node.Generate().Int64(), "Demo Bakery", "Main St 1", -6.2, 106.8,
	).Error; err != nil {
		t.Fatalf("insert store: %v", err)
	}
	return storeID
}

func seedProduct(t *testing.T, repo domain.Repository, node *snowflake.Node, storeID snowflake.ID, stock int, expiry time.Time) *domain.Product {
	t.Helper()
	now := time.Now().UTC()
	product := &domain.Product{
		ID:            node.Generate(),
		StoreID:       storeID,
		Title:         "Surprise box",
		OriginalPrice: 25000,
		DiscountPrice: 10000,
		StockQuantity: stock,
		ExpiryDate:    expiry,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(context.Background(), product); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func TestFetchStock(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	storeID := seedStore(t, db, node)
	product := seedProduct(t, repo, node, storeID, 7, time.Now().Add(12*time.Hour))

	stock, err := repo.FetchStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("fetch stock: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock 7, got %d", stock)
	}

	if _, err := repo.FetchStock(ctx, node.Generate()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing product, got %v", err)
	}
}

func TestDecrementStockGuarded(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	storeID := seedStore(t, db, node)
	product := seedProduct(t, repo, node, storeID, 3, time.Now().Add(12*time.Hour))

	affected, err := repo.DecrementStockGuarded(ctx, product.ID, 1, 2)
	if err != nil {
		t.Fatalf("guarded decrement: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}

	stock, err := repo.FetchStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("fetch stock: %v", err)
	}
	if stock != 1 {
		t.Fatalf("expected stock 1 after decrement, got %d", stock)
	}

	// The guard re-checks sufficiency at write time: asking for more than
	// remains must touch zero rows and leave stock alone.
	affected, err = repo.DecrementStockGuarded(ctx, product.ID, -1, 2)
	if err != nil {
		t.Fatalf("guarded decrement conflict: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 affected rows on conflict, got %d", affected)
	}
	stock, err = repo.FetchStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("fetch stock: %v", err)
	}
	if stock != 1 {
		t.Fatalf("stock must be unchanged after conflict, got %d", stock)
	}
}

func TestDecrementStockAtomicUnavailableOnSQLite(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	storeID := seedStore(t, db, node)
	product := seedProduct(t, repo, node, storeID, 3, time.Now().Add(12*time.Hour))

	// sqlite has no decrement_stock function; the error is the signal that
	// sends callers down the guarded-update fallback.
	err := repo.DecrementStockAtomic(ctx, product.ID, 1)
	if err == nil {
		t.Fatal("expected error from missing decrement_stock procedure")
	}
	if errors.Is(err, domain.ErrStockConflict) {
		t.Fatalf("environment error must not look like a stock conflict: %v", err)
	}

	stock, ferr := repo.FetchStock(ctx, product.ID)
	if ferr != nil {
		t.Fatalf("fetch stock: %v", ferr)
	}
	if stock != 3 {
		t.Fatalf("stock must be unchanged, got %d", stock)
	}
}

func TestListActiveFiltersExpiredAndSoldOut(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	storeID := seedStore(t, db, node)
	active := seedProduct(t, repo, node, storeID, 3, now.Add(12*time.Hour))
	expired := seedProduct(t, repo, node, storeID, 3, now.Add(-time.Hour))
	soldOut := seedProduct(t, repo, node, storeID, 0, now.Add(12*time.Hour))

	items, err := repo.ListActive(ctx, now, domain.ListFilter{})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 active listing, got %d", len(items))
	}
	if items[0].ID != active.ID {
		t.Fatalf("expected active product %d, got %d", active.ID, items[0].ID)
	}
	if items[0].StoreName != "Demo Bakery" {
		t.Fatalf("expected joined store name, got %q", items[0].StoreName)
	}

	items, err = repo.ListActive(ctx, now, domain.ListFilter{IncludeExpired: true, IncludeSoldOut: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(items))
	}
	_ = expired
	_ = soldOut
}

func TestDeleteProduct(t *testing.T) {
	repo, db, node := setupRepo(t)
	ctx := context.Background()

	storeID := seedStore(t, db, node)
	product := seedProduct(t, repo, node, storeID, 3, time.Now().Add(12*time.Hour))

	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, product.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
