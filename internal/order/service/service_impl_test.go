package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/authcontext"
	"github.com/resqfood/resq/internal/order/domain"
	productdomain "github.com/resqfood/resq/internal/product/domain"
	storedomain "github.com/resqfood/resq/internal/store/domain"
	"go.uber.org/zap"
)

type orderRepoStub struct {
	mu         sync.Mutex
	orders     map[snowflake.ID]*domain.Order
	failCreate error
	failDelete error
}

func newOrderRepoStub() *orderRepoStub {
	return &orderRepoStub{orders: map[snowflake.ID]*domain.Order{}}
}

func (r *orderRepoStub) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *orderRepoStub) Delete(_ context.Context, id snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return r.failDelete
	}
	delete(r.orders, id)
	return nil
}

func (r *orderRepoStub) FindByID(_ context.Context, id snowflake.ID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *orderRepoStub) FindByPickupCode(_ context.Context, code string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Order
	for _, order := range r.orders {
		if order.PickupCode != code {
			continue
		}
		if order.Status == domain.StatusPending {
			cp := *order
			return &cp, nil
		}
		if latest == nil {
			latest = order
		}
	}
	if latest == nil {
		return nil, domain.ErrCodeNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *orderRepoStub) MarkCompleted(_ context.Context, id snowflake.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != domain.StatusPending {
		return 0, nil
	}
	now := time.Now().UTC()
	order.Status = domain.StatusCompleted
	order.RedeemedAt = &now
	return 1, nil
}

func (r *orderRepoStub) MarkCancelled(_ context.Context, id snowflake.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != domain.StatusPending {
		return 0, nil
	}
	order.Status = domain.StatusCancelled
	return 1, nil
}

func (r *orderRepoStub) ListByConsumer(_ context.Context, consumerID snowflake.ID) ([]domain.HistoryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []domain.HistoryRow
	for _, order := range r.orders {
		if order.ConsumerID == consumerID {
			rows = append(rows, domain.HistoryRow{Order: *order})
		}
	}
	return rows, nil
}

func (r *orderRepoStub) ListByStore(_ context.Context, storeID snowflake.ID) ([]domain.HistoryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []domain.HistoryRow
	for _, order := range r.orders {
		if order.StoreID == storeID {
			rows = append(rows, domain.HistoryRow{Order: *order})
		}
	}
	return rows, nil
}

func (r *orderRepoStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// productRepoStub keeps a single product's stock behind a mutex so the
// decrement paths behave like the guarded server-side writes.
type productRepoStub struct {
	mu      sync.Mutex
	product productdomain.Product
	stock   int

	// staleStock, when set, is what FetchStock reports regardless of the
	// real stock. Used to force write-time conflicts.
	staleStock *int
	// atomicUnavailable simulates the decrement procedure missing.
	atomicUnavailable error
	fetchErr          error
}

func (p *productRepoStub) Create(context.Context, *productdomain.Product) error { return nil }

func (p *productRepoStub) FindByID(_ context.Context, id snowflake.ID) (*productdomain.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id != p.product.ID {
		return nil, productdomain.ErrNotFound
	}
	cp := p.product
	cp.StockQuantity = p.stock
	return &cp, nil
}

func (p *productRepoStub) ListActive(context.Context, time.Time, productdomain.ListFilter) ([]productdomain.Listing, error) {
	return nil, nil
}

func (p *productRepoStub) Delete(context.Context, snowflake.ID) error { return nil }

func (p *productRepoStub) FetchStock(_ context.Context, id snowflake.ID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fetchErr != nil {
		return 0, p.fetchErr
	}
	if id != p.product.ID {
		return 0, productdomain.ErrNotFound
	}
	if p.staleStock != nil {
		return *p.staleStock, nil
	}
	return p.stock, nil
}

func (p *productRepoStub) DecrementStockAtomic(_ context.Context, id snowflake.ID, quantity int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.atomicUnavailable != nil {
		return p.atomicUnavailable
	}
	if id != p.product.ID || p.stock < quantity {
		return productdomain.ErrStockConflict
	}
	p.stock -= quantity
	return nil
}

func (p *productRepoStub) DecrementStockGuarded(_ context.Context, id snowflake.ID, newStock, quantity int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id != p.product.ID || p.stock < quantity {
		return 0, nil
	}
	p.stock = newStock
	return 1, nil
}

func (p *productRepoStub) currentStock() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stock
}

type storeRepoStub struct {
	stores map[snowflake.ID]*storedomain.Store
}

func (s *storeRepoStub) Create(context.Context, *storedomain.Store) error { return nil }

func (s *storeRepoStub) FindByID(_ context.Context, id snowflake.ID) (*storedomain.Store, error) {
	store, ok := s.stores[id]
	if !ok {
		return nil, storedomain.ErrNotFound
	}
	return store, nil
}

func (s *storeRepoStub) FindByOwner(context.Context, snowflake.ID) ([]storedomain.Store, error) {
	return nil, nil
}

func (s *storeRepoStub) FindAll(context.Context) ([]storedomain.Store, error) { return nil, nil }

func (s *storeRepoStub) OwnsStore(_ context.Context, ownerID, storeID snowflake.ID) (bool, error) {
	store, ok := s.stores[storeID]
	return ok && store.OwnerID == ownerID, nil
}

type fixture struct {
	svc      domain.Service
	orders   *orderRepoStub
	products *productRepoStub
	node     *snowflake.Node

	consumerID snowflake.ID
	partnerID  snowflake.ID
	productID  snowflake.ID
	storeID    snowflake.ID
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	consumerID := node.Generate()
	partnerID := node.Generate()
	storeID := node.Generate()
	productID := node.Generate()

	products := &productRepoStub{
		product: productdomain.Product{
			ID:            productID,
			StoreID:       storeID,
			Title:         "Surprise box",
			OriginalPrice: 25000,
			DiscountPrice: 10000,
			ExpiryDate:    time.Now().Add(12 * time.Hour),
		},
		stock: stock,
	}
	stores := &storeRepoStub{stores: map[snowflake.ID]*storedomain.Store{
		storeID: {ID: storeID, OwnerID: partnerID, Name: "Demo Bakery"},
	}}
	orders := newOrderRepoStub()

	svc := New(Params{
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     orders,
		Products: products,
		Stores:   stores,
	})

	return &fixture{
		svc:        svc,
		orders:     orders,
		products:   products,
		node:       node,
		consumerID: consumerID,
		partnerID:  partnerID,
		productID:  productID,
		storeID:    storeID,
	}
}

func (f *fixture) consumerCtx() context.Context {
	return authcontext.WithAccountID(context.Background(), f.consumerID)
}

func (f *fixture) partnerCtx() context.Context {
	return authcontext.WithAccountID(context.Background(), f.partnerID)
}

var pickupCodePattern = regexp.MustCompile(`^\d{6}$`)

func TestReserveHappyPath(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if !pickupCodePattern.MatchString(resp.PickupCode) {
		t.Fatalf("expected 6-digit pickup code, got %q", resp.PickupCode)
	}
	if resp.TotalPrice != 20000 {
		t.Fatalf("expected total price 20000, got %d", resp.TotalPrice)
	}
	if resp.Status != domain.StatusPending {
		t.Fatalf("expected pending status, got %s", resp.Status)
	}
	if got := f.products.currentStock(); got != 1 {
		t.Fatalf("expected stock 1 after reserve, got %d", got)
	}
	if f.orders.count() != 1 {
		t.Fatalf("expected 1 order, got %d", f.orders.count())
	}
}

func TestReservePreconditions(t *testing.T) {
	f := newFixture(t, 3)

	if _, err := f.svc.Reserve(context.Background(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	}); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	for _, quantity := range []int{0, -1, 6} {
		if _, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
			ProductID: f.productID.String(),
			Quantity:  quantity,
		}); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", quantity, err)
		}
	}

	if _, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: "not-a-number",
		Quantity:  1,
	}); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	if f.orders.count() != 0 {
		t.Fatalf("precondition failures must not create orders, got %d", f.orders.count())
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  2,
	})

	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Available != 1 {
		t.Fatalf("expected available 1, got %d", insufficient.Available)
	}
	if f.orders.count() != 0 {
		t.Fatalf("insufficient stock must not create orders, got %d", f.orders.count())
	}
	if got := f.products.currentStock(); got != 1 {
		t.Fatalf("stock must be untouched, got %d", got)
	}
}

func TestReserveStockCheckFailed(t *testing.T) {
	f := newFixture(t, 3)
	f.products.fetchErr = errors.New("backend down")

	_, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})
	if !errors.Is(err, domain.ErrStockCheckFailed) {
		t.Fatalf("expected ErrStockCheckFailed, got %v", err)
	}
	if f.orders.count() != 0 {
		t.Fatalf("failed stock check must not create orders, got %d", f.orders.count())
	}
}

func TestReserveOrderCreationFailed(t *testing.T) {
	f := newFixture(t, 3)
	f.orders.failCreate = errors.New("insert failed")

	_, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})
	if !errors.Is(err, domain.ErrOrderCreationFailed) {
		t.Fatalf("expected ErrOrderCreationFailed, got %v", err)
	}
	if got := f.products.currentStock(); got != 3 {
		t.Fatalf("stock must be untouched when order insert fails, got %d", got)
	}
}

func TestReserveFallsBackToGuardedUpdate(t *testing.T) {
	f := newFixture(t, 3)
	f.products.atomicUnavailable = errors.New("function decrement_stock does not exist")

	resp, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("reserve via fallback: %v", err)
	}
	if resp.Status != domain.StatusPending {
		t.Fatalf("expected pending order, got %s", resp.Status)
	}
	if got := f.products.currentStock(); got != 1 {
		t.Fatalf("expected stock 1 after guarded update, got %d", got)
	}
}

func TestReserveConflictCompensates(t *testing.T) {
	f := newFixture(t, 0)
	stale := 5
	f.products.staleStock = &stale

	_, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  2,
	})

	var failed *domain.StockReservationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected StockReservationFailedError, got %v", err)
	}
	if f.orders.count() != 0 {
		t.Fatalf("order must be compensated away, got %d orders", f.orders.count())
	}
	if got := f.products.currentStock(); got != 0 {
		t.Fatalf("stock must stay 0, got %d", got)
	}
}

func TestReserveGuardedConflictCompensates(t *testing.T) {
	f := newFixture(t, 0)
	stale := 5
	f.products.staleStock = &stale
	f.products.atomicUnavailable = errors.New("procedure missing")

	_, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  2,
	})

	var failed *domain.StockReservationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected StockReservationFailedError, got %v", err)
	}
	if f.orders.count() != 0 {
		t.Fatalf("order must be compensated away, got %d orders", f.orders.count())
	}
}

func TestReserveCompensationDeleteFailureSurfacesOriginalError(t *testing.T) {
	f := newFixture(t, 0)
	stale := 5
	f.products.staleStock = &stale
	f.orders.failDelete = errors.New("delete failed")

	_, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})

	var failed *domain.StockReservationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected StockReservationFailedError even when delete fails, got %v", err)
	}
	// The documented orphan: a pending order the delete could not remove.
	if f.orders.count() != 1 {
		t.Fatalf("expected 1 orphan order, got %d", f.orders.count())
	}
}

func TestReserveConcurrentLastUnit(t *testing.T) {
	const contenders = 8
	f := newFixture(t, 1)

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
				ProductID: f.productID.String(),
				Quantity:  1,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficient *domain.InsufficientStockError
		var failed *domain.StockReservationFailedError
		if !errors.As(err, &insufficient) && !errors.As(err, &failed) {
			t.Fatalf("unexpected failure kind: %v", err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly 1 success, got %d", successes)
	}
	if got := f.products.currentStock(); got != 0 {
		t.Fatalf("expected final stock 0, got %d", got)
	}
	if f.orders.count() != 1 {
		t.Fatalf("expected exactly 1 order, got %d", f.orders.count())
	}
}

func TestRedeemLifecycle(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	summary, err := f.svc.Redeem(f.partnerCtx(), resp.PickupCode)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if summary.ProductTitle != "Surprise box" {
		t.Fatalf("expected product title in summary, got %q", summary.ProductTitle)
	}
	if summary.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", summary.Quantity)
	}

	if _, err := f.svc.Redeem(f.partnerCtx(), resp.PickupCode); !errors.Is(err, domain.ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed on second redeem, got %v", err)
	}
}

func TestRedeemAuthorization(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if _, err := f.svc.Redeem(context.Background(), resp.PickupCode); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	otherStaff := authcontext.WithAccountID(context.Background(), f.node.Generate())
	if _, err := f.svc.Redeem(otherStaff, resp.PickupCode); !errors.Is(err, domain.ErrNotAuthorizedForStore) {
		t.Fatalf("expected ErrNotAuthorizedForStore, got %v", err)
	}

	if _, err := f.svc.Redeem(f.partnerCtx(), "000000"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestRedeemCancelledOrder(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := f.svc.Cancel(f.consumerCtx(), resp.OrderID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.svc.Redeem(f.partnerCtx(), resp.PickupCode); !errors.Is(err, domain.ErrOrderCancelled) {
		t.Fatalf("expected ErrOrderCancelled, got %v", err)
	}
}

func TestCancelTransitions(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	stranger := authcontext.WithAccountID(context.Background(), f.node.Generate())
	if err := f.svc.Cancel(stranger, resp.OrderID); !errors.Is(err, domain.ErrNotOrderOwner) {
		t.Fatalf("expected ErrNotOrderOwner, got %v", err)
	}

	if err := f.svc.Cancel(f.consumerCtx(), resp.OrderID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.svc.Cancel(f.consumerCtx(), resp.OrderID); !errors.Is(err, domain.ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable on second cancel, got %v", err)
	}

	// Completed orders are terminal too.
	second, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := f.svc.Redeem(f.partnerCtx(), second.PickupCode); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := f.svc.Cancel(f.consumerCtx(), second.OrderID); !errors.Is(err, domain.ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable after redemption, got %v", err)
	}
}

func TestHistoryScopedToCaller(t *testing.T) {
	f := newFixture(t, 5)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
			ProductID: f.productID.String(),
			Quantity:  1,
		}); err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
	}

	items, err := f.svc.History(f.consumerCtx())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 history items, got %d", len(items))
	}

	other := authcontext.WithAccountID(context.Background(), f.node.Generate())
	items, err = f.svc.History(other)
	if err != nil {
		t.Fatalf("history other: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty history for stranger, got %d", len(items))
	}
}

func TestStoreOrdersAuthorization(t *testing.T) {
	f := newFixture(t, 5)

	if _, err := f.svc.Reserve(f.consumerCtx(), domain.ReserveRequest{
		ProductID: f.productID.String(),
		Quantity:  1,
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	items, err := f.svc.StoreOrders(f.partnerCtx(), f.storeID.String())
	if err != nil {
		t.Fatalf("store orders: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 store order, got %d", len(items))
	}

	stranger := authcontext.WithAccountID(context.Background(), f.node.Generate())
	if _, err := f.svc.StoreOrders(stranger, f.storeID.String()); !errors.Is(err, domain.ErrNotAuthorizedForStore) {
		t.Fatalf("expected ErrNotAuthorizedForStore, got %v", err)
	}
}

func TestReserveEndToEndScenario(t *testing.T) {
	// Stock 3, discount 10000: one caller takes 2, a second concurrent
	// caller also wants 2; exactly one succeeds.
	f := newFixture(t, 3)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ctx := authcontext.WithAccountID(context.Background(), f.node.Generate())
			resp, err := f.svc.Reserve(ctx, domain.ReserveRequest{
				ProductID: f.productID.String(),
				Quantity:  2,
			})
			if err == nil && resp.TotalPrice != 20000 {
				err = fmt.Errorf("unexpected total price %d", resp.TotalPrice)
			}
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficient *domain.InsufficientStockError
		var failed *domain.StockReservationFailedError
		if errors.As(err, &insufficient) || errors.As(err, &failed) {
			conflicts++
			continue
		}
		t.Fatalf("unexpected error: %v", err)
	}

	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected 1 success and 1 conflict, got %d/%d", successes, conflicts)
	}
	if got := f.products.currentStock(); got != 1 {
		t.Fatalf("expected final stock 1, got %d", got)
	}
	if f.orders.count() != 1 {
		t.Fatalf("expected 1 lingering order, got %d", f.orders.count())
	}
}
