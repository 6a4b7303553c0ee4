package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/authcontext"
	"github.com/resqfood/resq/internal/observability/logger"
	"github.com/resqfood/resq/internal/observability/metrics"
	"github.com/resqfood/resq/internal/order/domain"
	productdomain "github.com/resqfood/resq/internal/product/domain"
	storedomain "github.com/resqfood/resq/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxReserveQuantity caps a single reservation. The sufficiency check
// against live stock applies on top of it.
const maxReserveQuantity = 5

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Products productdomain.Repository
	Stores   storedomain.Repository
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	products   productdomain.Repository
	stores     storedomain.Repository
	metrics    *metrics.Metrics
	strategies []stockReserver
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		products: p.Products,
		stores:   p.Stores,
		metrics:  p.Metrics,
		strategies: []stockReserver{
			&atomicReserver{stock: p.Products},
			&guardedReserver{stock: p.Products},
		},
	}
}

// Reserve runs the reservation workflow: freshness read, sufficiency check,
// pickup code, order insert, guarded stock decrement, and a compensating
// order delete when the decrement fails. Step order matters: the order row
// is created before the decrement, so a late failure only ever leaves an
// order without stock, which the compensation removes. The inverse ordering
// would leave stock decremented with no order.
func (s *Service) Reserve(ctx context.Context, req domain.ReserveRequest) (*domain.ReserveResponse, error) {
	consumerID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	if req.Quantity < 1 || req.Quantity > maxReserveQuantity {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, productdomain.ErrNotFound) {
			return nil, domain.ErrStockCheckFailed
		}
		logger.FromContext(ctx).Error("product lookup failed", zap.Error(err))
		return nil, domain.ErrStockCheckFailed
	}

	// Freshness read. Advisory only: the decrement guard re-checks
	// sufficiency at write time.
	available, err := s.products.FetchStock(ctx, productID)
	if err != nil {
		logger.FromContext(ctx).Error("stock check failed",
			zap.Int64("product_id", productID.Int64()),
			zap.Error(err),
		)
		s.recordFailure(ctx, "stock_check")
		return nil, domain.ErrStockCheckFailed
	}
	if available < req.Quantity {
		s.recordFailure(ctx, "insufficient_stock")
		return nil, &domain.InsufficientStockError{Available: available}
	}

	order := &domain.Order{
		ID:         s.genID.Generate(),
		ConsumerID: consumerID,
		ProductID:  productID,
		StoreID:    product.StoreID,
		Quantity:   req.Quantity,
		TotalPrice: int64(req.Quantity) * product.DiscountPrice,
		PickupCode: newPickupCode(),
		Status:     domain.StatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		logger.FromContext(ctx).Error("order insert failed",
			zap.Int64("product_id", productID.Int64()),
			zap.Error(err),
		)
		s.recordFailure(ctx, "order_creation")
		return nil, domain.ErrOrderCreationFailed
	}

	strategy, err := reserveStock(ctx, s.strategies, productID, req.Quantity, available)
	if err != nil {
		if errors.Is(err, errStockConflict) && s.metrics != nil {
			s.metrics.RecordStockConflict(ctx)
		}
		s.compensate(ctx, order.ID)
		s.recordFailure(ctx, "stock_reservation")
		return nil, &domain.StockReservationFailedError{Reason: reservationReason(err)}
	}

	if s.metrics != nil {
		s.metrics.RecordReservation(ctx, strategy)
	}
	logger.FromContext(ctx).Info("reservation confirmed",
		zap.Int64("order_id", order.ID.Int64()),
		zap.Int64("product_id", productID.Int64()),
		zap.Int("quantity", req.Quantity),
		zap.String("strategy", strategy),
	)

	return &domain.ReserveResponse{
		OrderID:    order.ID.String(),
		PickupCode: order.PickupCode,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
	}, nil
}

// compensate deletes the order created earlier in the same invocation.
// Best effort: a failed delete leaves an orphan pending order for
// out-of-band cleanup and is logged, never retried.
func (s *Service) compensate(ctx context.Context, orderID snowflake.ID) {
	if err := s.repo.Delete(ctx, orderID); err != nil {
		logger.FromContext(ctx).Error("compensating order delete failed, orphan pending order remains",
			zap.Int64("order_id", orderID.Int64()),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordCompensation(ctx, "failed")
		}
		return
	}
	if s.metrics != nil {
		s.metrics.RecordCompensation(ctx, "ok")
	}
}

func (s *Service) Redeem(ctx context.Context, pickupCode string) (*domain.RedeemResponse, error) {
	staffID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}

	code := strings.TrimSpace(pickupCode)
	if code == "" {
		return nil, domain.ErrCodeNotFound
	}
	order, err := s.repo.FindByPickupCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			s.recordRedemption(ctx, "code_not_found")
		}
		return nil, err
	}

	owns, err := s.stores.OwnsStore(ctx, staffID, order.StoreID)
	if err != nil {
		return nil, err
	}
	if !owns {
		// Do not leak order details to staff of other stores.
		s.recordRedemption(ctx, "not_authorized")
		return nil, domain.ErrNotAuthorizedForStore
	}

	switch order.Status {
	case domain.StatusCompleted:
		s.recordRedemption(ctx, "already_redeemed")
		return nil, domain.ErrAlreadyRedeemed
	case domain.StatusCancelled:
		s.recordRedemption(ctx, "cancelled")
		return nil, domain.ErrOrderCancelled
	}

	affected, err := s.repo.MarkCompleted(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost the race against a concurrent redemption or cancellation.
		current, ferr := s.repo.FindByID(ctx, order.ID)
		if ferr == nil && current.Status == domain.StatusCancelled {
			s.recordRedemption(ctx, "cancelled")
			return nil, domain.ErrOrderCancelled
		}
		s.recordRedemption(ctx, "already_redeemed")
		return nil, domain.ErrAlreadyRedeemed
	}

	resp := &domain.RedeemResponse{
		OrderID:  order.ID.String(),
		Quantity: order.Quantity,
	}
	if product, perr := s.products.FindByID(ctx, order.ProductID); perr == nil {
		resp.ProductTitle = product.Title
	}
	if store, serr := s.stores.FindByID(ctx, order.StoreID); serr == nil {
		resp.StoreName = store.Name
	}

	s.recordRedemption(ctx, "completed")
	logger.FromContext(ctx).Info("order redeemed",
		zap.Int64("order_id", order.ID.Int64()),
		zap.Int64("store_id", order.StoreID.Int64()),
	)
	return resp, nil
}

func (s *Service) Cancel(ctx context.Context, orderID string) error {
	consumerID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return domain.ErrNotAuthenticated
	}
	id, err := snowflake.ParseString(strings.TrimSpace(orderID))
	if err != nil {
		return domain.ErrInvalidID
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if order.ConsumerID != consumerID {
		return domain.ErrNotOrderOwner
	}
	if order.Status.Terminal() {
		return domain.ErrNotCancelable
	}

	affected, err := s.repo.MarkCancelled(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotCancelable
	}
	return nil
}

func (s *Service) History(ctx context.Context) ([]domain.HistoryItem, error) {
	consumerID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	rows, err := s.repo.ListByConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	return toHistoryItems(rows), nil
}

func (s *Service) StoreOrders(ctx context.Context, storeID string) ([]domain.HistoryItem, error) {
	staffID, ok := authcontext.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	id, err := snowflake.ParseString(strings.TrimSpace(storeID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	owns, err := s.stores.OwnsStore(ctx, staffID, id)
	if err != nil {
		return nil, err
	}
	if !owns {
		return nil, domain.ErrNotAuthorizedForStore
	}

	rows, err := s.repo.ListByStore(ctx, id)
	if err != nil {
		return nil, err
	}
	return toHistoryItems(rows), nil
}

func (s *Service) recordFailure(ctx context.Context, kind string) {
	if s.metrics != nil {
		s.metrics.RecordReservationFailure(ctx, kind)
	}
}

func (s *Service) recordRedemption(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRedemption(ctx, outcome)
	}
}

func reservationReason(err error) string {
	if errors.Is(err, errStockConflict) {
		return "insufficient stock at write time"
	}
	return err.Error()
}

func toHistoryItems(rows []domain.HistoryRow) []domain.HistoryItem {
	items := make([]domain.HistoryItem, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		items = append(items, domain.HistoryItem{
			ID:           row.ID.String(),
			ProductID:    row.ProductID.String(),
			ProductTitle: row.ProductTitle,
			ProductImage: row.ProductImage,
			StoreName:    row.StoreName,
			StoreAddress: row.StoreAddress,
			Quantity:     row.Quantity,
			TotalPrice:   row.TotalPrice,
			PickupCode:   row.PickupCode,
			Status:       row.Status,
			RedeemedAt:   row.RedeemedAt,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items
}
