package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/observability/logger"
	productdomain "github.com/resqfood/resq/internal/product/domain"
	"go.uber.org/zap"
)

// errStockConflict reports that a decrement strategy ran to completion but
// found insufficient stock at write time.
var errStockConflict = errors.New("stock conflict")

// stockReserver is one strategy for reserving stock. observedStock is the
// value of the freshness read; strategies are free to ignore it.
type stockReserver interface {
	name() string
	reserve(ctx context.Context, productID snowflake.ID, quantity, observedStock int) error
}

// atomicReserver calls the server-side decrement procedure, one indivisible
// guarded update. This is the preferred strategy: it is the only one that
// gives real mutual exclusion between concurrent reservations.
type atomicReserver struct {
	stock productdomain.StockStore
}

func (r *atomicReserver) name() string { return "atomic" }

func (r *atomicReserver) reserve(ctx context.Context, productID snowflake.ID, quantity, _ int) error {
	err := r.stock.DecrementStockAtomic(ctx, productID, quantity)
	if errors.Is(err, productdomain.ErrStockConflict) {
		return errStockConflict
	}
	return err
}

// guardedReserver is the fallback when the procedure is unavailable: a
// conditional update whose guard re-checks sufficiency at write time.
// Zero affected rows is a concurrent-modification conflict.
type guardedReserver struct {
	stock productdomain.StockStore
}

func (r *guardedReserver) name() string { return "guarded" }

func (r *guardedReserver) reserve(ctx context.Context, productID snowflake.ID, quantity, observedStock int) error {
	affected, err := r.stock.DecrementStockGuarded(ctx, productID, observedStock-quantity, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		return errStockConflict
	}
	return nil
}

// reserveStock runs the strategy chain. The atomic strategy is authoritative
// on a stock conflict; only environment errors (procedure missing, backend
// error) fall through to the guarded strategy. Returns the name of the
// strategy that reserved stock.
func reserveStock(ctx context.Context, strategies []stockReserver, productID snowflake.ID, quantity, observedStock int) (string, error) {
	var lastErr error
	for i, strategy := range strategies {
		err := strategy.reserve(ctx, productID, quantity, observedStock)
		if err == nil {
			return strategy.name(), nil
		}
		if errors.Is(err, errStockConflict) {
			return "", err
		}
		lastErr = err
		if i < len(strategies)-1 {
			logger.FromContext(ctx).Warn("stock reservation strategy failed, falling back",
				zap.String("strategy", strategy.name()),
				zap.Error(err),
			)
		}
	}
	return "", lastErr
}
