package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/resqfood/resq/internal/observability/logger"
	orderdomain "github.com/resqfood/resq/internal/order/domain"
	"go.uber.org/zap"
)

type ReserveRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RedeemRequest struct {
	PickupCode string `json:"pickup_code"`
}

// Reserve creates an order and decrements stock. The pickup code is only
// ever returned after both steps succeeded.
func (s *Server) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ordersvc.Reserve(c.Request.Context(), orderdomain.ReserveRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListOrders(c *gin.Context) {
	items, err := s.ordersvc.History(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": items})
}

func (s *Server) CancelOrder(c *gin.Context) {
	if err := s.ordersvc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Redeem completes a pending order by pickup code. A short Redis lock on
// the code serializes two staff terminals scanning the same code; the
// guarded status update stays the real protection when the lock is
// unavailable.
func (s *Server) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	code := strings.TrimSpace(req.PickupCode)
	if code == "" {
		AbortWithError(c, newValidationError("pickup_code", "required", "pickup code is required"))
		return
	}

	if s.redeemLimiter.Enabled() {
		token, locked, err := s.redeemLimiter.TryLockCode(c.Request.Context(), code)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("redeem code lock failed", zap.Error(err))
		} else if !locked {
			AbortWithError(c, ErrConflict)
			return
		} else {
			defer func() {
				if rerr := s.redeemLimiter.ReleaseCode(c.Request.Context(), code, token); rerr != nil {
					logger.FromContext(c.Request.Context()).Warn("redeem code unlock failed", zap.Error(rerr))
				}
			}()
		}
	}

	resp, err := s.ordersvc.Redeem(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListStoreOrders(c *gin.Context) {
	items, err := s.ordersvc.StoreOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": items})
}
