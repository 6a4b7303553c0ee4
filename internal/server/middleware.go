package server

import (
	"github.com/gin-gonic/gin"
	"github.com/resqfood/resq/internal/authcontext"
	"github.com/resqfood/resq/internal/observability/logger"
	"go.uber.org/zap"
)

// AuthRequired resolves the session cookie to an account and loads its
// profile role into the request context. Handlers and services downstream
// read identity exclusively through authcontext.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := authcontext.WithAccountID(c.Request.Context(), sess.AccountID)
		if prof, perr := s.profilesvc.Get(ctx, sess.AccountID); perr == nil {
			ctx = authcontext.WithRole(ctx, prof.Role)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// PartnerRequired gates partner-only routes. Must run after AuthRequired.
func (s *Server) PartnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := authcontext.RoleFromContext(c.Request.Context())
		if !ok || role != authcontext.RolePartner {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RedeemRateLimit throttles redemption attempts per partner account. Pickup
// codes are guessable 6-digit numbers, so attempts are bounded when Redis
// is configured; without Redis the limiter is a no-op.
func (s *Server) RedeemRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.redeemLimiter.Enabled() {
			c.Next()
			return
		}

		accountID, ok := authcontext.AccountIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		allowed, err := s.redeemLimiter.AllowAccount(c.Request.Context(), accountID.String())
		if err != nil {
			// Redis being down must not take redemption down with it.
			logger.FromContext(c.Request.Context()).Warn("redeem rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
