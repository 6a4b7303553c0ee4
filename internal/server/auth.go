package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/resqfood/resq/internal/auth/domain"
	"github.com/resqfood/resq/internal/authcontext"
	"github.com/resqfood/resq/internal/observability/logger"
	profiledomain "github.com/resqfood/resq/internal/profile/domain"
	"go.uber.org/zap"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account and its profile. The two inserts are not
// transactional across services, so a failed profile insert deletes the
// just-created account, the same compensation shape the reservation
// workflow uses.
func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := authcontext.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = authcontext.RoleConsumer
	}
	if !role.Valid() {
		AbortWithError(c, newValidationError("role", "invalid_role", "role must be consumer or partner"))
		return
	}

	account, err := s.authsvc.CreateAccount(c.Request.Context(), authdomain.CreateAccountRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	prof, err := s.profilesvc.Create(c.Request.Context(), profiledomain.CreateRequest{
		AccountID: account.ID,
		FullName:  req.FullName,
		Role:      role,
	})
	if err != nil {
		if derr := s.authsvc.DeleteAccount(c.Request.Context(), account.ID); derr != nil {
			logger.FromContext(c.Request.Context()).Error("compensating account delete failed",
				zap.Int64("account_id", account.ID.Int64()),
				zap.Error(derr),
			)
		}
		AbortWithError(c, err)
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusCreated, gin.H{
		"account_id": account.ID.String(),
		"email":      account.Email,
		"profile":    prof,
	})
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusOK, gin.H{
		"account_id": result.Account.ID.String(),
		"email":      result.Account.Email,
		"expires_at": result.ExpiresAt,
	})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	accountID, ok := authcontext.AccountIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	prof, err := s.profilesvc.Get(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": accountID.String(),
		"profile":    prof,
	})
}
