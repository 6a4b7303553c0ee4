package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	storedomain "github.com/resqfood/resq/internal/store/domain"
)

func (s *Server) RegisterStore(c *gin.Context) {
	var req storedomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.storesvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListStores(c *gin.Context) {
	items, err := s.storesvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": items})
}

func (s *Server) ListOwnStores(c *gin.Context) {
	items, err := s.storesvc.ListOwn(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": items})
}

func (s *Server) GetStore(c *gin.Context) {
	resp, err := s.storesvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
