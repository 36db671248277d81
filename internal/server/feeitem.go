package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	feeitemdomain "github.com/shulepay/shulepay/internal/feeitem/domain"
)

func (s *Server) CreateFeeItem(c *gin.Context) {
	var req feeitemdomain.CreateFeeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	created, err := s.feeItemSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (s *Server) ListFeeItems(c *gin.Context) {
	resp, err := s.feeItemSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.FeeItems})
}
