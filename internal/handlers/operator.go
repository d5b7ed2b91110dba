package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/orienta-app/orienta-backend/internal/services"
)

type OperatorHandler struct {
  operatorSvc services.MobileOperatorService
}

func NewOperatorHandler(operatorSvc services.MobileOperatorService) *OperatorHandler {
  return &OperatorHandler{operatorSvc: operatorSvc}
}

// GET /api/operators
func (h *OperatorHandler) List(c *gin.Context) {
  ctx := c.Request.Context()
  grouped, countries, err := h.operatorSvc.ListActiveGrouped(ctx)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "operators": grouped,
    "countries": countries,
    "detected":  h.operatorSvc.DetectCountry(ctx),
  })
}
