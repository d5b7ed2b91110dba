package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/services"
)

type PaymentHandler struct {
  paymentSvc services.PaymentService
}

func NewPaymentHandler(paymentSvc services.PaymentService) *PaymentHandler {
  return &PaymentHandler{paymentSvc: paymentSvc}
}

// GET /api/payments/:id
func (h *PaymentHandler) GetStatus(c *gin.Context) {
  paymentID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  payment, err := h.paymentSvc.GetStatus(c.Request.Context(), paymentID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"payment": payment})
}

// GET /api/diagnostics/:id/payment
func (h *PaymentHandler) GetStatusByDiagnostic(c *gin.Context) {
  diagnosticID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  payment, err := h.paymentSvc.GetStatusByDiagnostic(c.Request.Context(), diagnosticID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"payment": payment})
}
