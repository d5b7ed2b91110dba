package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/orienta-app/orienta-backend/internal/services"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps service errors onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
  var initiationErr *services.PaymentInitiationError
  switch {
  case errors.Is(err, services.ErrNotAuthenticated):
    RespondError(c, http.StatusUnauthorized, "unauthorized", err)
  case errors.Is(err, services.ErrDiagnosticNotFound), errors.Is(err, services.ErrPaymentNotFound):
    RespondError(c, http.StatusNotFound, "not_found", err)
  case errors.Is(err, services.ErrPaymentRequired):
    RespondError(c, http.StatusPaymentRequired, "payment_required", err)
  case errors.Is(err, services.ErrDiagnosticNotCompleted), errors.Is(err, services.ErrReportNotReady):
    RespondError(c, http.StatusConflict, "not_ready", err)
  case errors.Is(err, services.ErrInvalidBloc),
    errors.Is(err, services.ErrInvalidProvider),
    errors.Is(err, services.ErrMissingPhone),
    errors.Is(err, services.ErrUnknownOperator):
    RespondError(c, http.StatusBadRequest, "bad_request", err)
  case errors.As(err, &initiationErr):
    RespondError(c, http.StatusUnprocessableEntity, "payment_initiation_failed", err)
  default:
    RespondError(c, http.StatusInternalServerError, "internal", err)
  }
}
