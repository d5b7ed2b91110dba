package handlers

import (
  "encoding/json"
  "net/http"
  "time"

  "github.com/gin-gonic/gin"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/services"
  "github.com/orienta-app/orienta-backend/internal/utils"
)

const stripeSignatureTolerance = 5 * time.Minute

// WebhookHandler terminates provider callbacks. Replies are 200 even for
// skipped deliveries so providers stop retrying; only a processing failure
// asks for a retry.
type WebhookHandler struct {
  log                 *logger.Logger
  stripeSvc           services.StripeWebhookService
  pawapaySvc          services.PawapayWebhookService
  stripeWebhookSecret string
}

func NewWebhookHandler(log *logger.Logger, stripeSvc services.StripeWebhookService, pawapaySvc services.PawapayWebhookService) *WebhookHandler {
  handlerLog := log.With("handler", "WebhookHandler")
  return &WebhookHandler{
    log:                 handlerLog,
    stripeSvc:           stripeSvc,
    pawapaySvc:          pawapaySvc,
    stripeWebhookSecret: utils.GetEnv("STRIPE_WEBHOOK_SECRET", "", handlerLog),
  }
}

// POST /webhooks/stripe
func (h *WebhookHandler) Stripe(c *gin.Context) {
  payload, err := c.GetRawData()
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  if h.stripeWebhookSecret != "" {
    sig := c.GetHeader("Stripe-Signature")
    if err := services.VerifyStripeSignature(payload, sig, h.stripeWebhookSecret, stripeSignatureTolerance); err != nil {
      h.log.Warn("Stripe webhook signature rejected", "error", err)
      RespondError(c, http.StatusBadRequest, "bad_signature", err)
      return
    }
  }

  var event services.StripeEvent
  if err := json.Unmarshal(payload, &event); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  outcome, err := h.stripeSvc.Handle(c.Request.Context(), &event)
  if err != nil {
    h.log.Error("Stripe webhook processing failed", "error", err)
    RespondError(c, http.StatusInternalServerError, "internal", err)
    return
  }
  RespondOK(c, gin.H{"outcome": outcome})
}

// POST /webhooks/pawapay
func (h *WebhookHandler) Pawapay(c *gin.Context) {
  var callback services.PawapayCallback
  if err := c.ShouldBindJSON(&callback); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", err)
    return
  }

  outcome, err := h.pawapaySvc.Handle(c.Request.Context(), &callback)
  if err != nil {
    h.log.Error("Pawapay webhook processing failed", "error", err)
    RespondError(c, http.StatusInternalServerError, "internal", err)
    return
  }
  RespondOK(c, gin.H{"outcome": outcome})
}
