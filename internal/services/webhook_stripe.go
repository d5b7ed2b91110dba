package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/clients/redis"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/sse"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// WebhookOutcome reports what a webhook delivery did. Skipped deliveries
// are normal: providers retry, and replays must not re-confirm.
type WebhookOutcome string

const (
  WebhookProcessed WebhookOutcome = "processed"
  WebhookSkipped   WebhookOutcome = "skipped"
)

const stripeCheckoutCompleted = "checkout.session.completed"

// StripeEvent is the subset of the webhook envelope the handler needs.
type StripeEvent struct {
  Type string `json:"type"`
  Data struct {
    Object struct {
      ID string `json:"id"`
    } `json:"object"`
  } `json:"data"`
}

// StripeWebhookService confirms card payments. Confirmation is a
// compare-and-set on the pending payment inside one transaction with the
// diagnostic flip, so concurrent deliveries of the same event settle to
// exactly one processed outcome.
type StripeWebhookService interface {
  Handle(ctx context.Context, event *StripeEvent) (WebhookOutcome, error)
}

type stripeWebhookService struct {
  log            *logger.Logger
  txRunner       TxRunner
  paymentRepo    repos.PaymentRepo
  diagnosticRepo repos.DiagnosticRepo
  hub            *sse.SSEHub
  bus            redis.PaymentBus
}

func NewStripeWebhookService(
  baseLog *logger.Logger,
  txRunner TxRunner,
  paymentRepo repos.PaymentRepo,
  diagnosticRepo repos.DiagnosticRepo,
  hub *sse.SSEHub,
  bus redis.PaymentBus,
) StripeWebhookService {
  return &stripeWebhookService{
    log:            baseLog.With("service", "StripeWebhookService"),
    txRunner:       txRunner,
    paymentRepo:    paymentRepo,
    diagnosticRepo: diagnosticRepo,
    hub:            hub,
    bus:            bus,
  }
}

func (s *stripeWebhookService) Handle(ctx context.Context, event *StripeEvent) (WebhookOutcome, error) {
  if event == nil || event.Type != stripeCheckoutCompleted {
    return WebhookSkipped, nil
  }
  sessionID := event.Data.Object.ID
  if sessionID == "" {
    return WebhookSkipped, nil
  }

  payment, err := s.paymentRepo.GetByProviderPaymentID(ctx, nil, types.PaymentProviderStripe, sessionID)
  if err != nil {
    return WebhookSkipped, err
  }
  if payment == nil {
    s.log.Warn("Webhook for unknown checkout session", "session_id", sessionID)
    return WebhookSkipped, nil
  }
  if payment.Confirmed() {
    return WebhookSkipped, nil
  }

  outcome, err := confirmPayment(ctx, s.txRunner, s.paymentRepo, s.diagnosticRepo, payment)
  if err != nil {
    return WebhookSkipped, err
  }
  if outcome == WebhookProcessed {
    s.log.Info("Stripe payment confirmed", "payment_id", payment.ID, "diagnostic_id", payment.DiagnosticID)
    publishUserEvent(ctx, s.log, s.hub, s.bus, payment.UserID, sse.SSEEventPaymentConfirmed, paymentEventData{
      DiagnosticID: payment.DiagnosticID,
      PaymentID:    payment.ID,
    })
  }
  return outcome, nil
}

// confirmPayment flips the pending payment to confirmed and the diagnostic
// to paid in one transaction. Returns skipped when another delivery won
// the compare-and-set.
func confirmPayment(ctx context.Context, txRunner TxRunner, paymentRepo repos.PaymentRepo, diagnosticRepo repos.DiagnosticRepo, payment *types.Payment) (WebhookOutcome, error) {
  outcome := WebhookSkipped
  err := txRunner.InTx(ctx, func(tx *gorm.DB) error {
    now := time.Now().UTC()
    won, err := paymentRepo.ConfirmIfPending(ctx, tx, payment.ID, now)
    if err != nil {
      return err
    }
    if !won {
      return nil
    }
    diagnostics, err := diagnosticRepo.GetByIDs(ctx, tx, []uuid.UUID{payment.DiagnosticID})
    if err != nil {
      return err
    }
    if len(diagnostics) == 0 {
      return fmt.Errorf("diagnostic %s not found", payment.DiagnosticID)
    }
    if !diagnostics[0].Status.CanTransitionTo(types.DiagnosticStatusPaid) {
      return fmt.Errorf("diagnostic %s cannot move from %s to paid", payment.DiagnosticID, diagnostics[0].Status)
    }
    if err := diagnosticRepo.UpdateFields(ctx, tx, payment.DiagnosticID, map[string]interface{}{
      "status":  types.DiagnosticStatusPaid,
      "paid_at": now,
    }); err != nil {
      return fmt.Errorf("failed to mark diagnostic paid: %w", err)
    }
    outcome = WebhookProcessed
    return nil
  })
  if err != nil {
    return WebhookSkipped, err
  }
  return outcome, nil
}
