package services

import (
  "context"

  "github.com/orienta-app/orienta-backend/internal/clients/redis"
  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/sse"
  "github.com/orienta-app/orienta-backend/internal/types"
)

const (
  pawapayStatusCompleted = "COMPLETED"
  pawapayStatusFailed    = "FAILED"
)

// PawapayCallback is the deposit status callback body.
type PawapayCallback struct {
  DepositID string `json:"depositId"`
  Status    string `json:"status"`
}

// PawapayWebhookService settles mobile money deposits. A COMPLETED deposit
// confirms the payment and queues report generation; a FAILED one marks
// the payment failed and leaves the diagnostic awaiting payment.
type PawapayWebhookService interface {
  Handle(ctx context.Context, callback *PawapayCallback) (WebhookOutcome, error)
}

type pawapayWebhookService struct {
  log            *logger.Logger
  txRunner       TxRunner
  paymentRepo    repos.PaymentRepo
  diagnosticRepo repos.DiagnosticRepo
  reportGen      ReportGenerationService
  hub            *sse.SSEHub
  bus            redis.PaymentBus
}

func NewPawapayWebhookService(
  baseLog *logger.Logger,
  txRunner TxRunner,
  paymentRepo repos.PaymentRepo,
  diagnosticRepo repos.DiagnosticRepo,
  reportGen ReportGenerationService,
  hub *sse.SSEHub,
  bus redis.PaymentBus,
) PawapayWebhookService {
  return &pawapayWebhookService{
    log:            baseLog.With("service", "PawapayWebhookService"),
    txRunner:       txRunner,
    paymentRepo:    paymentRepo,
    diagnosticRepo: diagnosticRepo,
    reportGen:      reportGen,
    hub:            hub,
    bus:            bus,
  }
}

func (s *pawapayWebhookService) Handle(ctx context.Context, callback *PawapayCallback) (WebhookOutcome, error) {
  if callback == nil || callback.DepositID == "" {
    return WebhookSkipped, nil
  }

  payment, err := s.paymentRepo.GetByProviderPaymentID(ctx, nil, types.PaymentProviderPawapay, callback.DepositID)
  if err != nil {
    return WebhookSkipped, err
  }
  if payment == nil {
    s.log.Warn("Webhook for unknown deposit", "deposit_id", callback.DepositID)
    return WebhookSkipped, nil
  }

  switch callback.Status {
  case pawapayStatusCompleted:
    return s.handleCompleted(ctx, payment)
  case pawapayStatusFailed:
    return s.handleFailed(ctx, payment)
  default:
    s.log.Debug("Ignoring deposit status", "deposit_id", callback.DepositID, "status", callback.Status)
    return WebhookSkipped, nil
  }
}

func (s *pawapayWebhookService) handleCompleted(ctx context.Context, payment *types.Payment) (WebhookOutcome, error) {
  if payment.Confirmed() {
    return WebhookSkipped, nil
  }

  outcome, err := confirmPayment(ctx, s.txRunner, s.paymentRepo, s.diagnosticRepo, payment)
  if err != nil {
    return WebhookSkipped, err
  }
  if outcome != WebhookProcessed {
    return outcome, nil
  }

  s.log.Info("Pawapay deposit confirmed", "payment_id", payment.ID, "diagnostic_id", payment.DiagnosticID)
  if s.reportGen != nil {
    if _, err := s.reportGen.Enqueue(ctx, payment.UserID, payment.DiagnosticID); err != nil {
      // Confirmation already committed; report generation can be retried
      // from the results page.
      s.log.Error("Failed to enqueue report run", "diagnostic_id", payment.DiagnosticID, "error", err)
    }
  }
  publishUserEvent(ctx, s.log, s.hub, s.bus, payment.UserID, sse.SSEEventPaymentConfirmed, paymentEventData{
    DiagnosticID: payment.DiagnosticID,
    PaymentID:    payment.ID,
  })
  return WebhookProcessed, nil
}

func (s *pawapayWebhookService) handleFailed(ctx context.Context, payment *types.Payment) (WebhookOutcome, error) {
  // The guard and the transition are one statement so a COMPLETED delivery
  // landing after our snapshot read cannot be overwritten.
  failed, err := s.paymentRepo.FailIfPending(ctx, nil, payment.ID)
  if err != nil {
    return WebhookSkipped, err
  }
  if !failed {
    return WebhookSkipped, nil
  }

  s.log.Info("Pawapay deposit failed", "payment_id", payment.ID, "diagnostic_id", payment.DiagnosticID)
  publishUserEvent(ctx, s.log, s.hub, s.bus, payment.UserID, sse.SSEEventPaymentFailed, paymentEventData{
    DiagnosticID: payment.DiagnosticID,
    PaymentID:    payment.ID,
  })
  return WebhookProcessed, nil
}
