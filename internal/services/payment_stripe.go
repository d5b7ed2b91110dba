package services

import (
  "context"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// PaymentConfig carries the price point a payment adapter charges for a
// diagnostic. Amounts are in the provider's minor unit.
type PaymentConfig struct {
  AmountMinorUnits int
  Currency         string
  ProductLabel     string
}

// InitiationResult is the outcome of a checkout initiation. Provider
// refusals are reported here rather than as errors so the caller can roll
// back the diagnostic and surface the reason.
type InitiationResult struct {
  Success     bool      `json:"success"`
  RedirectURL string    `json:"redirect_url,omitempty"`
  DepositID   string    `json:"deposit_id,omitempty"`
  PaymentID   uuid.UUID `json:"payment_id,omitempty"`
  Reason      string    `json:"reason,omitempty"`
}

// StripeCheckoutService starts a hosted card checkout for a diagnostic and
// records the pending payment keyed by the checkout session id.
type StripeCheckoutService interface {
  Initiate(ctx context.Context, diagnostic *types.Diagnostic, successURL, cancelURL string) (*InitiationResult, error)
}

type stripeCheckoutService struct {
  log         *logger.Logger
  cfg         PaymentConfig
  client      StripeClient
  paymentRepo repos.PaymentRepo
  userRepo    repos.UserRepo
}

func NewStripeCheckoutService(
  baseLog *logger.Logger,
  cfg PaymentConfig,
  client StripeClient,
  paymentRepo repos.PaymentRepo,
  userRepo repos.UserRepo,
) StripeCheckoutService {
  return &stripeCheckoutService{
    log:         baseLog.With("service", "StripeCheckoutService"),
    cfg:         cfg,
    client:      client,
    paymentRepo: paymentRepo,
    userRepo:    userRepo,
  }
}

func (s *stripeCheckoutService) Initiate(ctx context.Context, diagnostic *types.Diagnostic, successURL, cancelURL string) (*InitiationResult, error) {
  email := ""
  users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{diagnostic.UserID})
  if err == nil && len(users) > 0 {
    email = users[0].Email
  }

  session, err := s.client.CreateCheckoutSession(ctx, StripeCheckoutParams{
    ClientReferenceID: diagnostic.ID.String(),
    CustomerEmail:     email,
    SuccessURL:        successURL,
    CancelURL:         cancelURL,
    Currency:          s.cfg.Currency,
    UnitAmount:        s.cfg.AmountMinorUnits,
    ProductName:       s.cfg.ProductLabel,
  })
  if err != nil {
    s.log.Warn("Stripe checkout initiation failed", "diagnostic_id", diagnostic.ID, "error", err)
    return &InitiationResult{Success: false, Reason: err.Error()}, nil
  }

  payment := &types.Payment{
    ID:                uuid.New(),
    UserID:            diagnostic.UserID,
    DiagnosticID:      diagnostic.ID,
    Provider:          types.PaymentProviderStripe,
    AmountCents:       s.cfg.AmountMinorUnits,
    Currency:          s.cfg.Currency,
    Status:            types.PaymentStatusPending,
    ProviderPaymentID: session.ID,
  }
  if _, err := s.paymentRepo.Create(ctx, nil, []*types.Payment{payment}); err != nil {
    return nil, err
  }

  s.log.Info("Stripe checkout session created", "diagnostic_id", diagnostic.ID, "session_id", session.ID)
  return &InitiationResult{
    Success:     true,
    RedirectURL: session.URL,
    PaymentID:   payment.ID,
  }, nil
}
