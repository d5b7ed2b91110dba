package services

import (
  "context"
  "strconv"
  "strings"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// PawapayDepositService starts a mobile money deposit for a diagnostic.
// Pawapay answers the initiation synchronously with ACCEPTED or a
// rejection; the actual payment outcome arrives later on the webhook.
type PawapayDepositService interface {
  Initiate(ctx context.Context, diagnostic *types.Diagnostic, phoneNumber, operatorCode string) (*InitiationResult, error)
}

type pawapayDepositService struct {
  log          *logger.Logger
  cfg          PaymentConfig
  client       PawapayClient
  paymentRepo  repos.PaymentRepo
  operatorRepo repos.MobileOperatorRepo
}

func NewPawapayDepositService(
  baseLog *logger.Logger,
  cfg PaymentConfig,
  client PawapayClient,
  paymentRepo repos.PaymentRepo,
  operatorRepo repos.MobileOperatorRepo,
) PawapayDepositService {
  return &pawapayDepositService{
    log:          baseLog.With("service", "PawapayDepositService"),
    cfg:          cfg,
    client:       client,
    paymentRepo:  paymentRepo,
    operatorRepo: operatorRepo,
  }
}

func (s *pawapayDepositService) Initiate(ctx context.Context, diagnostic *types.Diagnostic, phoneNumber, operatorCode string) (*InitiationResult, error) {
  phoneNumber = strings.TrimSpace(phoneNumber)
  if phoneNumber == "" {
    return nil, ErrMissingPhone
  }

  operator, err := s.operatorRepo.GetActiveByCode(ctx, nil, operatorCode)
  if err != nil {
    return nil, err
  }
  if operator == nil {
    return nil, ErrUnknownOperator
  }

  depositID := uuid.New().String()
  result, err := s.client.CreateDeposit(ctx, PawapayDepositRequest{
    DepositID:            depositID,
    Amount:               strconv.Itoa(s.cfg.AmountMinorUnits),
    Currency:             s.cfg.Currency,
    Correspondent:        operator.Code,
    PhoneNumber:          phoneNumber,
    StatementDescription: s.cfg.ProductLabel,
  })
  if err != nil {
    s.log.Warn("Pawapay deposit initiation failed", "diagnostic_id", diagnostic.ID, "error", err)
    return &InitiationResult{Success: false, Reason: err.Error()}, nil
  }

  if result.StatusCode != 201 || result.Status != "ACCEPTED" {
    reason := result.RejectionReason
    if reason == "" {
      reason = result.Message
    }
    if reason == "" {
      reason = "deposit rejected"
    }
    s.log.Warn("Pawapay deposit rejected",
      "diagnostic_id", diagnostic.ID,
      "status_code", result.StatusCode,
      "status", result.Status,
      "reason", reason)
    return &InitiationResult{Success: false, Reason: reason}, nil
  }

  // Pawapay normally echoes the depositId; fall back to ours if it does not.
  providerID := result.DepositID
  if providerID == "" {
    providerID = depositID
  }

  payment := &types.Payment{
    ID:                uuid.New(),
    UserID:            diagnostic.UserID,
    DiagnosticID:      diagnostic.ID,
    Provider:          types.PaymentProviderPawapay,
    AmountCents:       s.cfg.AmountMinorUnits,
    Currency:          s.cfg.Currency,
    Status:            types.PaymentStatusPending,
    ProviderPaymentID: providerID,
  }
  if _, err := s.paymentRepo.Create(ctx, nil, []*types.Payment{payment}); err != nil {
    return nil, err
  }

  s.log.Info("Pawapay deposit accepted", "diagnostic_id", diagnostic.ID, "deposit_id", providerID)
  return &InitiationResult{
    Success:   true,
    DepositID: providerID,
    PaymentID: payment.ID,
  }, nil
}
