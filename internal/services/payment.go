package services

import (
  "context"

  "github.com/google/uuid"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/repos"
  "github.com/orienta-app/orienta-backend/internal/requestdata"
  "github.com/orienta-app/orienta-backend/internal/types"
)

// PaymentService exposes read access to the caller's own payments, used by
// the frontend to poll while waiting for a mobile money confirmation.
type PaymentService interface {
  GetStatus(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error)
  GetStatusByDiagnostic(ctx context.Context, diagnosticID uuid.UUID) (*types.Payment, error)
}

type paymentService struct {
  log         *logger.Logger
  paymentRepo repos.PaymentRepo
}

func NewPaymentService(baseLog *logger.Logger, paymentRepo repos.PaymentRepo) PaymentService {
  return &paymentService{
    log:         baseLog.With("service", "PaymentService"),
    paymentRepo: paymentRepo,
  }
}

func (s *paymentService) GetStatus(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, ErrNotAuthenticated
  }

  payments, err := s.paymentRepo.GetByIDs(ctx, nil, []uuid.UUID{paymentID})
  if err != nil {
    return nil, err
  }
  if len(payments) == 0 || payments[0].UserID != rd.UserID {
    return nil, ErrPaymentNotFound
  }
  return payments[0], nil
}

func (s *paymentService) GetStatusByDiagnostic(ctx context.Context, diagnosticID uuid.UUID) (*types.Payment, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, ErrNotAuthenticated
  }

  payment, err := s.paymentRepo.GetByDiagnosticID(ctx, nil, diagnosticID)
  if err != nil {
    return nil, err
  }
  if payment == nil || payment.UserID != rd.UserID {
    return nil, ErrPaymentNotFound
  }
  return payment, nil
}
