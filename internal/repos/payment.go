package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type PaymentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, payments []*types.Payment) ([]*types.Payment, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, paymentIDs []uuid.UUID) ([]*types.Payment, error)
  GetByDiagnosticID(ctx context.Context, tx *gorm.DB, diagnosticID uuid.UUID) (*types.Payment, error)
  GetByProviderPaymentID(ctx context.Context, tx *gorm.DB, provider types.PaymentProvider, providerPaymentID string) (*types.Payment, error)
  // ConfirmIfPending atomically flips a pending payment to confirmed and
  // stamps webhook_confirmed_at. It reports false when the payment was
  // already confirmed or failed, so concurrent webhook replays cannot both
  // apply the transition.
  ConfirmIfPending(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, confirmedAt time.Time) (bool, error)
  // FailIfPending atomically flips a pending payment to failed. A payment
  // already confirmed keeps its status and the call reports false.
  FailIfPending(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID) (bool, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type paymentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPaymentRepo(db *gorm.DB, baseLog *logger.Logger) PaymentRepo {
  repoLog := baseLog.With("repo", "PaymentRepo")
  return &paymentRepo{db: db, log: repoLog}
}

func (r *paymentRepo) Create(ctx context.Context, tx *gorm.DB, payments []*types.Payment) ([]*types.Payment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(payments) == 0 {
    return []*types.Payment{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&payments).Error; err != nil {
    return nil, err
  }
  return payments, nil
}

func (r *paymentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, paymentIDs []uuid.UUID) ([]*types.Payment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Payment
  if len(paymentIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", paymentIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *paymentRepo) GetByDiagnosticID(ctx context.Context, tx *gorm.DB, diagnosticID uuid.UUID) (*types.Payment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if diagnosticID == uuid.Nil {
    return nil, nil
  }

  var payment types.Payment
  err := transaction.WithContext(ctx).
    Where("diagnostic_id = ?", diagnosticID).
    Limit(1).
    Find(&payment).Error
  if err != nil {
    return nil, err
  }
  if payment.ID == uuid.Nil {
    return nil, nil
  }
  return &payment, nil
}

func (r *paymentRepo) GetByProviderPaymentID(ctx context.Context, tx *gorm.DB, provider types.PaymentProvider, providerPaymentID string) (*types.Payment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if providerPaymentID == "" {
    return nil, nil
  }

  var payment types.Payment
  err := transaction.WithContext(ctx).
    Where("provider_payment_id = ? AND provider = ?", providerPaymentID, provider).
    Limit(1).
    Find(&payment).Error
  if err != nil {
    return nil, err
  }
  if payment.ID == uuid.Nil {
    return nil, nil
  }
  return &payment, nil
}

func (r *paymentRepo) ConfirmIfPending(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID, confirmedAt time.Time) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if paymentID == uuid.Nil {
    return false, nil
  }

  res := transaction.WithContext(ctx).
    Model(&types.Payment{}).
    Where("id = ? AND status = ?", paymentID, types.PaymentStatusPending).
    Updates(map[string]interface{}{
      "status":               types.PaymentStatusConfirmed,
      "webhook_confirmed_at": confirmedAt,
      "updated_at":           confirmedAt,
    })
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected > 0, nil
}

func (r *paymentRepo) FailIfPending(ctx context.Context, tx *gorm.DB, paymentID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if paymentID == uuid.Nil {
    return false, nil
  }

  res := transaction.WithContext(ctx).
    Model(&types.Payment{}).
    Where("id = ? AND status = ?", paymentID, types.PaymentStatusPending).
    Updates(map[string]interface{}{
      "status":     types.PaymentStatusFailed,
      "updated_at": time.Now(),
    })
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected > 0, nil
}

func (r *paymentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  if updates == nil {
    updates = map[string]interface{}{}
  }
  if _, ok := updates["updated_at"]; !ok {
    updates["updated_at"] = time.Now()
  }
  return transaction.WithContext(ctx).
    Model(&types.Payment{}).
    Where("id = ?", id).
    Updates(updates).Error
}
