package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type DiagnosticRepo interface {
  Create(ctx context.Context, tx *gorm.DB, diagnostics []*types.Diagnostic) ([]*types.Diagnostic, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, diagnosticIDs []uuid.UUID) ([]*types.Diagnostic, error)
  GetByIDForUser(ctx context.Context, tx *gorm.DB, diagnosticID, userID uuid.UUID) (*types.Diagnostic, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
  FullDeleteByIDs(ctx context.Context, tx *gorm.DB, diagnosticIDs []uuid.UUID) error
}

type diagnosticRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDiagnosticRepo(db *gorm.DB, baseLog *logger.Logger) DiagnosticRepo {
  repoLog := baseLog.With("repo", "DiagnosticRepo")
  return &diagnosticRepo{db: db, log: repoLog}
}

func (r *diagnosticRepo) Create(ctx context.Context, tx *gorm.DB, diagnostics []*types.Diagnostic) ([]*types.Diagnostic, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(diagnostics) == 0 {
    return []*types.Diagnostic{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&diagnostics).Error; err != nil {
    return nil, err
  }
  return diagnostics, nil
}

func (r *diagnosticRepo) GetByIDs(ctx context.Context, tx *gorm.DB, diagnosticIDs []uuid.UUID) ([]*types.Diagnostic, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Diagnostic
  if len(diagnosticIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", diagnosticIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *diagnosticRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, diagnosticID, userID uuid.UUID) (*types.Diagnostic, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if diagnosticID == uuid.Nil || userID == uuid.Nil {
    return nil, nil
  }

  var diagnostic types.Diagnostic
  err := transaction.WithContext(ctx).
    Where("id = ? AND user_id = ?", diagnosticID, userID).
    Limit(1).
    Find(&diagnostic).Error
  if err != nil {
    return nil, err
  }
  if diagnostic.ID == uuid.Nil {
    return nil, nil
  }
  return &diagnostic, nil
}

func (r *diagnosticRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
    Model(&types.Diagnostic{}).
    Where("id = ?", id).
    Updates(updates).Error
}

func (r *diagnosticRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, diagnosticIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(diagnosticIDs) == 0 {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("id IN ?", diagnosticIDs).
    Delete(&types.Diagnostic{}).Error; err != nil {
    return err
  }
  return nil
}
