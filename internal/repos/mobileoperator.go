package repos

import (
  "context"
  "strings"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/orienta-app/orienta-backend/internal/logger"
  "github.com/orienta-app/orienta-backend/internal/types"
)

type MobileOperatorRepo interface {
  Create(ctx context.Context, tx *gorm.DB, operators []*types.MobileOperator) ([]*types.MobileOperator, error)
  GetActive(ctx context.Context, tx *gorm.DB) ([]*types.MobileOperator, error)
  GetActiveByCode(ctx context.Context, tx *gorm.DB, code string) (*types.MobileOperator, error)
}

type mobileOperatorRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMobileOperatorRepo(db *gorm.DB, baseLog *logger.Logger) MobileOperatorRepo {
  repoLog := baseLog.With("repo", "MobileOperatorRepo")
  return &mobileOperatorRepo{db: db, log: repoLog}
}

func (r *mobileOperatorRepo) Create(ctx context.Context, tx *gorm.DB, operators []*types.MobileOperator) ([]*types.MobileOperator, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(operators) == 0 {
    return []*types.MobileOperator{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&operators).Error; err != nil {
    return nil, err
  }
  return operators, nil
}

func (r *mobileOperatorRepo) GetActive(ctx context.Context, tx *gorm.DB) ([]*types.MobileOperator, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.MobileOperator
  if err := transaction.WithContext(ctx).
    Where("active = ?", true).
    Order("country_code ASC, name ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *mobileOperatorRepo) GetActiveByCode(ctx context.Context, tx *gorm.DB, code string) (*types.MobileOperator, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  code = strings.TrimSpace(code)
  if code == "" {
    return nil, nil
  }

  var operator types.MobileOperator
  err := transaction.WithContext(ctx).
    Where("code = ? AND active = ?", code, true).
    Limit(1).
    Find(&operator).Error
  if err != nil {
    return nil, err
  }
  if operator.ID == uuid.Nil {
    return nil, nil
  }
  return &operator, nil
}
