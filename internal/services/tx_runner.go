package services

import (
  "context"

  "gorm.io/gorm"
)

// TxRunner abstracts gorm transactions so services can be exercised in
// tests with fake repositories and a passthrough runner.
type TxRunner interface {
  InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
  db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
  return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
  return r.db.WithContext(ctx).Transaction(fn)
}
