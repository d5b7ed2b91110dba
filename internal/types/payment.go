package types

import (
  "time"
  "github.com/google/uuid"
)

type PaymentStatus string

const (
  PaymentStatusPending   PaymentStatus = "pending"
  PaymentStatusConfirmed PaymentStatus = "confirmed"
  PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is one-to-one with a Diagnostic. It is created by a payment
// adapter and mutated only by the matching webhook handler.
type Payment struct {
  ID                 uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID             uuid.UUID       `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
  DiagnosticID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex;column:diagnostic_id" json:"diagnostic_id"`
  Provider           PaymentProvider `gorm:"not null;column:provider" json:"provider"`
  AmountCents        int             `gorm:"not null;default:0;column:amount_cents" json:"amount_cents"`
  Currency           string          `gorm:"not null;default:'XOF';column:currency" json:"currency"`
  Status             PaymentStatus   `gorm:"not null;default:'pending';index;column:status" json:"status"`
  ProviderPaymentID  string          `gorm:"column:provider_payment_id" json:"provider_payment_id"`
  WebhookConfirmedAt *time.Time      `gorm:"column:webhook_confirmed_at" json:"webhook_confirmed_at,omitempty"`
  CreatedAt          time.Time       `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt          time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (Payment) TableName() string {
  return "payment"
}

func (p *Payment) Confirmed() bool {
  return p.Status == PaymentStatusConfirmed
}
