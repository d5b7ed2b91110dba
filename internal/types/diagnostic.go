package types

import (
  "encoding/json"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

type DiagnosticStatus string

const (
  DiagnosticStatusPendingPayment DiagnosticStatus = "pending_payment"
  DiagnosticStatusPaid           DiagnosticStatus = "paid"
  DiagnosticStatusInProgress     DiagnosticStatus = "in_progress"
  DiagnosticStatusCompleted      DiagnosticStatus = "completed"
)

// Allowed lifecycle transitions. The lifecycle is monotonic: a diagnostic
// never moves back toward pending_payment.
var diagnosticTransitions = map[DiagnosticStatus]map[DiagnosticStatus]bool{
  DiagnosticStatusPendingPayment: {DiagnosticStatusPaid: true},
  DiagnosticStatusPaid:           {DiagnosticStatusInProgress: true},
  DiagnosticStatusInProgress:     {DiagnosticStatusCompleted: true},
}

func (s DiagnosticStatus) CanTransitionTo(next DiagnosticStatus) bool {
  return diagnosticTransitions[s][next]
}

type PaymentProvider string

const (
  PaymentProviderStripe  PaymentProvider = "stripe"
  PaymentProviderPawapay PaymentProvider = "pawapay"
)

func (p PaymentProvider) Valid() bool {
  return p == PaymentProviderStripe || p == PaymentProviderPawapay
}

type Diagnostic struct {
  ID                     uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID                 uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
  Status                 DiagnosticStatus `gorm:"not null;default:'pending_payment';index;column:status" json:"status"`
  PaymentProvider        PaymentProvider  `gorm:"column:payment_provider" json:"payment_provider"`
  PrimaryProfileID       *uuid.UUID       `gorm:"type:uuid;column:primary_profile_id" json:"primary_profile_id,omitempty"`
  ComplementaryProfileID *uuid.UUID       `gorm:"type:uuid;column:complementary_profile_id" json:"complementary_profile_id,omitempty"`
  ScoreData              datatypes.JSON   `gorm:"type:jsonb;column:score_data" json:"score_data"`
  PDFGenerated           bool             `gorm:"not null;default:false;column:pdf_generated" json:"pdf_generated"`
  ReportKey              string           `gorm:"column:report_key" json:"report_key,omitempty"`
  PaidAt                 *time.Time       `gorm:"column:paid_at" json:"paid_at,omitempty"`
  CompletedAt            *time.Time       `gorm:"column:completed_at" json:"completed_at,omitempty"`
  CreatedAt              time.Time        `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt              time.Time        `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt              gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (Diagnostic) TableName() string {
  return "diagnostic"
}

func (d *Diagnostic) Scores() (map[string]int, error) {
  scores := map[string]int{}
  if len(d.ScoreData) == 0 {
    return scores, nil
  }
  if err := json.Unmarshal(d.ScoreData, &scores); err != nil {
    return nil, err
  }
  return scores, nil
}
