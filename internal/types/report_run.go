package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
)

// ReportRun tracks one asynchronous report generation attempt for a
// diagnostic. Pawapay confirmations enqueue a run; the worker claims it.
type ReportRun struct {
  ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
  DiagnosticID uuid.UUID      `gorm:"type:uuid;not null;index;column:diagnostic_id" json:"diagnostic_id"`
  Status       string         `gorm:"column:status;not null;index" json:"status"` // queued|running|succeeded|failed
  Attempts     int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
  Error        string         `gorm:"column:error" json:"error"`
  LastErrorAt  *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
  LockedAt     *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
  HeartbeatAt  *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
  CreatedAt    time.Time      `gorm:"not null;default:now();index" json:"created_at"`
  UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReportRun) TableName() string { return "report_run" }
