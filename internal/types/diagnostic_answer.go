package types

import (
  "time"
  "github.com/google/uuid"
)

// DiagnosticAnswer persists the selected option at submission time. Points
// and dimension are copied from the option so later question edits never
// change historical scoring.
type DiagnosticAnswer struct {
  ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  DiagnosticID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_diagnostic_question;column:diagnostic_id" json:"diagnostic_id"`
  QuestionID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_answer_diagnostic_question;column:question_id" json:"question_id"`
  AnswerValue      string    `gorm:"column:answer_value" json:"answer_value"`
  ProfileDimension string    `gorm:"column:profile_dimension" json:"profile_dimension"`
  PointsAwarded    int       `gorm:"not null;default:0;column:points_awarded" json:"points_awarded"`
  CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt        time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DiagnosticAnswer) TableName() string {
  return "diagnostic_answer"
}
