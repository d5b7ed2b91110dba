package types

import (
  "time"
  "github.com/google/uuid"
)

// Trajectory holds the three career-path axes shown in the generated report.
type Trajectory struct {
  ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  ProfileID uuid.UUID `gorm:"type:uuid;not null;index;column:profile_id" json:"profile_id"`
  Axe1      string    `gorm:"column:axe_1" json:"axe_1"`
  Axe2      string    `gorm:"column:axe_2" json:"axe_2"`
  Axe3      string    `gorm:"column:axe_3" json:"axe_3"`
  Active    bool      `gorm:"not null;default:true;column:active" json:"active"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Trajectory) TableName() string {
  return "trajectory"
}
