package types

import (
  "encoding/json"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// Profile is a candidate outcome of scoring. The slug doubles as the scoring
// dimension key that answers accumulate points toward.
type Profile struct {
  ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Name         string         `gorm:"not null;column:name" json:"name"`
  Slug         string         `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
  Description  string         `gorm:"column:description" json:"description"`
  KeySkills    datatypes.JSON `gorm:"type:jsonb;column:key_skills" json:"key_skills"`
  FirstAction  string         `gorm:"column:first_action" json:"first_action"`
  PremiumPitch string         `gorm:"column:premium_pitch" json:"premium_pitch"`
  CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Profile) TableName() string {
  return "profile"
}

func (p *Profile) KeySkillList() []string {
  var skills []string
  if len(p.KeySkills) == 0 {
    return skills
  }
  if err := json.Unmarshal(p.KeySkills, &skills); err != nil {
    return nil
  }
  return skills
}
