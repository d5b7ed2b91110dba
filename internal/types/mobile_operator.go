package types

import (
  "time"
  "github.com/google/uuid"
)

type MobileOperator struct {
  ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Name        string    `gorm:"not null;column:name" json:"name"`
  Code        string    `gorm:"not null;uniqueIndex:idx_operator_code_country;column:code" json:"code"`
  CountryCode string    `gorm:"not null;uniqueIndex:idx_operator_code_country;index;column:country_code" json:"country_code"`
  LogoURL     string    `gorm:"column:logo_url" json:"logo_url"`
  Active      bool      `gorm:"not null;default:true;column:active" json:"active"`
  CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (MobileOperator) TableName() string {
  return "mobile_operator"
}
