package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupportedLanguage is the global language catalog. At most one row may carry
// IsDefault at a time; the default row cannot be deactivated.
type SupportedLanguage struct {
	gorm.Model
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code       string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	NativeName string    `gorm:"column:native_name" json:"native_name"`
	RTL        bool      `gorm:"column:rtl;not null;default:false" json:"rtl"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SupportedLanguage) TableName() string {
	return "supported_language"
}
