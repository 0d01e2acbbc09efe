package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantLanguage marks a catalog language as enabled for one tenant. The
// enabled set determines the translation targets for that tenant's entities.
type TenantLanguage struct {
	gorm.Model
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID     uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;uniqueIndex:idx_tenant_language_key" json:"tenant_id"`
	LanguageCode string    `gorm:"column:language_code;not null;uniqueIndex:idx_tenant_language_key" json:"language_code"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TenantLanguage) TableName() string {
	return "tenant_language"
}
