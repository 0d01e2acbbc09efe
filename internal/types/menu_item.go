package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MenuItem is a sellable dish. Name and Description are translatable.
type MenuItem struct {
	gorm.Model
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;column:category_id;index" json:"category_id,omitempty"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Description string     `gorm:"column:description;type:text" json:"description"`
	PriceCents  int64      `gorm:"column:price_cents;not null;default:0" json:"price_cents"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (MenuItem) TableName() string {
	return "menu_item"
}
