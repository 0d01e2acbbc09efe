package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TranslationMetadata records the detected source language for one translatable
// entity. There is exactly one row per (entity_type, entity_id).
type TranslationMetadata struct {
	gorm.Model
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntityType     string    `gorm:"column:entity_type;not null;uniqueIndex:idx_translation_metadata_entity" json:"entity_type"`
	EntityID       uuid.UUID `gorm:"type:uuid;column:entity_id;not null;uniqueIndex:idx_translation_metadata_entity" json:"entity_id"`
	SourceLanguage string    `gorm:"column:source_language;not null" json:"source_language"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TranslationMetadata) TableName() string {
	return "translation_metadata"
}
