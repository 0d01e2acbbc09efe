package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Translation holds one translated field value. Rows are unique on
// (metadata_id, language_code, field_name); upserts replace the text in place.
// IsAIGenerated is false for human edits, and LastUpdatedBy is only set for
// human edits.
type Translation struct {
	gorm.Model
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MetadataID     uuid.UUID  `gorm:"type:uuid;column:metadata_id;not null;uniqueIndex:idx_translation_key;index" json:"metadata_id"`
	LanguageCode   string     `gorm:"column:language_code;not null;uniqueIndex:idx_translation_key" json:"language_code"`
	FieldName      string     `gorm:"column:field_name;not null;uniqueIndex:idx_translation_key" json:"field_name"`
	TranslatedText string     `gorm:"column:translated_text;type:text;not null" json:"translated_text"`
	IsAIGenerated  bool       `gorm:"column:is_ai_generated;not null;default:true" json:"is_ai_generated"`
	LastUpdatedBy  *uuid.UUID `gorm:"type:uuid;column:last_updated_by" json:"last_updated_by,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Translation) TableName() string {
	return "translation"
}
