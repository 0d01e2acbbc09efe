package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/types"
)

type TranslationRepo interface {
	// Upsert is idempotent on (metadata_id, language_code, field_name). On
	// conflict it replaces translated_text, is_ai_generated, last_updated_by
	// and updated_at without creating a second row.
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Translation) error
	Get(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode, fieldName string) (*types.Translation, error)
	GetByMetadataID(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID) ([]*types.Translation, error)
	GetByMetadataAndLanguage(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode string) ([]*types.Translation, error)
	HasLanguage(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode string) (bool, error)
	FullDeleteByMetadataIDs(ctx context.Context, tx *gorm.DB, metadataIDs []uuid.UUID) error
}

type translationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranslationRepo(db *gorm.DB, baseLog *logger.Logger) TranslationRepo {
	return &translationRepo{
		db:  db,
		log: baseLog.With("repo", "TranslationRepo"),
	}
}

func (r *translationRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Translation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.MetadataID == uuid.Nil || row.LanguageCode == "" || row.FieldName == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "metadata_id"}, {Name: "language_code"}, {Name: "field_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"translated_text",
				"is_ai_generated",
				"last_updated_by",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *translationRepo) Get(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode, fieldName string) (*types.Translation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if metadataID == uuid.Nil || languageCode == "" || fieldName == "" {
		return nil, nil
	}
	var row types.Translation
	err := transaction.WithContext(ctx).
		Where("metadata_id = ? AND language_code = ? AND field_name = ?", metadataID, languageCode, fieldName).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *translationRepo) GetByMetadataID(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID) ([]*types.Translation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Translation
	if metadataID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("metadata_id = ?", metadataID).
		Order("field_name ASC, language_code ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *translationRepo) GetByMetadataAndLanguage(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode string) ([]*types.Translation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Translation
	if metadataID == uuid.Nil || languageCode == "" {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("metadata_id = ? AND language_code = ?", metadataID, languageCode).
		Order("field_name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *translationRepo) HasLanguage(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if metadataID == uuid.Nil || languageCode == "" {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Translation{}).
		Where("metadata_id = ? AND language_code = ?", metadataID, languageCode).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *translationRepo) FullDeleteByMetadataIDs(ctx context.Context, tx *gorm.DB, metadataIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(metadataIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Unscoped().
		Where("metadata_id IN (?)", metadataIDs).
		Delete(&types.Translation{}).Error
}
