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

type TranslationMetadataRepo interface {
	// CreateOrGet is idempotent: a second call for the same (entityType,
	// entityID) returns the existing row unchanged. The source language is
	// recorded on first creation only.
	CreateOrGet(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID, sourceLanguage string) (*types.TranslationMetadata, error)
	GetByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) (*types.TranslationMetadata, error)
	// DeleteByEntity removes the metadata row and every owned translation row
	// in one transaction.
	DeleteByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) error
}

type translationMetadataRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranslationMetadataRepo(db *gorm.DB, baseLog *logger.Logger) TranslationMetadataRepo {
	return &translationMetadataRepo{
		db:  db,
		log: baseLog.With("repo", "TranslationMetadataRepo"),
	}
}

func (r *translationMetadataRepo) CreateOrGet(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID, sourceLanguage string) (*types.TranslationMetadata, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entityType == "" || entityID == uuid.Nil {
		return nil, nil
	}

	now := time.Now().UTC()
	row := &types.TranslationMetadata{
		ID:             uuid.New(),
		EntityType:     entityType,
		EntityID:       entityID,
		SourceLanguage: sourceLanguage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_type"}, {Name: "entity_id"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	// Re-read so the conflict path returns the canonical row, not the
	// attempted insert.
	return r.GetByEntity(ctx, transaction, entityType, entityID)
}

func (r *translationMetadataRepo) GetByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) (*types.TranslationMetadata, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entityType == "" || entityID == uuid.Nil {
		return nil, nil
	}
	var row types.TranslationMetadata
	err := transaction.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
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

func (r *translationMetadataRepo) DeleteByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entityType == "" || entityID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var row types.TranslationMetadata
		if err := txx.
			Where("entity_type = ? AND entity_id = ?", entityType, entityID).
			Limit(1).
			Find(&row).Error; err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return nil
		}
		if err := txx.Unscoped().
			Where("metadata_id = ?", row.ID).
			Delete(&types.Translation{}).Error; err != nil {
			return err
		}
		return txx.Unscoped().
			Where("id = ?", row.ID).
			Delete(&types.TranslationMetadata{}).Error
	})
}
