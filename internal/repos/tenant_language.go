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

type TenantLanguageRepo interface {
	GetEnabledCodes(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]string, error)
	// Enable is an idempotent upsert on (tenant_id, language_code).
	Enable(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, languageCode string) error
	Disable(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, languageCode string) error
}

type tenantLanguageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTenantLanguageRepo(db *gorm.DB, baseLog *logger.Logger) TenantLanguageRepo {
	return &tenantLanguageRepo{
		db:  db,
		log: baseLog.With("repo", "TenantLanguageRepo"),
	}
}

func (r *tenantLanguageRepo) GetEnabledCodes(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var codes []string
	if tenantID == uuid.Nil {
		return codes, nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.TenantLanguage{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("language_code ASC").
		Pluck("language_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *tenantLanguageRepo) Enable(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, languageCode string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || languageCode == "" {
		return nil
	}
	now := time.Now().UTC()
	row := &types.TenantLanguage{
		ID:           uuid.New(),
		TenantID:     tenantID,
		LanguageCode: languageCode,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "language_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_active", "updated_at"}),
		}).
		Create(row).Error
}

func (r *tenantLanguageRepo) Disable(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, languageCode string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tenantID == uuid.Nil || languageCode == "" {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.TenantLanguage{}).
		Where("tenant_id = ? AND language_code = ?", tenantID, languageCode).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}).Error
}
