package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tablemate/backoffice-backend/internal/logger"
	pkgerrors "github.com/tablemate/backoffice-backend/internal/pkg/errors"
	"github.com/tablemate/backoffice-backend/internal/types"
)

type SupportedLanguageRepo interface {
	GetActive(ctx context.Context, tx *gorm.DB) ([]*types.SupportedLanguage, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.SupportedLanguage, error)
	GetDefault(ctx context.Context, tx *gorm.DB) (*types.SupportedLanguage, error)
	Create(ctx context.Context, tx *gorm.DB, row *types.SupportedLanguage) (*types.SupportedLanguage, error)
	// SetDefault clears the previous default and marks code as the new default
	// in one transaction, keeping the one-default invariant.
	SetDefault(ctx context.Context, tx *gorm.DB, code string) error
	// Deactivate refuses to deactivate the default language.
	Deactivate(ctx context.Context, tx *gorm.DB, code string) error
}

type supportedLanguageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupportedLanguageRepo(db *gorm.DB, baseLog *logger.Logger) SupportedLanguageRepo {
	return &supportedLanguageRepo{
		db:  db,
		log: baseLog.With("repo", "SupportedLanguageRepo"),
	}
}

func (r *supportedLanguageRepo) GetActive(ctx context.Context, tx *gorm.DB) ([]*types.SupportedLanguage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.SupportedLanguage
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *supportedLanguageRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.SupportedLanguage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if code == "" {
		return nil, nil
	}
	var row types.SupportedLanguage
	err := transaction.WithContext(ctx).
		Where("code = ?", code).
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

func (r *supportedLanguageRepo) GetDefault(ctx context.Context, tx *gorm.DB) (*types.SupportedLanguage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SupportedLanguage
	err := transaction.WithContext(ctx).
		Where("is_default = ?", true).
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

func (r *supportedLanguageRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupportedLanguage) (*types.SupportedLanguage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.Code == "" {
		return nil, fmt.Errorf("language code required: %w", pkgerrors.ErrInvalidArgument)
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *supportedLanguageRepo) SetDefault(ctx context.Context, tx *gorm.DB, code string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if code == "" {
		return fmt.Errorf("language code required: %w", pkgerrors.ErrInvalidArgument)
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var row types.SupportedLanguage
		if err := txx.Where("code = ?", code).Limit(1).Find(&row).Error; err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return fmt.Errorf("language %s: %w", code, pkgerrors.ErrNotFound)
		}
		if !row.IsActive {
			return fmt.Errorf("language %s is inactive: %w", code, pkgerrors.ErrInvalidArgument)
		}
		now := time.Now().UTC()
		if err := txx.Model(&types.SupportedLanguage{}).
			Where("is_default = ?", true).
			Updates(map[string]interface{}{"is_default": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return txx.Model(&types.SupportedLanguage{}).
			Where("code = ?", code).
			Updates(map[string]interface{}{"is_default": true, "updated_at": now}).Error
	})
}

func (r *supportedLanguageRepo) Deactivate(ctx context.Context, tx *gorm.DB, code string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if code == "" {
		return fmt.Errorf("language code required: %w", pkgerrors.ErrInvalidArgument)
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var row types.SupportedLanguage
		if err := txx.Where("code = ?", code).Limit(1).Find(&row).Error; err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return fmt.Errorf("language %s: %w", code, pkgerrors.ErrNotFound)
		}
		if row.IsDefault {
			return fmt.Errorf("cannot deactivate the default language: %w", pkgerrors.ErrInvalidArgument)
		}
		return txx.Model(&types.SupportedLanguage{}).
			Where("code = ?", code).
			Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}).Error
	})
}
