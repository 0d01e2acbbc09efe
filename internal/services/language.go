package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tablemate/backoffice-backend/internal/logger"
	pkgerrors "github.com/tablemate/backoffice-backend/internal/pkg/errors"
	"github.com/tablemate/backoffice-backend/internal/repos"
	"github.com/tablemate/backoffice-backend/internal/types"
)

// LanguageService manages the global language catalog and the per-tenant
// enabled subset.
type LanguageService interface {
	ListActive(ctx context.Context) ([]*types.SupportedLanguage, error)
	Create(ctx context.Context, code, name, nativeName string, rtl bool) (*types.SupportedLanguage, error)
	SetDefault(ctx context.Context, code string) error
	Deactivate(ctx context.Context, code string) error
	TenantLanguages(ctx context.Context, tenantID uuid.UUID) ([]string, error)
	DisableForTenant(ctx context.Context, tenantID uuid.UUID, code string) error
}

type languageService struct {
	log                   *logger.Logger
	supportedLanguageRepo repos.SupportedLanguageRepo
	tenantLanguageRepo    repos.TenantLanguageRepo
}

func NewLanguageService(baseLog *logger.Logger, supportedLanguageRepo repos.SupportedLanguageRepo, tenantLanguageRepo repos.TenantLanguageRepo) LanguageService {
	return &languageService{
		log:                   baseLog.With("service", "LanguageService"),
		supportedLanguageRepo: supportedLanguageRepo,
		tenantLanguageRepo:    tenantLanguageRepo,
	}
}

func (s *languageService) ListActive(ctx context.Context) ([]*types.SupportedLanguage, error) {
	return s.supportedLanguageRepo.GetActive(ctx, nil)
}

func (s *languageService) Create(ctx context.Context, code, name, nativeName string, rtl bool) (*types.SupportedLanguage, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || name == "" {
		return nil, fmt.Errorf("language code and name required: %w", pkgerrors.ErrInvalidArgument)
	}
	existing, err := s.supportedLanguageRepo.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("language %s already exists: %w", code, pkgerrors.ErrInvalidArgument)
	}
	row, err := s.supportedLanguageRepo.Create(ctx, nil, &types.SupportedLanguage{
		Code:       code,
		Name:       name,
		NativeName: nativeName,
		RTL:        rtl,
		IsActive:   true,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Language added to catalog", "code", code, "rtl", rtl)
	return row, nil
}

func (s *languageService) SetDefault(ctx context.Context, code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("language code required: %w", pkgerrors.ErrInvalidArgument)
	}
	return s.supportedLanguageRepo.SetDefault(ctx, nil, code)
}

func (s *languageService) Deactivate(ctx context.Context, code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("language code required: %w", pkgerrors.ErrInvalidArgument)
	}
	return s.supportedLanguageRepo.Deactivate(ctx, nil, code)
}

func (s *languageService) TenantLanguages(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant id required: %w", pkgerrors.ErrInvalidArgument)
	}
	return s.tenantLanguageRepo.GetEnabledCodes(ctx, nil, tenantID)
}

func (s *languageService) DisableForTenant(ctx context.Context, tenantID uuid.UUID, code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if tenantID == uuid.Nil || code == "" {
		return fmt.Errorf("tenant id and language code required: %w", pkgerrors.ErrInvalidArgument)
	}
	return s.tenantLanguageRepo.Disable(ctx, nil, tenantID, code)
}
