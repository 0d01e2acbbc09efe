package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tablemate/backoffice-backend/internal/logger"
	pkgerrors "github.com/tablemate/backoffice-backend/internal/pkg/errors"
	"github.com/tablemate/backoffice-backend/internal/repos"
	"github.com/tablemate/backoffice-backend/internal/types"
)

// TranslateOptions carries the caller identity for one translation request.
type TranslateOptions struct {
	// SourceLanguage is optional; when empty it is detected from the text.
	SourceLanguage string
	// TenantID selects the tenant-enabled target set. When empty, all active
	// catalog languages are targeted.
	TenantID uuid.UUID
	// UserID, when set, is recorded as the author of the source-language rows.
	UserID *uuid.UUID
}

type TranslationResult struct {
	SourceLanguage string            `json:"source_language"`
	Translations   map[string]string `json:"translations"`
}

type BatchTranslationResult struct {
	SourceLanguage      string                       `json:"source_language"`
	TranslationsByField map[string]map[string]string `json:"translations_by_field"`
}

// TranslationService is the orchestration entry point for the translation
// pipeline: it detects/validates the source language, resolves targets,
// drives the batch translator and persists through the repositories.
//
// Translation requests rarely hard-fail: AI failures degrade to "source text
// only" and the returned maps may cover a strict subset of the requested
// targets. Persistence failures always propagate.
type TranslationService interface {
	CreateTranslations(ctx context.Context, entityType string, entityID uuid.UUID, fieldName, text string, opts TranslateOptions) (*TranslationResult, error)
	CreateBatchTranslations(ctx context.Context, entityType string, entityID uuid.UUID, fields []FieldText, opts TranslateOptions) (*BatchTranslationResult, error)
	// UpdateTranslation is the manual-edit path: it always stores
	// is_ai_generated=false with editor attribution, and later AI
	// retranslations will not overwrite the row.
	UpdateTranslation(ctx context.Context, entityType string, entityID uuid.UUID, languageCode, fieldName, text string, userID uuid.UUID) error
	// GetTranslation resolves languageCode, then fallbackLanguage, then
	// reports absence with (nil, nil). A missing translation is not an error.
	GetTranslation(ctx context.Context, entityType string, entityID uuid.UUID, languageCode, fieldName, fallbackLanguage string) (*types.Translation, error)
	GetEntityTranslations(ctx context.Context, entityType string, entityID uuid.UUID) (map[string]map[string]string, error)
	DeleteEntityTranslations(ctx context.Context, entityType string, entityID uuid.UUID) error
	// RetranslateEntity re-runs AI translation of the stored source rows into
	// the given targets (or the tenant-enabled set when targets is empty).
	RetranslateEntity(ctx context.Context, entityType string, entityID uuid.UUID, targetLanguages []string, tenantID uuid.UUID) (*BatchTranslationResult, error)
	// EnableLanguageForTenant enables the language, enqueues the background
	// backfill job and returns immediately.
	EnableLanguageForTenant(ctx context.Context, tenantID uuid.UUID, languageCode string, userID *uuid.UUID) (*types.JobRun, error)
	// BackfillEntityLanguage translates one entity into languageCode unless a
	// row for that language already exists. Used by the backfill worker.
	BackfillEntityLanguage(ctx context.Context, entityType string, entityID uuid.UUID, rawFields map[string]string, languageCode string) (skipped bool, err error)

	CacheStats() CacheStats
	ClearExpiredCache() int
}

type translationService struct {
	log                   *logger.Logger
	metadataRepo          repos.TranslationMetadataRepo
	translationRepo       repos.TranslationRepo
	supportedLanguageRepo repos.SupportedLanguageRepo
	tenantLanguageRepo    repos.TenantLanguageRepo
	jobRunRepo            repos.JobRunRepo
	detector              LanguageDetector
	translator            BatchTranslator
	cache                 *TranslationCache
}

func NewTranslationService(
	baseLog *logger.Logger,
	metadataRepo repos.TranslationMetadataRepo,
	translationRepo repos.TranslationRepo,
	supportedLanguageRepo repos.SupportedLanguageRepo,
	tenantLanguageRepo repos.TenantLanguageRepo,
	jobRunRepo repos.JobRunRepo,
	detector LanguageDetector,
	translator BatchTranslator,
	cache *TranslationCache,
) TranslationService {
	return &translationService{
		log:                   baseLog.With("service", "TranslationService"),
		metadataRepo:          metadataRepo,
		translationRepo:       translationRepo,
		supportedLanguageRepo: supportedLanguageRepo,
		tenantLanguageRepo:    tenantLanguageRepo,
		jobRunRepo:            jobRunRepo,
		detector:              detector,
		translator:            translator,
		cache:                 cache,
	}
}

func (s *translationService) CreateTranslations(ctx context.Context, entityType string, entityID uuid.UUID, fieldName, text string, opts TranslateOptions) (*TranslationResult, error) {
	if fieldName == "" {
		return nil, fmt.Errorf("field name required: %w", pkgerrors.ErrInvalidArgument)
	}
	batch, err := s.CreateBatchTranslations(ctx, entityType, entityID, []FieldText{{FieldName: fieldName, Text: text}}, opts)
	if err != nil {
		return nil, err
	}
	translations := batch.TranslationsByField[fieldName]
	if translations == nil {
		translations = map[string]string{}
	}
	return &TranslationResult{
		SourceLanguage: batch.SourceLanguage,
		Translations:   translations,
	}, nil
}

func (s *translationService) CreateBatchTranslations(ctx context.Context, entityType string, entityID uuid.UUID, fields []FieldText, opts TranslateOptions) (*BatchTranslationResult, error) {
	if entityType == "" || entityID == uuid.Nil || len(fields) == 0 {
		return nil, fmt.Errorf("entity type, entity id and fields required: %w", pkgerrors.ErrInvalidArgument)
	}

	source := s.resolveSourceLanguage(ctx, fields, opts.SourceLanguage)
	targets, err := s.resolveTargets(ctx, opts.TenantID, source)
	if err != nil {
		return nil, err
	}

	translations := map[string]map[string]string{}
	if len(targets) == 0 {
		s.log.Debug("No target languages resolved, persisting source text only",
			"entity_type", entityType,
			"source", source,
		)
	} else {
		translations, err = s.translator.TranslateFields(ctx, fields, targets, source)
		if err != nil {
			s.log.Warn("Translation failed for all fields, persisting source text only",
				"entity_type", entityType,
				"error", err,
			)
			translations = map[string]map[string]string{}
		}
	}

	metadata, err := s.metadataRepo.CreateOrGet(ctx, nil, entityType, entityID, source)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]string, len(fields))
	for _, f := range fields {
		fieldOut := map[string]string{}
		text := strings.TrimSpace(f.Text)
		if text != "" {
			// The source row is original content, not model output.
			if err := s.translationRepo.Upsert(ctx, nil, &types.Translation{
				MetadataID:     metadata.ID,
				LanguageCode:   source,
				FieldName:      f.FieldName,
				TranslatedText: text,
				IsAIGenerated:  false,
				LastUpdatedBy:  opts.UserID,
			}); err != nil {
				return nil, err
			}
			fieldOut[source] = text
		}
		for lang, translated := range translations[f.FieldName] {
			if lang == source || translated == "" {
				continue
			}
			wrote, pErr := s.persistAITranslation(ctx, metadata.ID, lang, f.FieldName, translated)
			if pErr != nil {
				return nil, pErr
			}
			if wrote {
				fieldOut[lang] = translated
			}
		}
		out[f.FieldName] = fieldOut
	}

	return &BatchTranslationResult{SourceLanguage: source, TranslationsByField: out}, nil
}

func (s *translationService) UpdateTranslation(ctx context.Context, entityType string, entityID uuid.UUID, languageCode, fieldName, text string, userID uuid.UUID) error {
	if entityType == "" || entityID == uuid.Nil || languageCode == "" || fieldName == "" || userID == uuid.Nil {
		return fmt.Errorf("entity, language, field and user required for a manual edit: %w", pkgerrors.ErrInvalidArgument)
	}
	metadata, err := s.metadataRepo.GetByEntity(ctx, nil, entityType, entityID)
	if err != nil {
		return err
	}
	if metadata == nil {
		return fmt.Errorf("no translation metadata for %s %s: %w", entityType, entityID, pkgerrors.ErrNotFound)
	}
	editor := userID
	return s.translationRepo.Upsert(ctx, nil, &types.Translation{
		MetadataID:     metadata.ID,
		LanguageCode:   strings.ToLower(strings.TrimSpace(languageCode)),
		FieldName:      fieldName,
		TranslatedText: strings.TrimSpace(text),
		IsAIGenerated:  false,
		LastUpdatedBy:  &editor,
	})
}

func (s *translationService) GetTranslation(ctx context.Context, entityType string, entityID uuid.UUID, languageCode, fieldName, fallbackLanguage string) (*types.Translation, error) {
	metadata, err := s.metadataRepo.GetByEntity(ctx, nil, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		return nil, nil
	}
	row, err := s.translationRepo.Get(ctx, nil, metadata.ID, languageCode, fieldName)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}
	if fallbackLanguage == "" || fallbackLanguage == languageCode {
		return nil, nil
	}
	return s.translationRepo.Get(ctx, nil, metadata.ID, fallbackLanguage, fieldName)
}

func (s *translationService) GetEntityTranslations(ctx context.Context, entityType string, entityID uuid.UUID) (map[string]map[string]string, error) {
	out := map[string]map[string]string{}
	metadata, err := s.metadataRepo.GetByEntity(ctx, nil, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		return out, nil
	}
	rows, err := s.translationRepo.GetByMetadataID(ctx, nil, metadata.ID)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.FieldName] == nil {
			out[row.FieldName] = map[string]string{}
		}
		out[row.FieldName][row.LanguageCode] = row.TranslatedText
	}
	return out, nil
}

func (s *translationService) DeleteEntityTranslations(ctx context.Context, entityType string, entityID uuid.UUID) error {
	if entityType == "" || entityID == uuid.Nil {
		return fmt.Errorf("entity type and id required: %w", pkgerrors.ErrInvalidArgument)
	}
	return s.metadataRepo.DeleteByEntity(ctx, nil, entityType, entityID)
}

func (s *translationService) RetranslateEntity(ctx context.Context, entityType string, entityID uuid.UUID, targetLanguages []string, tenantID uuid.UUID) (*BatchTranslationResult, error) {
	metadata, err := s.metadataRepo.GetByEntity(ctx, nil, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if metadata == nil {
		return nil, fmt.Errorf("no translation metadata for %s %s: %w", entityType, entityID, pkgerrors.ErrNotFound)
	}

	targets := normalizeCodes(targetLanguages, metadata.SourceLanguage)
	if len(targets) == 0 {
		targets, err = s.resolveTargets(ctx, tenantID, metadata.SourceLanguage)
		if err != nil {
			return nil, err
		}
	}
	if len(targets) == 0 {
		// User-input error: surfaced immediately, no model call is made.
		return nil, fmt.Errorf("no resolvable target languages: %w", pkgerrors.ErrInvalidArgument)
	}

	sourceRows, err := s.translationRepo.GetByMetadataAndLanguage(ctx, nil, metadata.ID, metadata.SourceLanguage)
	if err != nil {
		return nil, err
	}
	if len(sourceRows) == 0 {
		return nil, fmt.Errorf("no source-language text recorded for %s %s: %w", entityType, entityID, pkgerrors.ErrNotFound)
	}
	fields := make([]FieldText, 0, len(sourceRows))
	for _, row := range sourceRows {
		fields = append(fields, FieldText{FieldName: row.FieldName, Text: row.TranslatedText})
	}

	translations, err := s.translator.TranslateFields(ctx, fields, targets, metadata.SourceLanguage)
	if err != nil {
		s.log.Warn("Retranslation failed for all fields", "entity_type", entityType, "error", err)
		translations = map[string]map[string]string{}
	}

	out := make(map[string]map[string]string, len(fields))
	for _, f := range fields {
		fieldOut := map[string]string{metadata.SourceLanguage: f.Text}
		for lang, translated := range translations[f.FieldName] {
			if lang == metadata.SourceLanguage || translated == "" {
				continue
			}
			wrote, pErr := s.persistAITranslation(ctx, metadata.ID, lang, f.FieldName, translated)
			if pErr != nil {
				return nil, pErr
			}
			if wrote {
				fieldOut[lang] = translated
			}
		}
		out[f.FieldName] = fieldOut
	}
	return &BatchTranslationResult{SourceLanguage: metadata.SourceLanguage, TranslationsByField: out}, nil
}

func (s *translationService) EnableLanguageForTenant(ctx context.Context, tenantID uuid.UUID, languageCode string, userID *uuid.UUID) (*types.JobRun, error) {
	code := strings.ToLower(strings.TrimSpace(languageCode))
	if tenantID == uuid.Nil || code == "" {
		return nil, fmt.Errorf("tenant id and language code required: %w", pkgerrors.ErrInvalidArgument)
	}
	lang, err := s.supportedLanguageRepo.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if lang == nil || !lang.IsActive {
		return nil, fmt.Errorf("language %s is not in the active catalog: %w", code, pkgerrors.ErrInvalidArgument)
	}

	if err := s.tenantLanguageRepo.Enable(ctx, nil, tenantID, code); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"tenant_id": tenantID.String(),
		"language":  code,
	}
	if userID != nil {
		payload["user_id"] = userID.String()
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobRunRepo.Create(ctx, nil, []*types.JobRun{{
		TenantID: tenantID,
		JobType:  types.JobTypeLanguageBackfill,
		Status:   types.JobStatusQueued,
		Payload:  raw,
	}})
	if err != nil {
		return nil, err
	}
	s.log.Info("Language enabled for tenant, backfill queued",
		"tenant_id", tenantID,
		"language", code,
		"job_id", jobs[0].ID,
	)
	return jobs[0], nil
}

func (s *translationService) BackfillEntityLanguage(ctx context.Context, entityType string, entityID uuid.UUID, rawFields map[string]string, languageCode string) (bool, error) {
	code := strings.ToLower(strings.TrimSpace(languageCode))
	if entityType == "" || entityID == uuid.Nil || code == "" {
		return false, fmt.Errorf("entity and language required: %w", pkgerrors.ErrInvalidArgument)
	}

	metadata, err := s.metadataRepo.GetByEntity(ctx, nil, entityType, entityID)
	if err != nil {
		return false, err
	}
	if metadata != nil {
		has, hErr := s.translationRepo.HasLanguage(ctx, nil, metadata.ID, code)
		if hErr != nil {
			return false, hErr
		}
		if has {
			return true, nil
		}
	}

	var fields []FieldText
	source := ""
	if metadata != nil {
		source = metadata.SourceLanguage
		rows, rErr := s.translationRepo.GetByMetadataAndLanguage(ctx, nil, metadata.ID, metadata.SourceLanguage)
		if rErr != nil {
			return false, rErr
		}
		for _, row := range rows {
			fields = append(fields, FieldText{FieldName: row.FieldName, Text: row.TranslatedText})
		}
	}
	if len(fields) == 0 {
		// No bookkeeping yet (or empty source rows): translate straight from
		// the raw entity columns.
		names := make([]string, 0, len(rawFields))
		for name := range rawFields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if strings.TrimSpace(rawFields[name]) == "" {
				continue
			}
			fields = append(fields, FieldText{FieldName: name, Text: rawFields[name]})
		}
		if len(fields) == 0 {
			return true, nil
		}
		source = s.resolveSourceLanguage(ctx, fields, source)
	}
	if source == code {
		return true, nil
	}

	translations, err := s.translator.TranslateFields(ctx, fields, []string{code}, source)
	if err != nil {
		return false, err
	}

	if metadata == nil {
		metadata, err = s.metadataRepo.CreateOrGet(ctx, nil, entityType, entityID, source)
		if err != nil {
			return false, err
		}
		for _, f := range fields {
			if uErr := s.translationRepo.Upsert(ctx, nil, &types.Translation{
				MetadataID:     metadata.ID,
				LanguageCode:   source,
				FieldName:      f.FieldName,
				TranslatedText: strings.TrimSpace(f.Text),
				IsAIGenerated:  false,
			}); uErr != nil {
				return false, uErr
			}
		}
	}

	wrote := 0
	for _, f := range fields {
		translated := translations[f.FieldName][code]
		if translated == "" {
			continue
		}
		ok, pErr := s.persistAITranslation(ctx, metadata.ID, code, f.FieldName, translated)
		if pErr != nil {
			return false, pErr
		}
		if ok {
			wrote++
		}
	}
	if wrote == 0 {
		return false, fmt.Errorf("no %s translations produced for %s %s", code, entityType, entityID)
	}
	return false, nil
}

func (s *translationService) CacheStats() CacheStats {
	return s.cache.Stats()
}

func (s *translationService) ClearExpiredCache() int {
	return s.cache.ClearExpired()
}

// persistAITranslation re-checks the stored row immediately before an
// AI-sourced write and skips it when a manual edit is already present, so a
// batch job that started before a human edit can never clobber it.
func (s *translationService) persistAITranslation(ctx context.Context, metadataID uuid.UUID, languageCode, fieldName, text string) (bool, error) {
	existing, err := s.translationRepo.Get(ctx, nil, metadataID, languageCode, fieldName)
	if err != nil {
		return false, err
	}
	if existing != nil && !existing.IsAIGenerated {
		s.log.Debug("Keeping manual edit, skipping AI overwrite",
			"metadata_id", metadataID,
			"language", languageCode,
			"field", fieldName,
		)
		return false, nil
	}
	if err := s.translationRepo.Upsert(ctx, nil, &types.Translation{
		MetadataID:     metadataID,
		LanguageCode:   languageCode,
		FieldName:      fieldName,
		TranslatedText: text,
		IsAIGenerated:  true,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *translationService) resolveSourceLanguage(ctx context.Context, fields []FieldText, supplied string) string {
	source := strings.ToLower(strings.TrimSpace(supplied))
	if source == "" {
		sample := ""
		for _, f := range fields {
			if t := strings.TrimSpace(f.Text); t != "" {
				sample = t
				break
			}
		}
		source = s.detector.Detect(ctx, sample)
	}

	active, err := s.supportedLanguageRepo.GetActive(ctx, nil)
	if err != nil {
		s.log.Warn("Could not load language catalog, keeping unvalidated source", "source", source, "error", err)
		return source
	}
	for _, lang := range active {
		if lang.Code == source {
			return source
		}
	}
	def := s.defaultLanguage(ctx)
	s.log.Warn("Source language not in the supported set, coercing to default",
		"source", source,
		"default", def,
	)
	return def
}

func (s *translationService) defaultLanguage(ctx context.Context) string {
	row, err := s.supportedLanguageRepo.GetDefault(ctx, nil)
	if err != nil || row == nil {
		return detectionFallbackLanguage
	}
	return row.Code
}

// resolveTargets returns the tenant-enabled languages minus the source. With
// no tenant, every active catalog language is a target.
func (s *translationService) resolveTargets(ctx context.Context, tenantID uuid.UUID, source string) ([]string, error) {
	var codes []string
	if tenantID != uuid.Nil {
		enabled, err := s.tenantLanguageRepo.GetEnabledCodes(ctx, nil, tenantID)
		if err != nil {
			return nil, err
		}
		codes = enabled
	} else {
		active, err := s.supportedLanguageRepo.GetActive(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, lang := range active {
			codes = append(codes, lang.Code)
		}
	}
	return normalizeCodes(codes, source), nil
}

func normalizeCodes(codes []string, exclude string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || c == exclude || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
