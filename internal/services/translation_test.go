package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/tablemate/backoffice-backend/internal/pkg/errors"
	"github.com/tablemate/backoffice-backend/internal/types"
)

// In-memory repo fakes. The service never touches *gorm.DB directly, so the
// tx argument is ignored throughout.

type fakeMetadataRepo struct {
	rows map[string]*types.TranslationMetadata
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{rows: map[string]*types.TranslationMetadata{}}
}

func metadataKey(entityType string, entityID uuid.UUID) string {
	return entityType + "|" + entityID.String()
}

func (f *fakeMetadataRepo) CreateOrGet(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID, sourceLanguage string) (*types.TranslationMetadata, error) {
	key := metadataKey(entityType, entityID)
	if row, ok := f.rows[key]; ok {
		return row, nil
	}
	row := &types.TranslationMetadata{
		ID:             uuid.New(),
		EntityType:     entityType,
		EntityID:       entityID,
		SourceLanguage: sourceLanguage,
	}
	f.rows[key] = row
	return row, nil
}

func (f *fakeMetadataRepo) GetByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) (*types.TranslationMetadata, error) {
	return f.rows[metadataKey(entityType, entityID)], nil
}

func (f *fakeMetadataRepo) DeleteByEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID uuid.UUID) error {
	delete(f.rows, metadataKey(entityType, entityID))
	return nil
}

type fakeTranslationRepo struct {
	rows map[string]*types.Translation
}

func newFakeTranslationRepo() *fakeTranslationRepo {
	return &fakeTranslationRepo{rows: map[string]*types.Translation{}}
}

func translationKey(metadataID uuid.UUID, lang, field string) string {
	return fmt.Sprintf("%s|%s|%s", metadataID, lang, field)
}

func (f *fakeTranslationRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Translation) error {
	key := translationKey(row.MetadataID, row.LanguageCode, row.FieldName)
	if existing, ok := f.rows[key]; ok {
		existing.TranslatedText = row.TranslatedText
		existing.IsAIGenerated = row.IsAIGenerated
		existing.LastUpdatedBy = row.LastUpdatedBy
		return nil
	}
	stored := *row
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	f.rows[key] = &stored
	return nil
}

func (f *fakeTranslationRepo) Get(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode, fieldName string) (*types.Translation, error) {
	return f.rows[translationKey(metadataID, languageCode, fieldName)], nil
}

func (f *fakeTranslationRepo) GetByMetadataID(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID) ([]*types.Translation, error) {
	var out []*types.Translation
	for _, row := range f.rows {
		if row.MetadataID == metadataID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FieldName+out[i].LanguageCode < out[j].FieldName+out[j].LanguageCode
	})
	return out, nil
}

func (f *fakeTranslationRepo) GetByMetadataAndLanguage(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode string) ([]*types.Translation, error) {
	var out []*types.Translation
	for _, row := range f.rows {
		if row.MetadataID == metadataID && row.LanguageCode == languageCode {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldName < out[j].FieldName })
	return out, nil
}

func (f *fakeTranslationRepo) HasLanguage(ctx context.Context, tx *gorm.DB, metadataID uuid.UUID, languageCode string) (bool, error) {
	for _, row := range f.rows {
		if row.MetadataID == metadataID && row.LanguageCode == languageCode {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTranslationRepo) FullDeleteByMetadataIDs(ctx context.Context, tx *gorm.DB, metadataIDs []uuid.UUID) error {
	for key, row := range f.rows {
		for _, id := range metadataIDs {
			if row.MetadataID == id {
				delete(f.rows, key)
			}
		}
	}
	return nil
}

type fakeSupportedLanguageRepo struct {
	languages []*types.SupportedLanguage
}

func newFakeSupportedLanguageRepo(codes ...string) *fakeSupportedLanguageRepo {
	f := &fakeSupportedLanguageRepo{}
	for i, code := range codes {
		f.languages = append(f.languages, &types.SupportedLanguage{
			ID:        uuid.New(),
			Code:      code,
			Name:      strings.ToUpper(code),
			IsActive:  true,
			IsDefault: i == 0,
		})
	}
	return f
}

func (f *fakeSupportedLanguageRepo) GetActive(ctx context.Context, tx *gorm.DB) ([]*types.SupportedLanguage, error) {
	var out []*types.SupportedLanguage
	for _, lang := range f.languages {
		if lang.IsActive {
			out = append(out, lang)
		}
	}
	return out, nil
}

func (f *fakeSupportedLanguageRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.SupportedLanguage, error) {
	for _, lang := range f.languages {
		if lang.Code == code {
			return lang, nil
		}
	}
	return nil, nil
}

func (f *fakeSupportedLanguageRepo) GetDefault(ctx context.Context, tx *gorm.DB) (*types.SupportedLanguage, error) {
	for _, lang := range f.languages {
		if lang.IsDefault {
			return lang, nil
		}
	}
	return nil, nil
}

func (f *fakeSupportedLanguageRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupportedLanguage) (*types.SupportedLanguage, error) {
	row.ID = uuid.New()
	f.languages = append(f.languages, row)
	return row, nil
}

func (f *fakeSupportedLanguageRepo) SetDefault(ctx context.Context, tx *gorm.DB, code string) error {
	for _, lang := range f.languages {
		lang.IsDefault = lang.Code == code
	}
	return nil
}

func (f *fakeSupportedLanguageRepo) Deactivate(ctx context.Context, tx *gorm.DB, code string) error {
	for _, lang := range f.languages {
		if lang.Code == code {
			if lang.IsDefault {
				return pkgerrors.ErrInvalidArgument
			}
			lang.IsActive = false
		}
	}
	return nil
}

type fakeTenantLanguageRepo struct {
	enabled map[uuid.UUID][]string
}

func newFakeTenantLanguageRepo() *fakeTenantLanguageRepo {
	return &fakeTenantLanguageRepo{enabled: map[uuid.UUID][]string{}}
}

func (f *fakeTenantLanguageRepo) GetEnabledCodes(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]string, error) {
	return f.enabled[tenantID], nil
}

func (f *fakeTenantLanguageRepo) Enable(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, languageCode string) error {
	for _, code := range f.enabled[tenantID] {
		if code == languageCode {
			return nil
		}
	}
	f.enabled[tenantID] = append(f.enabled[tenantID], languageCode)
	return nil
}

func (f *fakeTenantLanguageRepo) Disable(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, languageCode string) error {
	var out []string
	for _, code := range f.enabled[tenantID] {
		if code != languageCode {
			out = append(out, code)
		}
	}
	f.enabled[tenantID] = out
	return nil
}

type fakeJobRunRepo struct {
	jobs []*types.JobRun
}

func (f *fakeJobRunRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.JobRun) ([]*types.JobRun, error) {
	for _, job := range jobs {
		if job.ID == uuid.Nil {
			job.ID = uuid.New()
		}
		job.CreatedAt = time.Now()
		f.jobs = append(f.jobs, job)
	}
	return jobs, nil
}

func (f *fakeJobRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.JobRun, error) {
	var out []*types.JobRun
	for _, job := range f.jobs {
		for _, id := range ids {
			if job.ID == id {
				out = append(out, job)
			}
		}
	}
	return out, nil
}

func (f *fakeJobRunRepo) GetLatestByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, jobType string) (*types.JobRun, error) {
	for i := len(f.jobs) - 1; i >= 0; i-- {
		if f.jobs[i].TenantID == tenantID && f.jobs[i].JobType == jobType {
			return f.jobs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeJobRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.JobRun, error) {
	for _, job := range f.jobs {
		if job.Status == types.JobStatusQueued {
			job.Status = types.JobStatusRunning
			job.Attempts++
			return job, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	for _, job := range f.jobs {
		if job.ID != id {
			continue
		}
		if v, ok := updates["status"].(string); ok {
			job.Status = v
		}
		if v, ok := updates["stage"].(string); ok {
			job.Stage = v
		}
		if v, ok := updates["progress"].(int); ok {
			job.Progress = v
		}
		if v, ok := updates["error"].(string); ok {
			job.Error = v
		}
	}
	return nil
}

func (f *fakeJobRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

type stubDetector struct {
	code string
}

func (d *stubDetector) Detect(ctx context.Context, text string) string { return d.code }

// stubTranslator scripts the BatchTranslator used by the orchestration tests.
type stubTranslator struct {
	fn        func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error)
	lastCall  []FieldText
	callCount int
}

func (s *stubTranslator) TranslateFields(ctx context.Context, fields []FieldText, targetLanguages []string, sourceLanguage string) (map[string]map[string]string, error) {
	s.callCount++
	s.lastCall = fields
	if s.fn == nil {
		return map[string]map[string]string{}, nil
	}
	return s.fn(fields, targetLanguages, sourceLanguage)
}

func (s *stubTranslator) TranslateText(ctx context.Context, text string, targetLanguages []string, sourceLanguage string) (map[string]string, error) {
	out, err := s.TranslateFields(ctx, []FieldText{{FieldName: "text", Text: text}}, targetLanguages, sourceLanguage)
	if err != nil {
		return nil, err
	}
	return out["text"], nil
}

type serviceFixture struct {
	svc          TranslationService
	metadata     *fakeMetadataRepo
	translations *fakeTranslationRepo
	languages    *fakeSupportedLanguageRepo
	tenantLangs  *fakeTenantLanguageRepo
	jobs         *fakeJobRunRepo
	translator   *stubTranslator
}

func newServiceFixture(t *testing.T, translator *stubTranslator) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		metadata:     newFakeMetadataRepo(),
		translations: newFakeTranslationRepo(),
		languages:    newFakeSupportedLanguageRepo("en", "ar", "ku"),
		tenantLangs:  newFakeTenantLanguageRepo(),
		jobs:         &fakeJobRunRepo{},
		translator:   translator,
	}
	log := testLogger(t)
	f.svc = NewTranslationService(
		log,
		f.metadata,
		f.translations,
		f.languages,
		f.tenantLangs,
		f.jobs,
		&stubDetector{code: "en"},
		translator,
		NewTranslationCache(log, time.Hour, 100),
	)
	return f
}

func TestCreateBatchTranslations_HappyPath(t *testing.T) {
	translator := &stubTranslator{fn: func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error) {
		out := map[string]map[string]string{}
		for _, f := range fields {
			out[f.FieldName] = map[string]string{"ar": "ar:" + f.Text, "ku": "ku:" + f.Text}
		}
		return out, nil
	}}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()
	userID := uuid.New()

	result, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Grilled Meats"},
		{FieldName: "description", Text: "Best in town"},
	}, TranslateOptions{SourceLanguage: "en", UserID: &userID})
	if err != nil {
		t.Fatalf("CreateBatchTranslations failed: %v", err)
	}
	if result.SourceLanguage != "en" {
		t.Fatalf("unexpected source %q", result.SourceLanguage)
	}
	name := result.TranslationsByField["name"]
	if name["en"] != "Grilled Meats" || name["ar"] != "ar:Grilled Meats" || name["ku"] != "ku:Grilled Meats" {
		t.Fatalf("unexpected name translations: %v", name)
	}

	metadata, _ := fx.metadata.GetByEntity(context.Background(), nil, "category", entityID)
	if metadata == nil {
		t.Fatalf("metadata row missing")
	}
	sourceRow, _ := fx.translations.Get(context.Background(), nil, metadata.ID, "en", "name")
	if sourceRow == nil || sourceRow.IsAIGenerated {
		t.Fatalf("source row must exist with is_ai_generated=false: %+v", sourceRow)
	}
	if sourceRow.LastUpdatedBy == nil || *sourceRow.LastUpdatedBy != userID {
		t.Fatalf("source row must carry the author")
	}
	aiRow, _ := fx.translations.Get(context.Background(), nil, metadata.ID, "ar", "name")
	if aiRow == nil || !aiRow.IsAIGenerated {
		t.Fatalf("AI row must exist with is_ai_generated=true: %+v", aiRow)
	}
}

func TestCreateBatchTranslations_IdempotentMetadata(t *testing.T) {
	fx := newServiceFixture(t, &stubTranslator{})
	entityID := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := fx.svc.CreateBatchTranslations(context.Background(), "menu_item", entityID, []FieldText{
			{FieldName: "name", Text: "Kebab"},
		}, TranslateOptions{SourceLanguage: "en"}); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if len(fx.metadata.rows) != 1 {
		t.Fatalf("expected one metadata row, got %d", len(fx.metadata.rows))
	}
}

func TestCreateBatchTranslations_UnsupportedSourceCoercedToDefault(t *testing.T) {
	translator := &stubTranslator{}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()

	result, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Sushi"},
	}, TranslateOptions{SourceLanguage: "xx"})
	if err != nil {
		t.Fatalf("CreateBatchTranslations failed: %v", err)
	}
	if result.SourceLanguage != "en" {
		t.Fatalf("expected coercion to default en, got %q", result.SourceLanguage)
	}
}

func TestCreateBatchTranslations_TranslatorFailureDegradesToSourceOnly(t *testing.T) {
	translator := &stubTranslator{fn: func([]FieldText, []string, string) (map[string]map[string]string, error) {
		return nil, ErrOverloaded
	}}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()

	result, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Pizza"},
	}, TranslateOptions{SourceLanguage: "en"})
	if err != nil {
		t.Fatalf("AI failure must not fail the request: %v", err)
	}
	name := result.TranslationsByField["name"]
	if len(name) != 1 || name["en"] != "Pizza" {
		t.Fatalf("expected source-only result, got %v", name)
	}

	metadata, _ := fx.metadata.GetByEntity(context.Background(), nil, "category", entityID)
	row, _ := fx.translations.Get(context.Background(), nil, metadata.ID, "en", "name")
	if row == nil {
		t.Fatalf("source row must still be persisted")
	}
}

func TestCreateBatchTranslations_TenantTargets(t *testing.T) {
	var gotTargets []string
	translator := &stubTranslator{fn: func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error) {
		gotTargets = targets
		return map[string]map[string]string{}, nil
	}}
	fx := newServiceFixture(t, translator)
	tenantID := uuid.New()
	fx.tenantLangs.enabled[tenantID] = []string{"en", "ar"}

	if _, err := fx.svc.CreateBatchTranslations(context.Background(), "category", uuid.New(), []FieldText{
		{FieldName: "name", Text: "Pasta"},
	}, TranslateOptions{SourceLanguage: "en", TenantID: tenantID}); err != nil {
		t.Fatalf("CreateBatchTranslations failed: %v", err)
	}
	if len(gotTargets) != 1 || gotTargets[0] != "ar" {
		t.Fatalf("expected tenant targets minus source, got %v", gotTargets)
	}
}

func TestCreateBatchTranslations_NoTargetsSkipsTranslator(t *testing.T) {
	translator := &stubTranslator{}
	fx := newServiceFixture(t, translator)
	tenantID := uuid.New()
	fx.tenantLangs.enabled[tenantID] = []string{"en"} // only the source

	result, err := fx.svc.CreateBatchTranslations(context.Background(), "category", uuid.New(), []FieldText{
		{FieldName: "name", Text: "Salad"},
	}, TranslateOptions{SourceLanguage: "en", TenantID: tenantID})
	if err != nil {
		t.Fatalf("CreateBatchTranslations failed: %v", err)
	}
	if translator.callCount != 0 {
		t.Fatalf("no targets must mean no model work")
	}
	if result.TranslationsByField["name"]["en"] != "Salad" {
		t.Fatalf("source row must still be returned: %v", result.TranslationsByField)
	}
}

func TestPersistAITranslation_ManualEditProtected(t *testing.T) {
	translator := &stubTranslator{fn: func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error) {
		out := map[string]map[string]string{}
		for _, f := range fields {
			out[f.FieldName] = map[string]string{"ar": "machine output"}
		}
		return out, nil
	}}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()
	editor := uuid.New()

	if _, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Burgers"},
	}, TranslateOptions{SourceLanguage: "en"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := fx.svc.UpdateTranslation(context.Background(), "category", entityID, "ar", "name", "تعديل يدوي", editor); err != nil {
		t.Fatalf("UpdateTranslation failed: %v", err)
	}

	// A later AI run must not clobber the manual edit.
	if _, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Burgers"},
	}, TranslateOptions{SourceLanguage: "en"}); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}

	metadata, _ := fx.metadata.GetByEntity(context.Background(), nil, "category", entityID)
	row, _ := fx.translations.Get(context.Background(), nil, metadata.ID, "ar", "name")
	if row.TranslatedText != "تعديل يدوي" {
		t.Fatalf("manual edit was overwritten: %+v", row)
	}
	if row.IsAIGenerated {
		t.Fatalf("manual row must keep is_ai_generated=false")
	}
}

func TestUpdateTranslation_MissingMetadataIsNotFound(t *testing.T) {
	fx := newServiceFixture(t, &stubTranslator{})
	err := fx.svc.UpdateTranslation(context.Background(), "category", uuid.New(), "ar", "name", "x", uuid.New())
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTranslation_FallbackChain(t *testing.T) {
	translator := &stubTranslator{fn: func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error) {
		return map[string]map[string]string{"name": {"ar": "كباب"}}, nil
	}}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()

	if _, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Kebab"},
	}, TranslateOptions{SourceLanguage: "en"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	row, err := fx.svc.GetTranslation(context.Background(), "category", entityID, "ar", "name", "en")
	if err != nil || row == nil || row.TranslatedText != "كباب" {
		t.Fatalf("direct lookup failed: %+v %v", row, err)
	}
	row, err = fx.svc.GetTranslation(context.Background(), "category", entityID, "ku", "name", "en")
	if err != nil || row == nil || row.TranslatedText != "Kebab" {
		t.Fatalf("fallback lookup failed: %+v %v", row, err)
	}
	row, err = fx.svc.GetTranslation(context.Background(), "category", entityID, "ku", "name", "")
	if err != nil || row != nil {
		t.Fatalf("absent translation must be (nil, nil), got %+v %v", row, err)
	}
}

func TestRetranslateEntity_Validation(t *testing.T) {
	fx := newServiceFixture(t, &stubTranslator{})

	_, err := fx.svc.RetranslateEntity(context.Background(), "category", uuid.New(), []string{"ar"}, uuid.Nil)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown entity, got %v", err)
	}

	entityID := uuid.New()
	if _, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Tacos"},
	}, TranslateOptions{SourceLanguage: "en"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	tenantID := uuid.New()
	fx.tenantLangs.enabled[tenantID] = []string{"en"}
	_, err = fx.svc.RetranslateEntity(context.Background(), "category", entityID, nil, tenantID)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument when no targets resolve, got %v", err)
	}
}

func TestRetranslateEntity_UsesStoredSourceRows(t *testing.T) {
	translator := &stubTranslator{fn: func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error) {
		out := map[string]map[string]string{}
		for _, f := range fields {
			out[f.FieldName] = map[string]string{"ar": "ar:" + f.Text}
		}
		return out, nil
	}}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()

	if _, err := fx.svc.CreateBatchTranslations(context.Background(), "category", entityID, []FieldText{
		{FieldName: "name", Text: "Shawarma"},
	}, TranslateOptions{SourceLanguage: "en"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := fx.svc.RetranslateEntity(context.Background(), "category", entityID, []string{"ar"}, uuid.Nil)
	if err != nil {
		t.Fatalf("RetranslateEntity failed: %v", err)
	}
	if result.TranslationsByField["name"]["ar"] != "ar:Shawarma" {
		t.Fatalf("unexpected retranslation: %v", result.TranslationsByField)
	}
	if len(translator.lastCall) != 1 || translator.lastCall[0].Text != "Shawarma" {
		t.Fatalf("retranslation must read the stored source rows, got %v", translator.lastCall)
	}
}

func TestEnableLanguageForTenant(t *testing.T) {
	fx := newServiceFixture(t, &stubTranslator{})
	tenantID := uuid.New()
	userID := uuid.New()

	if _, err := fx.svc.EnableLanguageForTenant(context.Background(), tenantID, "xx", &userID); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("unknown language must be rejected, got %v", err)
	}

	job, err := fx.svc.EnableLanguageForTenant(context.Background(), tenantID, "AR ", &userID)
	if err != nil {
		t.Fatalf("EnableLanguageForTenant failed: %v", err)
	}
	if job.Status != types.JobStatusQueued || job.JobType != types.JobTypeLanguageBackfill {
		t.Fatalf("unexpected job: %+v", job)
	}
	if !strings.Contains(string(job.Payload), tenantID.String()) || !strings.Contains(string(job.Payload), `"ar"`) {
		t.Fatalf("payload missing inputs: %s", job.Payload)
	}
	codes, _ := fx.tenantLangs.GetEnabledCodes(context.Background(), nil, tenantID)
	if len(codes) != 1 || codes[0] != "ar" {
		t.Fatalf("language must be enabled before queueing, got %v", codes)
	}
}

func TestBackfillEntityLanguage_SkipsExistingLanguage(t *testing.T) {
	translator := &stubTranslator{fn: func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error) {
		out := map[string]map[string]string{}
		for _, f := range fields {
			out[f.FieldName] = map[string]string{targets[0]: targets[0] + ":" + f.Text}
		}
		return out, nil
	}}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()
	tenantID := uuid.New()
	fx.tenantLangs.enabled[tenantID] = []string{"en"}

	// Seed only the source row; the tenant has no extra languages yet.
	if _, err := fx.svc.CreateBatchTranslations(context.Background(), "branch", entityID, []FieldText{
		{FieldName: "address", Text: "Main Street"},
	}, TranslateOptions{SourceLanguage: "en", TenantID: tenantID}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	calls := translator.callCount

	skipped, err := fx.svc.BackfillEntityLanguage(context.Background(), "branch", entityID, nil, "ar")
	if err != nil || skipped {
		t.Fatalf("first backfill must translate: skipped=%v err=%v", skipped, err)
	}
	if translator.callCount != calls+1 {
		t.Fatalf("expected one translator call")
	}

	skipped, err = fx.svc.BackfillEntityLanguage(context.Background(), "branch", entityID, nil, "ar")
	if err != nil || !skipped {
		t.Fatalf("second backfill must skip: skipped=%v err=%v", skipped, err)
	}
	if translator.callCount != calls+1 {
		t.Fatalf("skip must not call the translator again")
	}
}

func TestBackfillEntityLanguage_BootstrapsFromRawFields(t *testing.T) {
	translator := &stubTranslator{fn: func(fields []FieldText, targets []string, source string) (map[string]map[string]string, error) {
		out := map[string]map[string]string{}
		for _, f := range fields {
			out[f.FieldName] = map[string]string{"ar": "ar:" + f.Text}
		}
		return out, nil
	}}
	fx := newServiceFixture(t, translator)
	entityID := uuid.New()

	skipped, err := fx.svc.BackfillEntityLanguage(context.Background(), "menu_item", entityID, map[string]string{
		"name":        "Falafel Wrap",
		"description": "",
	}, "ar")
	if err != nil || skipped {
		t.Fatalf("bootstrap backfill failed: skipped=%v err=%v", skipped, err)
	}

	metadata, _ := fx.metadata.GetByEntity(context.Background(), nil, "menu_item", entityID)
	if metadata == nil {
		t.Fatalf("backfill must create metadata")
	}
	sourceRow, _ := fx.translations.Get(context.Background(), nil, metadata.ID, "en", "name")
	if sourceRow == nil || sourceRow.IsAIGenerated {
		t.Fatalf("backfill must persist the source row: %+v", sourceRow)
	}
	aiRow, _ := fx.translations.Get(context.Background(), nil, metadata.ID, "ar", "name")
	if aiRow == nil || aiRow.TranslatedText != "ar:Falafel Wrap" {
		t.Fatalf("backfill must persist the AI row: %+v", aiRow)
	}
}

func TestBackfillEntityLanguage_SourceEqualsTargetSkips(t *testing.T) {
	translator := &stubTranslator{}
	fx := newServiceFixture(t, translator)

	skipped, err := fx.svc.BackfillEntityLanguage(context.Background(), "menu_item", uuid.New(), map[string]string{
		"name": "Plain Rice",
	}, "en")
	if err != nil || !skipped {
		t.Fatalf("source==target must skip: skipped=%v err=%v", skipped, err)
	}
	if translator.callCount != 0 {
		t.Fatalf("skip must not call the translator")
	}
}
