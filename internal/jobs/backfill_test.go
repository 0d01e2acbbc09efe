package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/repos"
	"github.com/tablemate/backoffice-backend/internal/services"
	"github.com/tablemate/backoffice-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New failed: %v", err)
	}
	return log
}

type fakeEntitySource struct {
	typ      string
	entities []repos.TranslatableEntity
}

func (f *fakeEntitySource) EntityType() string { return f.typ }

func (f *fakeEntitySource) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]repos.TranslatableEntity, error) {
	return f.entities, nil
}

type backfillCall struct {
	entityType string
	entityID   uuid.UUID
	language   string
}

// fakeTranslationService scripts BackfillEntityLanguage; the rest of the
// interface is unused by the handler.
type fakeTranslationService struct {
	mu      sync.Mutex
	calls   []backfillCall
	skipFor map[uuid.UUID]bool
	failFor map[uuid.UUID]error
}

func (f *fakeTranslationService) BackfillEntityLanguage(ctx context.Context, entityType string, entityID uuid.UUID, rawFields map[string]string, languageCode string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, backfillCall{entityType: entityType, entityID: entityID, language: languageCode})
	f.mu.Unlock()
	if err := f.failFor[entityID]; err != nil {
		return false, err
	}
	return f.skipFor[entityID], nil
}

func (f *fakeTranslationService) CreateTranslations(context.Context, string, uuid.UUID, string, string, services.TranslateOptions) (*services.TranslationResult, error) {
	return nil, nil
}

func (f *fakeTranslationService) CreateBatchTranslations(context.Context, string, uuid.UUID, []services.FieldText, services.TranslateOptions) (*services.BatchTranslationResult, error) {
	return nil, nil
}

func (f *fakeTranslationService) UpdateTranslation(context.Context, string, uuid.UUID, string, string, string, uuid.UUID) error {
	return nil
}

func (f *fakeTranslationService) GetTranslation(context.Context, string, uuid.UUID, string, string, string) (*types.Translation, error) {
	return nil, nil
}

func (f *fakeTranslationService) GetEntityTranslations(context.Context, string, uuid.UUID) (map[string]map[string]string, error) {
	return nil, nil
}

func (f *fakeTranslationService) DeleteEntityTranslations(context.Context, string, uuid.UUID) error {
	return nil
}

func (f *fakeTranslationService) RetranslateEntity(context.Context, string, uuid.UUID, []string, uuid.UUID) (*services.BatchTranslationResult, error) {
	return nil, nil
}

func (f *fakeTranslationService) EnableLanguageForTenant(context.Context, uuid.UUID, string, *uuid.UUID) (*types.JobRun, error) {
	return nil, nil
}

func (f *fakeTranslationService) CacheStats() services.CacheStats { return services.CacheStats{} }

func (f *fakeTranslationService) ClearExpiredCache() int { return 0 }

type fakeJobRunRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*types.JobRun
}

func newFakeJobRunRepo(jobs ...*types.JobRun) *fakeJobRunRepo {
	f := &fakeJobRunRepo{jobs: map[uuid.UUID]*types.JobRun{}}
	for _, job := range jobs {
		f.jobs[job.ID] = job
	}
	return f
}

func (f *fakeJobRunRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.JobRun) ([]*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range jobs {
		if job.ID == uuid.Nil {
			job.ID = uuid.New()
		}
		f.jobs[job.ID] = job
	}
	return jobs, nil
}

func (f *fakeJobRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.JobRun
	for _, id := range ids {
		if job, ok := f.jobs[id]; ok {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeJobRunRepo) GetLatestByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, jobType string) (*types.JobRun, error) {
	return nil, nil
}

func (f *fakeJobRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil
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
	if v, ok := updates["result"].(datatypes.JSON); ok {
		job.Result = v
	}
	return nil
}

func (f *fakeJobRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

func newBackfillJob(tenantID uuid.UUID, language string) *types.JobRun {
	payload, _ := json.Marshal(map[string]any{
		"tenant_id": tenantID.String(),
		"language":  language,
	})
	return &types.JobRun{
		ID:       uuid.New(),
		TenantID: tenantID,
		JobType:  types.JobTypeLanguageBackfill,
		Status:   types.JobStatusRunning,
		Payload:  payload,
	}
}

func TestLanguageBackfillHandler_CountsOutcomes(t *testing.T) {
	tenantID := uuid.New()
	okID := uuid.New()
	skipID := uuid.New()
	failID := uuid.New()

	source := &fakeEntitySource{typ: "menu_item", entities: []repos.TranslatableEntity{
		{ID: okID, Fields: map[string]string{"name": "Dish"}},
		{ID: skipID, Fields: map[string]string{"name": "Other"}},
		{ID: failID, Fields: map[string]string{"name": "Broken"}},
	}}
	svc := &fakeTranslationService{
		skipFor: map[uuid.UUID]bool{skipID: true},
		failFor: map[uuid.UUID]error{failID: errors.New("entity exploded")},
	}
	handler := NewLanguageBackfillHandler(testLogger(t), []repos.EntitySource{source}, svc, 2)

	job := newBackfillJob(tenantID, "ar")
	repo := newFakeJobRunRepo(job)
	jc := NewContext(context.Background(), nil, job, repo)

	if err := handler.Run(jc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if job.Status != types.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error=%q)", job.Status, job.Error)
	}
	if len(svc.calls) != 3 {
		t.Fatalf("expected 3 backfill calls, got %d", len(svc.calls))
	}

	var result map[string]any
	if err := json.Unmarshal(job.Result, &result); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if result["translated"] != float64(1) || result["skipped"] != float64(1) || result["failed"] != float64(1) {
		t.Fatalf("unexpected counts: %v", result)
	}
}

func TestLanguageBackfillHandler_EmptyTenantCompletesImmediately(t *testing.T) {
	tenantID := uuid.New()
	svc := &fakeTranslationService{}
	handler := NewLanguageBackfillHandler(testLogger(t), []repos.EntitySource{
		&fakeEntitySource{typ: "category"},
	}, svc, 2)

	job := newBackfillJob(tenantID, "ku")
	repo := newFakeJobRunRepo(job)
	jc := NewContext(context.Background(), nil, job, repo)

	if err := handler.Run(jc); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if job.Status != types.JobStatusCompleted || job.Progress != 100 {
		t.Fatalf("expected completed at 100%%, got %s/%d", job.Status, job.Progress)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("no entities must mean no backfill calls")
	}
}

func TestLanguageBackfillHandler_MissingPayloadFails(t *testing.T) {
	handler := NewLanguageBackfillHandler(testLogger(t), nil, &fakeTranslationService{}, 1)

	job := &types.JobRun{ID: uuid.New(), JobType: types.JobTypeLanguageBackfill, Status: types.JobStatusRunning}
	repo := newFakeJobRunRepo(job)
	jc := NewContext(context.Background(), nil, job, repo)

	if err := handler.Run(jc); err == nil {
		t.Fatalf("expected error for missing payload")
	}
}
