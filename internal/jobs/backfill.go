package jobs

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/repos"
	"github.com/tablemate/backoffice-backend/internal/services"
	"github.com/tablemate/backoffice-backend/internal/types"
)

// LanguageBackfillHandler translates every translatable entity of a tenant
// into a newly enabled language. Entities that already carry the language are
// skipped, so re-running the job after a partial failure only does the
// remaining work.
type LanguageBackfillHandler struct {
	log         *logger.Logger
	sources     []repos.EntitySource
	translation services.TranslationService
	concurrency int
}

func NewLanguageBackfillHandler(baseLog *logger.Logger, sources []repos.EntitySource, translation services.TranslationService, concurrency int) *LanguageBackfillHandler {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &LanguageBackfillHandler{
		log:         baseLog.With("handler", types.JobTypeLanguageBackfill),
		sources:     sources,
		translation: translation,
		concurrency: concurrency,
	}
}

func (h *LanguageBackfillHandler) Type() string {
	return types.JobTypeLanguageBackfill
}

func (h *LanguageBackfillHandler) Run(jc *Context) error {
	tenantID, ok := jc.PayloadUUID("tenant_id")
	if !ok {
		return fmt.Errorf("payload missing tenant_id")
	}
	language, ok := jc.PayloadString("language")
	if !ok {
		return fmt.Errorf("payload missing language")
	}

	jc.Progress("collect", 0)

	type work struct {
		entityType string
		entity     repos.TranslatableEntity
	}
	var pending []work
	for _, src := range h.sources {
		entities, err := src.ListByTenant(jc.Ctx, jc.DB, tenantID)
		if err != nil {
			return fmt.Errorf("list %s entities: %w", src.EntityType(), err)
		}
		for _, e := range entities {
			pending = append(pending, work{entityType: src.EntityType(), entity: e})
		}
	}
	total := len(pending)
	if total == 0 {
		jc.Complete("done", map[string]any{"translated": 0, "skipped": 0, "failed": 0})
		return nil
	}

	jc.Progress("translate", 0)

	var translated, skipped, failed, done atomic.Int64
	g, ctx := errgroup.WithContext(jc.Ctx)
	g.SetLimit(h.concurrency)
	for _, item := range pending {
		item := item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			wasSkipped, err := h.translation.BackfillEntityLanguage(ctx, item.entityType, item.entity.ID, item.entity.Fields, language)
			switch {
			case err != nil:
				// One bad entity must not abort the whole backfill.
				failed.Add(1)
				h.log.Warn("Backfill failed for entity",
					"tenant_id", tenantID,
					"entity_type", item.entityType,
					"entity_id", item.entity.ID,
					"language", language,
					"error", err,
				)
			case wasSkipped:
				skipped.Add(1)
			default:
				translated.Add(1)
			}
			n := done.Add(1)
			if n%10 == 0 || n == int64(total) {
				jc.Progress("translate", int(n*100/int64(total)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	result := map[string]any{
		"language":   language,
		"translated": translated.Load(),
		"skipped":    skipped.Load(),
		"failed":     failed.Load(),
	}
	h.log.Info("Language backfill finished",
		"tenant_id", tenantID,
		"language", language,
		"translated", translated.Load(),
		"skipped", skipped.Load(),
		"failed", failed.Load(),
	)
	jc.Complete("done", result)
	return nil
}
