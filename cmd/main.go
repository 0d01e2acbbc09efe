package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tablemate/backoffice-backend/internal/db"
	"github.com/tablemate/backoffice-backend/internal/handlers"
	"github.com/tablemate/backoffice-backend/internal/jobs"
	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/repos"
	"github.com/tablemate/backoffice-backend/internal/server"
	"github.com/tablemate/backoffice-backend/internal/services"
	"github.com/tablemate/backoffice-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	if err = postgresService.SeedSupportedLanguages(); err != nil {
		log.Warn("Language catalog seed failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	metadataRepo := repos.NewTranslationMetadataRepo(thePG, log)
	translationRepo := repos.NewTranslationRepo(thePG, log)
	supportedLanguageRepo := repos.NewSupportedLanguageRepo(thePG, log)
	tenantLanguageRepo := repos.NewTenantLanguageRepo(thePG, log)
	jobRunRepo := repos.NewJobRunRepo(thePG, log)
	entitySources := repos.NewEntitySources(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	modelClient, err := services.NewModelClient(log)
	if err != nil {
		log.Error("Could not init ModelClient", "error", err)
		os.Exit(1)
	}
	cacheTTL := utils.GetEnvAsInt("TRANSLATION_CACHE_TTL_SECONDS", int(services.DefaultCacheTTL.Seconds()), log)
	cacheSize := utils.GetEnvAsInt("TRANSLATION_CACHE_MAX_SIZE", services.DefaultCacheMaxSize, log)
	cache := services.NewTranslationCache(log, time.Duration(cacheTTL)*time.Second, cacheSize)
	detector := services.NewLanguageDetector(log, modelClient)
	translator := services.NewBatchTranslator(log, modelClient, cache)
	translationService := services.NewTranslationService(
		log,
		metadataRepo,
		translationRepo,
		supportedLanguageRepo,
		tenantLanguageRepo,
		jobRunRepo,
		detector,
		translator,
		cache,
	)
	languageService := services.NewLanguageService(log, supportedLanguageRepo, tenantLanguageRepo)

	// Job worker
	log.Info("Setting up job worker from main...")
	registry := jobs.NewRegistry()
	backfillConcurrency := utils.GetEnvAsInt("BACKFILL_CONCURRENCY", 4, log)
	if err := registry.Register(jobs.NewLanguageBackfillHandler(log, entitySources, translationService, backfillConcurrency)); err != nil {
		log.Error("Could not register backfill handler", "error", err)
		os.Exit(1)
	}
	pollSeconds := utils.GetEnvAsInt("JOB_POLL_INTERVAL_SECONDS", 1, log)
	worker := jobs.NewWorker(thePG, log, jobRunRepo, registry, time.Duration(pollSeconds)*time.Second)
	worker.Start(context.Background())

	// Handlers
	log.Info("Setting up handlers from main...")
	translationHandler := handlers.NewTranslationHandler(translationService)
	languageHandler := handlers.NewLanguageHandler(languageService, translationService)
	jobsHandler := handlers.NewJobsHandler(jobRunRepo)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		origins = strings.Split(raw, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		TranslationHandler: translationHandler,
		LanguageHandler:    languageHandler,
		JobsHandler:        jobsHandler,
		AllowOrigins:       origins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
