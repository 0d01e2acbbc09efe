package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tablemate/backoffice-backend/internal/handlers"
)

type RouterConfig struct {
	TranslationHandler *handlers.TranslationHandler
	LanguageHandler    *handlers.LanguageHandler
	JobsHandler        *handlers.JobsHandler
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Tenant-ID", "X-User-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Translation cache introspection. Own prefix so "cache" can never
		// collide with an entity type.
		api.GET("/translation-cache/stats", cfg.TranslationHandler.CacheStats)
		api.POST("/translation-cache/clear-expired", cfg.TranslationHandler.ClearExpiredCache)

		// Translations
		api.POST("/translations/:entityType/:entityID", cfg.TranslationHandler.CreateTranslations)
		api.GET("/translations/:entityType/:entityID", cfg.TranslationHandler.GetEntityTranslations)
		api.DELETE("/translations/:entityType/:entityID", cfg.TranslationHandler.DeleteEntityTranslations)
		api.POST("/translations/:entityType/:entityID/retranslate", cfg.TranslationHandler.RetranslateEntity)
		api.GET("/translations/:entityType/:entityID/:language/:field", cfg.TranslationHandler.GetTranslation)
		api.PUT("/translations/:entityType/:entityID/:language/:field", cfg.TranslationHandler.UpdateTranslation)

		// Language catalog
		api.GET("/languages", cfg.LanguageHandler.List)
		api.POST("/languages", cfg.LanguageHandler.Create)
		api.PUT("/languages/:code/default", cfg.LanguageHandler.SetDefault)
		api.DELETE("/languages/:code", cfg.LanguageHandler.Deactivate)

		// Tenant languages
		api.GET("/tenant/languages", cfg.LanguageHandler.TenantLanguages)
		api.POST("/tenant/languages/:code/enable", cfg.LanguageHandler.EnableForTenant)
		api.DELETE("/tenant/languages/:code", cfg.LanguageHandler.DisableForTenant)

		// Jobs
		api.GET("/jobs", cfg.JobsHandler.GetLatest)
		api.GET("/jobs/:id", cfg.JobsHandler.GetByID)
	}

	return router
}
