package db

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/types"
	"github.com/tablemate/backoffice-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "backoffice", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.SupportedLanguage{},
		&types.TenantLanguage{},
		&types.TranslationMetadata{},
		&types.Translation{},
		&types.Category{},
		&types.MenuItem{},
		&types.Branch{},
		&types.JobRun{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	if err := s.db.Exec(`
		DO $$ BEGIN
			ALTER TABLE "translation"
			ADD CONSTRAINT "fk_translation_metadata_id"
			FOREIGN KEY ("metadata_id")
			REFERENCES "translation_metadata"("id")
			ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("failed to add fk_translation_metadata_id: %w", err)
	}
	if err := s.db.Exec(`
		DO $$ BEGIN
			ALTER TABLE "menu_item"
			ADD CONSTRAINT "fk_menu_item_category_id"
			FOREIGN KEY ("category_id")
			REFERENCES "category"("id")
			ON DELETE SET NULL;
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("failed to add fk_menu_item_category_id: %w", err)
	}
	return nil
}

// SeedSupportedLanguages inserts the baseline catalog rows. Existing rows are
// left untouched, so redeploys never flip the default back.
func (s *PostgresService) SeedSupportedLanguages() error {
	seed := []types.SupportedLanguage{
		{Code: "en", Name: "English", NativeName: "English", RTL: false, IsActive: true, IsDefault: true},
		{Code: "ar", Name: "Arabic", NativeName: "العربية", RTL: true, IsActive: true},
		{Code: "ku", Name: "Kurdish", NativeName: "کوردی", RTL: true, IsActive: true},
		{Code: "fr", Name: "French", NativeName: "Français", RTL: false, IsActive: true},
		{Code: "tr", Name: "Turkish", NativeName: "Türkçe", RTL: false, IsActive: true},
	}
	for i := range seed {
		var existing types.SupportedLanguage
		err := s.db.Where("code = ?", seed[i].Code).Limit(1).Find(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to seed supported languages: %w", err)
		}
		if existing.ID != uuid.Nil {
			continue
		}
		if err := s.db.Create(&seed[i]).Error; err != nil {
			return fmt.Errorf("failed to seed language %s: %w", seed[i].Code, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
