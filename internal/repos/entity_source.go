package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/types"
)

// Entity type names as stored on translation_metadata rows.
const (
	EntityTypeCategory = "category"
	EntityTypeMenuItem = "menu_item"
	EntityTypeBranch   = "branch"
)

// TranslatableEntity is one domain row reduced to its translatable columns.
type TranslatableEntity struct {
	ID     uuid.UUID
	Fields map[string]string
}

// EntitySource lists the translatable rows of one domain table for a tenant.
// The backfill job walks every registered source.
type EntitySource interface {
	EntityType() string
	ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]TranslatableEntity, error)
}

func NewEntitySources(db *gorm.DB, baseLog *logger.Logger) []EntitySource {
	return []EntitySource{
		&categorySource{db: db, log: baseLog.With("repo", "CategorySource")},
		&menuItemSource{db: db, log: baseLog.With("repo", "MenuItemSource")},
		&branchSource{db: db, log: baseLog.With("repo", "BranchSource")},
	}
}

type categorySource struct {
	db  *gorm.DB
	log *logger.Logger
}

func (s *categorySource) EntityType() string { return EntityTypeCategory }

func (s *categorySource) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]TranslatableEntity, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out []TranslatableEntity
	if tenantID == uuid.Nil {
		return out, nil
	}
	var rows []*types.Category
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, TranslatableEntity{
			ID: row.ID,
			Fields: map[string]string{
				"name":        row.Name,
				"description": row.Description,
			},
		})
	}
	return out, nil
}

type menuItemSource struct {
	db  *gorm.DB
	log *logger.Logger
}

func (s *menuItemSource) EntityType() string { return EntityTypeMenuItem }

func (s *menuItemSource) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]TranslatableEntity, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out []TranslatableEntity
	if tenantID == uuid.Nil {
		return out, nil
	}
	var rows []*types.MenuItem
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, TranslatableEntity{
			ID: row.ID,
			Fields: map[string]string{
				"name":        row.Name,
				"description": row.Description,
			},
		})
	}
	return out, nil
}

type branchSource struct {
	db  *gorm.DB
	log *logger.Logger
}

func (s *branchSource) EntityType() string { return EntityTypeBranch }

func (s *branchSource) ListByTenant(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) ([]TranslatableEntity, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out []TranslatableEntity
	if tenantID == uuid.Nil {
		return out, nil
	}
	var rows []*types.Branch
	if err := transaction.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out = append(out, TranslatableEntity{
			ID: row.ID,
			Fields: map[string]string{
				"name":    row.Name,
				"address": row.Address,
				"city":    row.City,
			},
		})
	}
	return out, nil
}
