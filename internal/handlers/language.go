package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablemate/backoffice-backend/internal/services"
)

type LanguageHandler struct {
	language    services.LanguageService
	translation services.TranslationService
}

func NewLanguageHandler(language services.LanguageService, translation services.TranslationService) *LanguageHandler {
	return &LanguageHandler{language: language, translation: translation}
}

// GET /api/languages
func (h *LanguageHandler) List(c *gin.Context) {
	languages, err := h.language.ListActive(c.Request.Context())
	if err != nil {
		RespondServiceError(c, "lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{"languages": languages})
}

type createLanguageRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	NativeName string `json:"native_name"`
	RTL        bool   `json:"rtl"`
}

// POST /api/languages
func (h *LanguageHandler) Create(c *gin.Context) {
	var req createLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	lang, err := h.language.Create(c.Request.Context(), req.Code, req.Name, req.NativeName, req.RTL)
	if err != nil {
		RespondServiceError(c, "create_failed", err)
		return
	}
	RespondOK(c, gin.H{"language": lang})
}

// PUT /api/languages/:code/default
func (h *LanguageHandler) SetDefault(c *gin.Context) {
	if err := h.language.SetDefault(c.Request.Context(), c.Param("code")); err != nil {
		RespondServiceError(c, "set_default_failed", err)
		return
	}
	RespondOK(c, gin.H{"updated": true})
}

// DELETE /api/languages/:code
func (h *LanguageHandler) Deactivate(c *gin.Context) {
	if err := h.language.Deactivate(c.Request.Context(), c.Param("code")); err != nil {
		RespondServiceError(c, "deactivate_failed", err)
		return
	}
	RespondOK(c, gin.H{"deactivated": true})
}

// GET /api/tenant/languages
func (h *LanguageHandler) TenantLanguages(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "invalid_tenant_id", fmt.Errorf("X-Tenant-ID is not a uuid"))
		return
	}
	codes, err := h.language.TenantLanguages(c.Request.Context(), tenant)
	if err != nil {
		RespondServiceError(c, "lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{"languages": codes})
}

// POST /api/tenant/languages/:code/enable
//
// Enabling kicks off the background backfill; the queued job is returned so
// the client can poll its status.
func (h *LanguageHandler) EnableForTenant(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "invalid_tenant_id", fmt.Errorf("X-Tenant-ID is not a uuid"))
		return
	}
	user, ok := userID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", fmt.Errorf("X-User-ID is not a uuid"))
		return
	}
	job, err := h.translation.EnableLanguageForTenant(c.Request.Context(), tenant, c.Param("code"), user)
	if err != nil {
		RespondServiceError(c, "enable_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// DELETE /api/tenant/languages/:code
func (h *LanguageHandler) DisableForTenant(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "invalid_tenant_id", fmt.Errorf("X-Tenant-ID is not a uuid"))
		return
	}
	if err := h.language.DisableForTenant(c.Request.Context(), tenant, c.Param("code")); err != nil {
		RespondServiceError(c, "disable_failed", err)
		return
	}
	RespondOK(c, gin.H{"disabled": true})
}
