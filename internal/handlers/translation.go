package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tablemate/backoffice-backend/internal/services"
)

type TranslationHandler struct {
	translation services.TranslationService
}

func NewTranslationHandler(translation services.TranslationService) *TranslationHandler {
	return &TranslationHandler{translation: translation}
}

type createTranslationsRequest struct {
	Fields         map[string]string `json:"fields" binding:"required"`
	SourceLanguage string            `json:"source_language"`
}

// POST /api/translations/:entityType/:entityID
func (h *TranslationHandler) CreateTranslations(c *gin.Context) {
	entityType := c.Param("entityType")
	entityID, err := uuid.Parse(c.Param("entityID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	var req createTranslationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
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

	fields := make([]services.FieldText, 0, len(req.Fields))
	for name, text := range req.Fields {
		fields = append(fields, services.FieldText{FieldName: name, Text: text})
	}
	result, err := h.translation.CreateBatchTranslations(c.Request.Context(), entityType, entityID, fields, services.TranslateOptions{
		SourceLanguage: req.SourceLanguage,
		TenantID:       tenant,
		UserID:         user,
	})
	if err != nil {
		RespondServiceError(c, "translation_failed", err)
		return
	}
	RespondOK(c, result)
}

type updateTranslationRequest struct {
	Text string `json:"text" binding:"required"`
}

// PUT /api/translations/:entityType/:entityID/:language/:field
func (h *TranslationHandler) UpdateTranslation(c *gin.Context) {
	entityType := c.Param("entityType")
	entityID, err := uuid.Parse(c.Param("entityID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	var req updateTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, ok := userID(c)
	if !ok || user == nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", fmt.Errorf("manual edits require a valid X-User-ID"))
		return
	}
	if err := h.translation.UpdateTranslation(c.Request.Context(), entityType, entityID, c.Param("language"), c.Param("field"), req.Text, *user); err != nil {
		RespondServiceError(c, "update_failed", err)
		return
	}
	RespondOK(c, gin.H{"updated": true})
}

// GET /api/translations/:entityType/:entityID
func (h *TranslationHandler) GetEntityTranslations(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("entityID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	translations, err := h.translation.GetEntityTranslations(c.Request.Context(), c.Param("entityType"), entityID)
	if err != nil {
		RespondServiceError(c, "lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{"translations": translations})
}

// GET /api/translations/:entityType/:entityID/:language/:field?fallback=en
func (h *TranslationHandler) GetTranslation(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("entityID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	row, err := h.translation.GetTranslation(
		c.Request.Context(),
		c.Param("entityType"),
		entityID,
		c.Param("language"),
		c.Param("field"),
		c.Query("fallback"),
	)
	if err != nil {
		RespondServiceError(c, "lookup_failed", err)
		return
	}
	if row == nil {
		RespondError(c, http.StatusNotFound, "translation_not_found", fmt.Errorf("no translation stored"))
		return
	}
	RespondOK(c, gin.H{"translation": row})
}

// DELETE /api/translations/:entityType/:entityID
func (h *TranslationHandler) DeleteEntityTranslations(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("entityID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	if err := h.translation.DeleteEntityTranslations(c.Request.Context(), c.Param("entityType"), entityID); err != nil {
		RespondServiceError(c, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

type retranslateRequest struct {
	TargetLanguages []string `json:"target_languages"`
}

// POST /api/translations/:entityType/:entityID/retranslate
func (h *TranslationHandler) RetranslateEntity(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("entityID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_entity_id", err)
		return
	}
	var req retranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	tenant, ok := tenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "invalid_tenant_id", fmt.Errorf("X-Tenant-ID is not a uuid"))
		return
	}
	result, err := h.translation.RetranslateEntity(c.Request.Context(), c.Param("entityType"), entityID, req.TargetLanguages, tenant)
	if err != nil {
		RespondServiceError(c, "retranslate_failed", err)
		return
	}
	RespondOK(c, result)
}

// GET /api/translation-cache/stats
func (h *TranslationHandler) CacheStats(c *gin.Context) {
	RespondOK(c, h.translation.CacheStats())
}

// POST /api/translation-cache/clear-expired
func (h *TranslationHandler) ClearExpiredCache(c *gin.Context) {
	RespondOK(c, gin.H{"removed": h.translation.ClearExpiredCache()})
}
