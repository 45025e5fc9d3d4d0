package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"axs-learn/internal/domain"
	"axs-learn/internal/service"
)

// SettingsHandler mantiene dependencias para endpoints de preferencias.
type SettingsHandler struct {
	logger   *zap.Logger
	settings *service.SettingsService
}

func NewSettingsHandler(logger *zap.Logger, settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		logger:   logger,
		settings: settings,
	}
}

// Get maneja GET /api/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	settings, err := h.settings.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("fetch settings failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Update maneja PUT /api/settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid settings update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed"})
		return
	}

	settings, err := h.settings.ApplyPartialUpdate(c.Request.Context(), userID, patch)
	if err != nil {
		h.logger.Error("update settings failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// IncrementUsage maneja POST /api/settings/usage/:feature.
func (h *SettingsHandler) IncrementUsage(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	stats, err := h.settings.IncrementUsage(c.Request.Context(), userID, c.Param("feature"))
	if err != nil {
		h.logger.Error("increment usage failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Usage updated", "stats": stats})
}
