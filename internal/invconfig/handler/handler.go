package handler

import (
	"net/http"
	"strconv"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/invconfig"
	"github.com/dmtrung/gostore-inventory-service/internal/invconfig/dto"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ConfigHandler struct {
	uc     invconfig.UseCase
	logger logger.ZapLogger
}

func NewConfigHandler(uc invconfig.UseCase, log logger.ZapLogger) *ConfigHandler {
	return &ConfigHandler{uc: uc, logger: log}
}

func (h *ConfigHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/configurations")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/active", h.GetActive)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/activate", h.Activate)
}

func (h *ConfigHandler) GetActive(c *gin.Context) {
	cfg, err := h.uc.GetActive(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) List(c *gin.Context) {
	f := &dto.ConfigurationFilters{
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 0),
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		f.IsActive = &active
	}

	items, count, err := h.uc.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": count})
}

func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) Create(c *gin.Context) {
	var in dto.ConfigurationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.uc.Create(c.Request.Context(), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *ConfigHandler) Update(c *gin.Context) {
	var in dto.ConfigurationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.uc.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) Activate(c *gin.Context) {
	cfg, err := h.uc.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("configuration handler error", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
