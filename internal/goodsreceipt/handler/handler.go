package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/auth"
	"github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt"
	"github.com/dmtrung/gostore-inventory-service/internal/goodsreceipt/dto"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	uc     goodsreceipt.UseCase
	logger logger.ZapLogger
}

func NewReceiptHandler(uc goodsreceipt.UseCase, log logger.ZapLogger) *ReceiptHandler {
	return &ReceiptHandler{uc: uc, logger: log}
}

func (h *ReceiptHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/goods-receipts")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/apply", h.Apply)
	g.POST("/:id/unapply", h.Unapply)
}

func (h *ReceiptHandler) List(c *gin.Context) {
	f := &dto.ReceiptFilters{
		Search:   c.Query("search"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 0),
	}
	if v := c.Query("is_applied"); v != "" {
		applied := v == "true"
		f.IsApplied = &applied
	}
	if v := c.Query("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.StartDate = &t
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.EndDate = &t
		}
	}

	items, count, err := h.uc.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": count})
}

func (h *ReceiptHandler) Create(c *gin.Context) {
	var in dto.ReceiptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.uc.Create(c.Request.Context(), &in, auth.Actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *ReceiptHandler) Get(c *gin.Context) {
	receipt, err := h.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *ReceiptHandler) Update(c *gin.Context) {
	var in dto.ReceiptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.uc.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *ReceiptHandler) Delete(c *gin.Context) {
	if err := h.uc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReceiptHandler) Apply(c *gin.Context) {
	receipt, err := h.uc.Apply(c.Request.Context(), c.Param("id"), auth.Actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *ReceiptHandler) Unapply(c *gin.Context) {
	receipt, err := h.uc.Unapply(c.Request.Context(), c.Param("id"), auth.Actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *ReceiptHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("goods receipt handler error", zap.Error(err))
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
