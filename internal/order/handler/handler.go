package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/auth"
	"github.com/dmtrung/gostore-inventory-service/internal/order"
	"github.com/dmtrung/gostore-inventory-service/internal/order/dto"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: log}
}

func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/orders")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/ship", h.Ship)
	g.POST("/:id/cancel", h.Cancel)
}

func (h *OrderHandler) List(c *gin.Context) {
	f := &dto.OrderFilters{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Page:       intQuery(c, "page", 1),
		PageSize:   intQuery(c, "page_size", 0),
	}

	items, count, err := h.uc.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": count})
}

func (h *OrderHandler) Create(c *gin.Context) {
	var in dto.OrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	result, err := h.uc.Create(c.Request.Context(), &in, auth.Actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if result.Replayed {
		c.JSON(http.StatusOK, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) Get(c *gin.Context) {
	ord, err := h.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

func (h *OrderHandler) Ship(c *gin.Context) {
	result, err := h.uc.Ship(c.Request.Context(), c.Param("id"), auth.Actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	result, err := h.uc.Cancel(c.Request.Context(), c.Param("id"), auth.Actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("order handler error", zap.Error(err))
	}

	body := gin.H{"error": err.Error()}
	var insufficient *apperrors.InsufficientStockError
	if errors.As(err, &insufficient) {
		body["shortages"] = insufficient.Shortages
	}
	c.JSON(status, body)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
