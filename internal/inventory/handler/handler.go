package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmtrung/gostore-inventory-service/internal/apperrors"
	"github.com/dmtrung/gostore-inventory-service/internal/auth"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory"
	"github.com/dmtrung/gostore-inventory-service/internal/inventory/dto"
	"github.com/dmtrung/gostore-inventory-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: log}
}

func (h *InventoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/inventory")
	g.GET("", h.List)
	g.POST("", h.Ensure)
	g.GET("/stats", h.Stats)
	g.GET("/low-stock", h.LowStock)
	g.GET("/transactions/summary", h.TransactionsSummary)
	g.GET("/:id", h.Get)
	g.POST("/:id/adjust", h.Adjust)
	g.GET("/:id/history", h.History)
}

func (h *InventoryHandler) List(c *gin.Context) {
	f := &dto.InventoryFilters{
		ProductID:   c.Query("product_id"),
		StockStatus: c.Query("stock_status"),
		Page:        intQuery(c, "page", 1),
		PageSize:    intQuery(c, "page_size", 0),
	}

	views, count, err := h.uc.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "total": count})
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	f := &dto.InventoryFilters{
		StockStatus: "low_stock",
		Page:        intQuery(c, "page", 1),
		PageSize:    intQuery(c, "page_size", 0),
	}

	views, count, err := h.uc.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "total": count})
}

type ensureRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// Ensure is the explicit product-lifecycle hook: called when a product is
// created so a zero-quantity ledger row exists. Idempotent.
func (h *InventoryHandler) Ensure(c *gin.Context) {
	var req ensureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, err := h.uc.EnsureInventory(c.Request.Context(), req.ProductID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	inv, err := h.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

type adjustRequest struct {
	Type            string  `json:"type" binding:"required,oneof=set add reduce"`
	Quantity        float64 `json:"quantity"`
	Reason          string  `json:"reason"`
	ReferenceNumber string  `json:"reference_number"`
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	inv, err := h.uc.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	in := &dto.StockMutationInput{
		ProductID:       inv.ProductID,
		Quantity:        req.Quantity,
		Reason:          req.Reason,
		ReferenceNumber: req.ReferenceNumber,
		Actor:           auth.Actor(c),
	}

	switch req.Type {
	case "set":
		inv, err = h.uc.SetStock(ctx, in)
	case "add":
		inv, err = h.uc.AddStock(ctx, in)
	case "reduce":
		inv, err = h.uc.ReduceStock(ctx, in)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *InventoryHandler) History(c *gin.Context) {
	f := &dto.TransactionFilters{
		InventoryID:     c.Param("id"),
		TransactionType: c.Query("type"),
		ReferenceNumber: c.Query("reference_number"),
		Page:            intQuery(c, "page", 1),
		PageSize:        intQuery(c, "page_size", 0),
	}

	txns, count, err := h.uc.ListTransactions(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": txns, "total": count})
}

func (h *InventoryHandler) TransactionsSummary(c *gin.Context) {
	f := &dto.TransactionFilters{
		ProductID: c.Query("product_id"),
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

	summaries, err := h.uc.SummarizeTransactions(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": summaries})
}

func (h *InventoryHandler) Stats(c *gin.Context) {
	stats, err := h.uc.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *InventoryHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("inventory handler error", zap.Error(err))
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
