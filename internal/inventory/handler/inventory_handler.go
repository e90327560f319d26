package handler

import (
	"net/http"

	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	inventoryService *service.InventoryService
	logger           *zap.Logger
}

func NewInventoryHandler(inventoryService *service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	productID := c.Param("productId")

	record, err := h.inventoryService.GetStock(c.Request.Context(), productID)
	if err != nil {
		if err == service.ErrStockNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Stock record not found",
			})
			return
		}

		h.logger.Error("Failed to get stock record",
			zap.String("product_id", productID),
			zap.Error(err))

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get stock record",
		})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *InventoryHandler) ListStock(c *gin.Context) {
	records, err := h.inventoryService.ListStock(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list stock records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list stock records",
		})
		return
	}

	c.JSON(http.StatusOK, records)
}
