package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/ctxmanage"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

// Catalog reads proxy straight through to the external product service.

func (h *Handler) ListProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		slog.Error("error listing products", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"message": "Product service is unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) GetProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	productID := c.Param("id")

	product, err := h.catalog.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		slog.Error("error retrieving product", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, productID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"message": "Product service is unavailable"})
		return
	}
	c.JSON(http.StatusOK, product)
}
