package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/ctxmanage"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

// GetCart returns the caller's current open cart.
func (h *Handler) GetCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sc, _ := auth.SessionFromContext(c.Request.Context())

	current, err := h.carts.GetOpenCart(c.Request.Context(), sc.AccountID)
	if err != nil {
		respondDomainError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

// AddToCart upserts a line on the caller's open cart, creating the cart on
// the first mutating action. A request without a product just opens a cart.
func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sc, _ := auth.SessionFromContext(c.Request.Context())

	var request struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}
	}

	if request.ProductID == "" {
		created, err := h.carts.CreateCart(c.Request.Context(), sc.AccountID)
		if err != nil {
			respondDomainError(c, traceId, err)
			return
		}
		c.JSON(http.StatusOK, created)
		return
	}

	if request.Quantity <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Quantity must be a positive integer"})
		return
	}

	current, err := h.carts.GetOpenCart(c.Request.Context(), sc.AccountID)
	if err != nil {
		if !errors.Is(err, cart.ErrCartNotFound) {
			respondDomainError(c, traceId, err)
			return
		}
		current, err = h.carts.CreateCart(c.Request.Context(), sc.AccountID)
		if err != nil {
			respondDomainError(c, traceId, err)
			return
		}
	}

	err = h.carts.UpsertItem(c.Request.Context(), current.ID, sc.AccountID, request.ProductID, request.Quantity)
	if err != nil {
		slog.Error("error adding product to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.ProductID, request.ProductID))
		respondDomainError(c, traceId, err)
		return
	}

	updated, err := h.carts.GetOpenCart(c.Request.Context(), sc.AccountID)
	if err != nil {
		respondDomainError(c, traceId, err)
		return
	}

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.ProductID, request.ProductID), slog.Int("Quantity", request.Quantity),
		slog.String(logkey.UserID, sc.AccountID))
	c.JSON(http.StatusOK, updated)
}

// GetCartDetail joins the cart lines with live catalog prices for display.
func (h *Handler) GetCartDetail(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid cart id"})
		return
	}

	detail, err := h.carts.GetCartDetail(c.Request.Context(), cartID)
	if err != nil {
		respondDomainError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RemoveCartItem deletes one line; removing an absent line succeeds.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sc, _ := auth.SessionFromContext(c.Request.Context())

	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid cart id"})
		return
	}

	productID := c.Query("product_id")
	if productID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "product_id is required"})
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), cartID, sc.AccountID, productID); err != nil {
		slog.Error("error removing cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.CartID, cartID))
		respondDomainError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}
