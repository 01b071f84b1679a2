package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/checkout"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/sessions"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

// respondDomainError maps typed domain failures to stable status codes.
// Anything unmapped is an internal error; its detail stays in the logs.
func respondDomainError(c *gin.Context, traceId string, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid username or password"})
	case errors.Is(err, sessions.ErrSessionNotFound):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	case errors.Is(err, users.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Account not found"})
	case errors.Is(err, users.ErrDuplicate):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Username or email already taken"})
	case errors.Is(err, cart.ErrCartNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Cart not found"})
	case errors.Is(err, cart.ErrCartNotOpen):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Cart is not open"})
	case errors.Is(err, cart.ErrOpenCartExists):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "An open cart already exists"})
	case errors.Is(err, catalog.ErrProductNotFound):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Unknown product"})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
	case errors.Is(err, checkout.ErrOutOfStock):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Insufficient stock available"})
	case errors.Is(err, orders.ErrCartModified):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Cart changed during checkout, please retry"})
	case errors.Is(err, orders.ErrOrderNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
	case errors.Is(err, orders.ErrOrderNotPending):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Order is not pending"})
	default:
		slog.Error("unexpected failure", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
	}
}
