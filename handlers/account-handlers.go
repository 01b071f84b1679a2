package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/ctxmanage"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

// GetAccount returns the caller's own account; the OwnsAccount guard has
// already matched the route id against the session identity.
func (h *Handler) GetAccount(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	user, err := h.accounts.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		slog.Error("error retrieving account", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		respondDomainError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var upd users.UpdateUser
	if err := c.ShouldBindJSON(&upd); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if fieldErrs := h.validateStruct(upd); fieldErrs != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
		return
	}

	user, err := h.accounts.UpdateUserByID(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		slog.Error("error updating account", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		respondDomainError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
