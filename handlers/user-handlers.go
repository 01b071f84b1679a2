package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/sessions"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/stores/kafka"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
	"github.com/Vaibhavtech2006/E-commerce-website/middleware"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/ctxmanage"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

func (h *Handler) Register(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if fieldErrs := h.validateStruct(newUser); fieldErrs != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
		return
	}

	user, err := h.accounts.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		slog.Error("error in inserting the user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		respondDomainError(c, traceId, err)
		return
	}

	if h.events != nil {
		event := kafka.AccountCreatedEvent{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		}
		if err := h.events.Publish(c.Request.Context(), kafka.TopicAccountCreated, user.ID, event); err != nil {
			slog.Error("failed to publish account-created event",
				slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}

	slog.Info("user registered", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, user.ID))
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if fieldErrs := h.validateStruct(request); fieldErrs != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
		return
	}

	user, err := h.password.Authenticate(c.Request.Context(), auth.PasswordCredential{
		Username: request.Username,
		Password: request.Password,
	})
	if err != nil {
		slog.Error("login failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		respondDomainError(c, traceId, err)
		return
	}

	h.establishSession(c, traceId, user)
}

func (h *Handler) GoogleLogin(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if h.google == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Federated login is not configured"})
		return
	}

	url, err := h.google.AuthURL()
	if err != nil {
		slog.Error("failed to build google auth url", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if h.google == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Federated login is not configured"})
		return
	}

	if err := h.google.VerifyState(c.Query("state")); err != nil {
		slog.Error("oauth state rejected", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid OAuth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Missing authorization code"})
		return
	}

	user, err := h.google.Authenticate(c.Request.Context(), auth.FederatedCredential{Provider: "google", Code: code})
	if err != nil {
		slog.Error("google login failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		respondDomainError(c, traceId, err)
		return
	}

	h.establishSession(c, traceId, user)
}

// establishSession creates the server-side record and hands the opaque token
// to the client as both cookie and body.
func (h *Handler) establishSession(c *gin.Context, traceId string, user users.User) {
	session, err := h.sessions.Create(c.Request.Context(), user.ID, user.Username)
	if err != nil {
		slog.Error("failed to create session", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	c.SetCookie(middleware.SessionCookie, session.Token, 0, "/", "", false, true)
	slog.Info("session established", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, user.ID))
	c.JSON(http.StatusOK, gin.H{
		"token":    session.Token,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	sc, ok := auth.SessionFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.sessions.Destroy(c.Request.Context(), sc.Token); err != nil {
		slog.Error("failed to destroy session", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) CurrentUser(c *gin.Context) {
	sc, ok := auth.SessionFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sc.AccountID, "username": sc.Username})
}

func (h *Handler) ExtendSession(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	sc, ok := auth.SessionFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.sessions.Extend(c.Request.Context(), sc.Token); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		slog.Error("failed to extend session", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session extended"})
}

// validateStruct returns per-field messages, nil when the struct is valid.
func (h *Handler) validateStruct(s any) map[string]string {
	err := h.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs := map[string]string{}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			switch vErr.Tag() {
			case "required":
				fieldErrs[vErr.Field()] = "value missing"
			case "min":
				fieldErrs[vErr.Field()] = "value is shorter than " + vErr.Param()
			case "max":
				fieldErrs[vErr.Field()] = "value is longer than " + vErr.Param()
			case "email":
				fieldErrs[vErr.Field()] = "is not a valid email"
			default:
				fieldErrs[vErr.Field()] = "is invalid"
			}
		}
		return fieldErrs
	}
	return map[string]string{"request": "is invalid"}
}
