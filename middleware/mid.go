// Package middleware carries the request-scoped chain: logging, session
// authentication and per-route ownership guards assembled at registration
// time.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/sessions"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/ctxmanage"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "session_token"

var errNotOwner = errors.New("caller does not own the resource")

// sessionGetter validates an opaque token against the server-side store.
type sessionGetter interface {
	Get(ctx context.Context, token string) (sessions.Session, error)
}

// cartResolver resolves a cart to its owning account.
type cartResolver interface {
	GetCartByID(ctx context.Context, cartID int64) (cart.Cart, error)
}

// orderResolver resolves an order to its owning account.
type orderResolver interface {
	GetOrderByID(ctx context.Context, orderID int64) (orders.Order, error)
}

type Mid struct {
	sessions sessionGetter
	carts    cartResolver
	orders   orderResolver
}

func NewMid(sessionStore sessionGetter, carts cartResolver, orderStore orderResolver) (*Mid, error) {
	if sessionStore == nil {
		return nil, fmt.Errorf("session store is nil")
	}
	return &Mid{sessions: sessionStore, carts: carts, orders: orderStore}, nil
}

// Authentication resolves the session token to an identity and attaches the
// SessionContext to the request. Requests without a live session stop here
// with 401.
func (m *Mid) Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		session, err := m.sessions.Get(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, sessions.ErrSessionNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			slog.Error("session lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}

		sc := auth.SessionContext{
			Token:     session.Token,
			AccountID: session.AccountID,
			Username:  session.Username,
		}
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sc))
		c.Next()
	}
}

// Guard decides whether the authenticated identity may touch the resource a
// route addresses. Guards run in order and short-circuit on the first denial.
type Guard func(c *gin.Context, sc auth.SessionContext) error

// Authorize wraps a handler with ownership guards. It assumes Authentication
// already ran on the group.
func (m *Mid) Authorize(next gin.HandlerFunc, guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		sc, ok := auth.SessionFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		for _, guard := range guards {
			if err := guard(c, sc); err != nil {
				switch {
				case errors.Is(err, errNotOwner):
					slog.Error("ownership denied", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, sc.AccountID))
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
				case errors.Is(err, cart.ErrCartNotFound), errors.Is(err, orders.ErrOrderNotFound):
					c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not Found"})
				case errors.Is(err, errBadResourceRef):
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid resource id"})
				default:
					slog.Error("guard evaluation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
				}
				return
			}
		}
		next(c)
	}
}

var errBadResourceRef = errors.New("malformed resource reference")

// OwnsAccount allows only the account whose id is in the named route param.
func (m *Mid) OwnsAccount(param string) Guard {
	return func(c *gin.Context, sc auth.SessionContext) error {
		if c.Param(param) != sc.AccountID {
			return errNotOwner
		}
		return nil
	}
}

// OwnsCart resolves the cart in the named route param and allows only its
// owning account. The store re-checks ownership inside its own transaction,
// so this guard is a fast deny, not the last line of defense.
func (m *Mid) OwnsCart(param string) Guard {
	return func(c *gin.Context, sc auth.SessionContext) error {
		cartID, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil {
			return errBadResourceRef
		}
		resolved, err := m.carts.GetCartByID(c.Request.Context(), cartID)
		if err != nil {
			return err
		}
		if resolved.UserID != sc.AccountID {
			return errNotOwner
		}
		return nil
	}
}

// OwnsOrder resolves the order in the named route param and allows only its
// owning account.
func (m *Mid) OwnsOrder(param string) Guard {
	return func(c *gin.Context, sc auth.SessionContext) error {
		orderID, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil {
			return errBadResourceRef
		}
		resolved, err := m.orders.GetOrderByID(c.Request.Context(), orderID)
		if err != nil {
			return err
		}
		if resolved.UserID != sc.AccountID {
			return errNotOwner
		}
		return nil
	}
}

func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
