package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/sessions"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
	"github.com/Vaibhavtech2006/E-commerce-website/middleware"
)

// Store interfaces are declared handler-side so tests can swap the concrete
// Confs for fakes.

type AccountStore interface {
	InsertUser(ctx context.Context, nu users.NewUser) (users.User, error)
	GetUserByID(ctx context.Context, id string) (users.User, error)
	UpdateUserByID(ctx context.Context, id string, upd users.UpdateUser) (users.User, error)
}

type CartStore interface {
	CreateCart(ctx context.Context, userID string) (cart.Cart, error)
	GetOpenCart(ctx context.Context, userID string) (cart.Cart, error)
	GetCartDetail(ctx context.Context, cartID int64) (cart.Detail, error)
	UpsertItem(ctx context.Context, cartID int64, userID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID int64, userID string, productID string) error
}

type CheckoutEngine interface {
	Checkout(ctx context.Context, cartID int64, userID string) (orders.Order, error)
	ConfirmOrder(ctx context.Context, cartID int64, userID string) (orders.Order, error)
}

type OrderStore interface {
	GetOrdersByUser(ctx context.Context, userID string) ([]orders.Order, error)
	GetOrderByID(ctx context.Context, orderID int64) (orders.Order, error)
}

type SessionManager interface {
	Create(ctx context.Context, accountID, username string) (sessions.Session, error)
	Extend(ctx context.Context, token string) error
	Destroy(ctx context.Context, token string) error
}

// GoogleFlow is the federated login surface: consent redirect, state check,
// code-for-identity exchange.
type GoogleFlow interface {
	AuthURL() (string, error)
	VerifyState(state string) error
	Authenticate(ctx context.Context, cred auth.Credential) (users.User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

type Handler struct {
	accounts AccountStore
	carts    CartStore
	checkout CheckoutEngine
	orders   OrderStore
	sessions SessionManager
	catalog  catalog.Reader
	password auth.Authenticator
	google   GoogleFlow
	events   EventPublisher
	validate *validator.Validate
}

// Deps bundles everything the HTTP surface needs. google and events may be
// nil; the matching features report as unavailable.
type Deps struct {
	Accounts AccountStore
	Carts    CartStore
	Checkout CheckoutEngine
	Orders   OrderStore
	Sessions SessionManager
	Catalog  catalog.Reader
	Password auth.Authenticator
	Google   GoogleFlow
	Events   EventPublisher
}

func NewHandler(deps Deps) (*Handler, error) {
	if deps.Accounts == nil || deps.Carts == nil || deps.Checkout == nil ||
		deps.Orders == nil || deps.Sessions == nil || deps.Catalog == nil || deps.Password == nil {
		return nil, fmt.Errorf("handler dependencies are incomplete")
	}
	return &Handler{
		accounts: deps.Accounts,
		carts:    deps.Carts,
		checkout: deps.Checkout,
		orders:   deps.Orders,
		sessions: deps.Sessions,
		catalog:  deps.Catalog,
		password: deps.Password,
		google:   deps.Google,
		events:   deps.Events,
		validate: validator.New(),
	}, nil
}

// API assembles the router. Guards are attached per route at registration so
// the authorization chain for every endpoint is visible in one place.
func API(m *middleware.Mid, deps Deps) (*gin.Engine, error) {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	h, err := NewHandler(deps)
	if err != nil {
		return nil, err
	}

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	// public surface
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/auth/google", h.GoogleLogin)
	r.GET("/auth/google/callback", h.GoogleCallback)
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	// session-scoped surface
	s := r.Group("/")
	s.Use(m.Authentication())
	{
		s.GET("/logout", h.Logout)
		s.GET("/user", h.CurrentUser)
		s.POST("/extend-session", h.ExtendSession)

		s.GET("/accounts/:id", m.Authorize(h.GetAccount, m.OwnsAccount("id")))
		s.PUT("/accounts/:id", m.Authorize(h.UpdateAccount, m.OwnsAccount("id")))

		s.GET("/cart", m.Authorize(h.GetCart))
		s.POST("/cart", m.Authorize(h.AddToCart))
		s.GET("/cart/:id", m.Authorize(h.GetCartDetail, m.OwnsCart("id")))
		s.DELETE("/cart/:id", m.Authorize(h.RemoveCartItem, m.OwnsCart("id")))
		s.POST("/cart/:id/checkout", m.Authorize(h.Checkout, m.OwnsCart("id")))
		s.POST("/cart/:id/confirm-order", m.Authorize(h.ConfirmOrder, m.OwnsCart("id")))

		s.GET("/orders", m.Authorize(h.GetOrders))
		s.GET("/orders/:id", m.Authorize(h.GetOrder, m.OwnsOrder("id")))
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
