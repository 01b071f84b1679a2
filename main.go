package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vaibhavtech2006/E-commerce-website/config"
	"github.com/Vaibhavtech2006/E-commerce-website/handlers"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/cart"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/catalog"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/checkout"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/consul"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/orders"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/sessions"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/stores/kafka"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/stores/postgres"
	"github.com/Vaibhavtech2006/E-commerce-website/internal/users"
	"github.com/Vaibhavtech2006/E-commerce-website/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", slog.String("ERROR", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	sessionStore, err := sessions.NewRedisStore(redisClient, cfg.SessionTTL)
	if err != nil {
		return err
	}

	consulClient, err := consul.NewClient(cfg.ConsulAddress)
	if err != nil {
		return err
	}
	catalogReader, err := catalog.NewHTTPReader(consulClient, cfg.CatalogServiceName)
	if err != nil {
		return err
	}

	userConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	cartConf, err := cart.NewConf(db, catalogReader)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}

	kafkaConf, err := kafka.NewConf(cfg.KafkaBrokers)
	if err != nil {
		// events are best-effort; the storefront works without a broker
		slog.Error("kafka unavailable, events disabled", slog.String("ERROR", err.Error()))
		kafkaConf = nil
	} else {
		defer kafkaConf.Close()
	}

	var events checkout.EventPublisher
	if kafkaConf != nil {
		events = kafkaConf
	}
	engine, err := checkout.NewEngine(cartConf, orderConf, catalogReader, events)
	if err != nil {
		return err
	}

	passwordAuth, err := auth.NewPasswordAuthenticator(userConf)
	if err != nil {
		return err
	}

	var google handlers.GoogleFlow
	if cfg.GoogleClientID != "" {
		googleAuth, err := auth.NewGoogleAuthenticator(userConf, auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			StateSecret:  cfg.OAuthStateSecret,
		})
		if err != nil {
			return err
		}
		google = googleAuth
	} else {
		slog.Info("google oauth not configured, federated login disabled")
	}

	m, err := middleware.NewMid(sessionStore, cartConf, orderConf)
	if err != nil {
		return err
	}

	deps := handlers.Deps{
		Accounts: userConf,
		Carts:    cartConf,
		Checkout: engine,
		Orders:   orderConf,
		Sessions: sessionStore,
		Catalog:  catalogReader,
		Password: passwordAuth,
		Google:   google,
	}
	if kafkaConf != nil {
		deps.Events = kafkaConf
	}

	api, err := handlers.API(m, deps)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	slog.Info("starting storefront backend", slog.String("Port", cfg.Port))
	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
