package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the service reads from the environment.
type Config struct {
	Port    string
	GinMode string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	KafkaBrokers string

	ConsulAddress      string
	CatalogServiceName string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OAuthStateSecret   string
}

// Load reads .env if present and then the process environment.
// Missing values fall back to local-dev defaults; only secrets are required
// for the features that use them.
func Load() (*Config, error) {
	// .env is optional, env vars win in deployed environments
	_ = godotenv.Load()

	c := &Config{
		Port:    getEnv("APP_PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       getEnv("POSTGRES_DB", "storefront"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),

		ConsulAddress:      getEnv("CONSUL_ADDRESS", "localhost:8500"),
		CatalogServiceName: getEnv("CATALOG_SERVICE_NAME", "products"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		OAuthStateSecret:   os.Getenv("OAUTH_STATE_SECRET"),
	}

	ttlMinutes, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "30"))
	if err != nil || ttlMinutes <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES: %q", os.Getenv("SESSION_TTL_MINUTES"))
	}
	c.SessionTTL = time.Duration(ttlMinutes) * time.Minute

	return c, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
