package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ScraperConfig holds outbound fetch and parsing settings.
type ScraperConfig struct {
	RequestTimeout  time.Duration // Upper bound for a single page fetch
	MaxRedirects    int
	RetryAttempts   int    // Attempts per item inside a price check, 1 disables retry
	BrowserFallback bool   // Retry blocked pages through headless Chrome
	SelectorsFile   string // Optional YAML overriding the embedded selector lists
}

// PriceCheckConfig holds settings for the scheduled batch check.
type PriceCheckConfig struct {
	Enabled    bool
	Schedule   string        // Cron expression (e.g., "0 */6 * * *")
	Timeout    time.Duration // Timeout for a complete batch
	RunOnStart bool          // Run one batch right after the scheduler starts
}

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string
	AutoMigrate bool

	// Redis (optional, enables the distributed batch lock)
	RedisURL string

	// Auth
	JWTSecret string

	// CORS
	AllowedOrigins []string

	Scraper    ScraperConfig
	PriceCheck PriceCheckConfig
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", slog.String("error", err.Error()))
	}

	env := getEnv("ENV", "development")

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  env,

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/pricewatch?sslmode=disable"),
		AutoMigrate: getBoolEnv("AUTO_MIGRATE", env == "development"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		Scraper: ScraperConfig{
			RequestTimeout:  getDurationEnv("SCRAPER_REQUEST_TIMEOUT", 15*time.Second),
			MaxRedirects:    getIntEnv("SCRAPER_MAX_REDIRECTS", 5),
			RetryAttempts:   getIntEnv("SCRAPER_RETRY_ATTEMPTS", 2),
			BrowserFallback: getBoolEnv("SCRAPER_BROWSER_FALLBACK", false),
			SelectorsFile:   os.Getenv("SCRAPER_SELECTORS_FILE"),
		},

		PriceCheck: PriceCheckConfig{
			Enabled:    getBoolEnv("PRICE_CHECK_ENABLED", true),
			Schedule:   getEnv("PRICE_CHECK_SCHEDULE", "0 */6 * * *"),
			Timeout:    getDurationEnv("PRICE_CHECK_TIMEOUT", 30*time.Minute),
			RunOnStart: getBoolEnv("PRICE_CHECK_RUN_ON_START", false),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
