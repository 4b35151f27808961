package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the movie likes service.
type Config struct {
	DB             DBConfig
	Redis          RedisConfig
	TMDB           TMDBConfig
	Session        SessionConfig
	RateLimit      RateLimitConfig
	Port           string
	LogLevel       slog.Level
	RecommendLimit int
	SimilarSeeds   int
	DevLogin       bool
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	URL         string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TMDBConfig holds TMDB API configuration. The credential stays on the server.
type TMDBConfig struct {
	APIKey      string
	AccessToken string
	BaseURL     string
	RatePerSec  float64
	Timeout     time.Duration
}

// SessionConfig holds identity cookie and page session settings.
type SessionConfig struct {
	Secret       string
	CookieName   string
	CookieSecure bool
	TTL          time.Duration
	PageTTL      time.Duration
	MaxPages     int
}

// RateLimitConfig holds the fixed-window limiter settings for API routes.
type RateLimitConfig struct {
	Max           int
	WindowSeconds int
}

// Load reads the web server configuration from environment variables. The
// server needs a TMDB credential and a session secret.
func Load() (*Config, error) {
	cfg := load()
	if err := cfg.validateServer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadBatch reads configuration for the recommendation job, which only talks
// to PostgreSQL and so needs neither TMDB nor session settings.
func LoadBatch() *Config {
	return load()
}

func load() *Config {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	rateMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "100"))
	rateWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	recLimit, _ := strconv.Atoi(getEnv("RECOMMENDATION_LIMIT", "20"))
	seeds, _ := strconv.Atoi(getEnv("SIMILAR_SEED_COUNT", "5"))
	tmdbRate, _ := strconv.ParseFloat(getEnv("TMDB_RATE_PER_SEC", "40"), 64)
	maxPages, _ := strconv.Atoi(getEnv("PAGE_SESSION_MAX", "10000"))

	cfg := &Config{
		DB: DBConfig{
			URL:         getEnv("DATABASE_URL", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "movie_likes"),
			SSLMode:     getEnv("DB_SSLMODE", "verify-ca"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		TMDB: TMDBConfig{
			APIKey:      getEnv("TMDB_API_KEY", ""),
			AccessToken: getEnv("TMDB_ACCESS_TOKEN", ""),
			BaseURL:     strings.TrimRight(getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"), "/"),
			RatePerSec:  tmdbRate,
			Timeout:     getDuration("TMDB_TIMEOUT", 15*time.Second),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", ""),
			CookieName:   getEnv("SESSION_COOKIE", "session"),
			CookieSecure: getEnv("SESSION_COOKIE_SECURE", "false") == "true",
			TTL:          getDuration("SESSION_TTL", 24*time.Hour),
			PageTTL:      getDuration("PAGE_SESSION_TTL", 30*time.Minute),
			MaxPages:     maxPages,
		},
		RateLimit: RateLimitConfig{
			Max:           rateMax,
			WindowSeconds: rateWindow,
		},
		Port:           getEnv("SERVER_PORT", "8080"),
		LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
		RecommendLimit: recLimit,
		SimilarSeeds:   seeds,
		DevLogin:       getEnv("DEV_LOGIN", "false") == "true",
	}

	cfg.applyDefaults()
	return cfg
}

func (c *Config) validateServer() error {
	if c.TMDB.APIKey == "" && c.TMDB.AccessToken == "" {
		return fmt.Errorf("one of TMDB_API_KEY or TMDB_ACCESS_TOKEN is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.RecommendLimit <= 0 || c.RecommendLimit > 100 {
		c.RecommendLimit = 20
	}
	if c.SimilarSeeds <= 0 {
		c.SimilarSeeds = 5
	}
	if c.TMDB.RatePerSec <= 0 {
		c.TMDB.RatePerSec = 40
	}
	if c.Session.MaxPages <= 0 {
		c.Session.MaxPages = 10000
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
