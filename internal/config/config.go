package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	LogLevel    slog.Level
	ServiceName string

	Store      string // memory | sqlite
	SQLitePath string
	SeedFile   string

	AuthMode    string // none | apikey | bearer
	APIKey      string
	BearerToken string

	RateLimitRPS   float64
	RateLimitBurst int

	TraceExporter string // none | stdout | otlp
}

// Load reads configuration from the environment. Variables from ENV_FILE
// (default .env) are applied first when that file exists; values already set
// in the environment win.
func Load() (Config, error) {
	envFile := getenv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      ParseLevel(os.Getenv("LOG_LEVEL")),
		ServiceName:   getenv("SERVICE_NAME", "todos-api"),
		Store:         strings.ToLower(getenv("STORE", "memory")),
		SQLitePath:    getenv("SQLITE_PATH", "data/todos.db"),
		SeedFile:      os.Getenv("SEED_FILE"),
		AuthMode:      strings.ToLower(getenv("AUTH_MODE", "none")),
		APIKey:        os.Getenv("API_KEY"),
		BearerToken:   os.Getenv("BEARER_TOKEN"),
		TraceExporter: strings.ToLower(getenv("TRACE_EXPORTER", "none")),
	}

	var err error
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 10); err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("STORE must be memory or sqlite, got %q", c.Store)
	}
	switch c.AuthMode {
	case "none":
	case "apikey":
		if c.APIKey == "" {
			return errors.New("AUTH_MODE=apikey requires API_KEY")
		}
	case "bearer":
		if c.BearerToken == "" {
			return errors.New("AUTH_MODE=bearer requires BEARER_TOKEN")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be none, apikey or bearer, got %q", c.AuthMode)
	}
	switch c.TraceExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("TRACE_EXPORTER must be none, stdout or otlp, got %q", c.TraceExporter)
	}
	return nil
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
