// Package config reads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load .env file to environments
	_ "github.com/joho/godotenv/autoload"
)

// DB holds the database connection settings
type DB struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	UseConnStr bool
	ConnStr    string
}

// Config is everything the api process needs to start
type Config struct {
	Port              string
	DB                DB
	SecretKey         string
	AllowOrigins      []string
	RateLimitPerSec   int
	RedisURL          string
	NATSURL           string
	LogLevel          string
	LogFormat         string
	GinMode           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	TokenTTL          time.Duration
	BlacklistInterval time.Duration
}

// LoadDB reads only the database settings
func LoadDB() (DB, error) {
	var env envReader
	db := env.db()
	return db, env.err()
}

// Load reads Config from the environment. SECRET_KEY is required. A value
// that does not parse is an error, a duration that is not positive falls
// back to its default.
func Load() (*Config, error) {
	var env envReader
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DB:                env.db(),
		SecretKey:         os.Getenv("SECRET_KEY"),
		AllowOrigins:      getList("ALLOW_ORIGIN", []string{"http://localhost:3000"}),
		RateLimitPerSec:   env.int("RATE_LIMIT_REQUESTS_PER_SECOND", 5),
		RedisURL:          os.Getenv("REDIS_URL"),
		NATSURL:           os.Getenv("NATS_URL"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		GinMode:           os.Getenv("GIN_MODE"),
		ReadTimeout:       env.duration("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:      env.duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       env.duration("HTTP_IDLE_TIMEOUT", time.Minute),
		TokenTTL:          env.duration("TOKEN_TTL", time.Hour),
		BlacklistInterval: env.duration("BLACKLIST_CLEANUP_INTERVAL", 10*time.Minute),
	}
	if err := env.err(); err != nil {
		return nil, err
	}

	if cfg.SecretKey == "" {
		return nil, errors.New("SECRET_KEY is required")
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 5
	}
	return cfg, nil
}

// envReader parses typed env values and keeps every parse failure
type envReader struct {
	errs []error
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("invalid %s=%q: %w", key, value, err))
}

func (r *envReader) db() DB {
	return DB{
		Host:       os.Getenv("DB_HOST"),
		Port:       os.Getenv("DB_PORT"),
		User:       os.Getenv("DB_USERNAME"),
		Password:   os.Getenv("DB_PASSWORD"),
		Name:       os.Getenv("DB_DATABASE"),
		UseConnStr: r.bool("USE_CONNECTION_STR", false),
		ConnStr:    os.Getenv("DB_CONNECTION_STR"),
	}
}

func (r *envReader) bool(key string, fallback bool) bool {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, err)
		return fallback
	}
	return parsed
}

func (r *envReader) int(key string, fallback int) int {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
		return fallback
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, err)
		return fallback
	}
	if parsed <= 0 {
		return fallback
	}
	return parsed
}

// lookup treats a blank variable as unset
func lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func getEnv(key, fallback string) string {
	if value, ok := lookup(key); ok {
		return value
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
