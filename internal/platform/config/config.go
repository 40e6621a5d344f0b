package config

import (
	"fmt"
	"habit_tracker/internal/common"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Deployment stages.
const (
	StageDev        = "dev"
	StageTest       = "test"
	StageProduction = "production"
)

// MinJWTSecretLength is the minimum accepted HS256 signing secret length in bytes.
const MinJWTSecretLength = 32

// Config is the read-only process configuration. It is built once at startup
// and handed to the components that need it.
type Config struct {
	Stage     string
	Port      string
	LogFormat string

	DatabaseURL string
	AutoMigrate bool

	JWTSecret    []byte
	JWTExpiresIn time.Duration

	BcryptCost      int
	HashConcurrency int
}

// Load reads an optional .env file and the environment, then validates the
// result. Any returned error wraps common.ErrConfiguration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (*Config, error) {
	expiresIn, err := ParseDuration(getEnv("JWT_EXPIRES_IN", "7d"))
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("key", "JWT_EXPIRES_IN").
			Wrapf(common.ErrConfiguration, "%v", err)
	}

	cost, err := getEnvAsInt("BCRYPT_SALT_ROUNDS", 12)
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvAsInt("HASH_CONCURRENCY", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	autoMigrate, err := getEnvAsBool("DB_AUTO_MIGRATE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Stage:           getEnv("APP_STAGE", StageDev),
		Port:            getEnv("PORT", "3000"),
		LogFormat:       getEnv("LOG_FORMAT", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		AutoMigrate:     autoMigrate,
		JWTSecret:       []byte(getEnv("JWT_SECRET", "")),
		JWTExpiresIn:    expiresIn,
		BcryptCost:      cost,
		HashConcurrency: concurrency,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "host=" + getEnv("DB_HOST", "localhost") +
			" port=" + getEnv("DB_PORT", "5432") +
			" user=" + getEnv("DB_USER", "postgres") +
			" password=" + getEnv("DB_PASSWORD", "postgres") +
			" dbname=" + getEnv("DB_NAME", "habit_tracker") +
			" sslmode=" + getEnv("DB_SSLMODE", "disable")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the process must not start without.
func (c *Config) Validate() error {
	switch c.Stage {
	case StageDev, StageTest, StageProduction:
	default:
		return configError("APP_STAGE", "must be one of dev, test, production (got %q)", c.Stage)
	}
	if len(c.JWTSecret) == 0 {
		return configError("JWT_SECRET", "signing secret is required")
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		return configError("JWT_SECRET", "signing secret must be at least %d bytes", MinJWTSecretLength)
	}
	if c.JWTExpiresIn <= 0 {
		return configError("JWT_EXPIRES_IN", "token lifetime must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return configError("BCRYPT_SALT_ROUNDS", "cost factor must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.HashConcurrency <= 0 {
		return configError("HASH_CONCURRENCY", "must be a positive integer")
	}
	return nil
}

// IsDev reports whether internal error detail may be exposed to clients.
func (c *Config) IsDev() bool { return c.Stage == StageDev }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }

func configError(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").
		With("key", key).
		Wrapf(common.ErrConfiguration, format, args...)
}

// ParseDuration accepts everything time.ParseDuration does plus a whole-day
// suffix, so "7d" and "36h" are both valid token lifetimes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt returns fallback when key is unset or empty. A value that is
// present but not an integer is a configuration error.
func getEnvAsInt(key string, fallback int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, configError(key, "must be an integer (got %q)", valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return false, configError(key, "must be a boolean (got %q)", valueStr)
	}
	return value, nil
}
