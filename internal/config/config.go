package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

const dotEnvPath = ".env"

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env    string `env:"APP_ENV" envDefault:"development"`
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./dev.db"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret     string        `env:"JWT_SECRET"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`

	DefaultCompanyID int64  `env:"DEFAULT_COMPANY_ID" envDefault:"1"`
	SeedDemoCatalog  bool   `env:"SEED_DEMO_CATALOG" envDefault:"true"`
	RulesetTablePath string `env:"RULESET_TABLE_PATH"`

	PDFCompanyName string `env:"PDF_COMPANY_NAME" envDefault:"쉐누 (CHENOUS)"`
	PDFFontPath    string `env:"PDF_FONT_PATH"`
	PDFFontURL     string `env:"PDF_FONT_URL"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CartTTL       time.Duration `env:"CART_TTL" envDefault:"24h"`
}

// Load reads the environment, after a best-effort .env load, into a Config.
func Load() (Config, error) {
	// Production injects real env; a missing .env is not an error.
	if err := loadDotEnv(dotEnvPath); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", dotEnvPath, err)
	}
	return Parse()
}

// Parse reads the current process environment without touching .env.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	if cfg.JWTExpiration <= 0 {
		return Config{}, fmt.Errorf("parse config: JWT_EXPIRATION must be positive")
	}
	if cfg.CartTTL <= 0 {
		return Config{}, fmt.Errorf("parse config: CART_TTL must be positive")
	}
	return cfg, nil
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev" || c.Env == "local"
}

// Warnings lists settings that work but should not reach production as is.
func (c Config) Warnings() []string {
	var warnings []string
	if c.JWTSecret == "" {
		warnings = append(warnings, "JWT_SECRET is not set; using an insecure development secret")
	}
	if c.AdminPassword == "admin123" {
		warnings = append(warnings, "ADMIN_PASSWORD uses the default value")
	}
	if !c.IsDev() && c.RedisAddr == "" {
		warnings = append(warnings, "REDIS_ADDR is not set; carts are kept in memory")
	}
	return warnings
}

// Secret returns the JWT signing secret, falling back to a fixed development value.
func (c Config) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte("chenous-dev-secret")
	}
	return []byte(c.JWTSecret)
}
