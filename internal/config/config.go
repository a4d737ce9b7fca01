package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StoreSupabase = "supabase"
	StorePostgres = "postgres"

	AuthSupabase = "supabase"
	AuthJWT      = "jwt"
)

type Config struct {
	Port        string   `envconfig:"PORT" default:"8080"`
	Environment string   `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	AuthMode    string `envconfig:"AUTH_MODE" default:"supabase"`

	SupabaseURL        string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey    string `envconfig:"SUPABASE_URL_ANON_KEY"`
	SupabaseServiceKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseKVTable    string `envconfig:"SUPABASE_KV_TABLE" default:"kv_store"`

	JWTSecret string `envconfig:"JWT_SECRET"`
	JWKSURL   string `envconfig:"JWKS_URL"`

	MongoDBURI      string `envconfig:"MONGODB_URI"`
	MongoDBPassword string `envconfig:"MONGODB_PASSWORD"`
	MongoDBDatabase string `envconfig:"MONGODB_DATABASE" default:"unibook"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// Path to a YAML facility catalog; the embedded catalog is used when empty.
	FacilityCatalog string `envconfig:"FACILITY_CATALOG"`

	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`

	StrictSlotConflicts bool `envconfig:"STRICT_SLOT_CONFLICTS" default:"false"`
	StrictTransitions   bool `envconfig:"STRICT_TRANSITIONS" default:"false"`
	EnableDemoSeed      bool `envconfig:"ENABLE_DEMO_SEED" default:"false"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every backend selected by the configuration has the
// settings it needs.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSupabase:
		if err := c.requireSupabase(); err != nil {
			return err
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required when STORE_DRIVER=supabase")
		}
	case StoreMongo:
		if c.MongoDBURI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s (expected memory, mongo, supabase, postgres)", c.StoreDriver)
	}

	switch c.AuthMode {
	case AuthSupabase:
		if err := c.requireSupabase(); err != nil {
			return err
		}
	case AuthJWT:
		if c.JWTSecret == "" && c.JWKSURL == "" && c.SupabaseURL == "" {
			return fmt.Errorf("JWT_SECRET, JWKS_URL or SUPABASE_URL is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE: %s (expected supabase, jwt)", c.AuthMode)
	}

	set := 0
	for _, v := range []string{c.CloudinaryCloudName, c.CloudinaryAPIKey, c.CloudinaryAPISecret} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set together")
	}

	return nil
}

func (c *Config) requireSupabase() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	return nil
}

func (c *Config) UsesSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

func (c *Config) UsesCloudinary() bool {
	return c.CloudinaryCloudName != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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
