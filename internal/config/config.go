package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingTokenSecret is returned in production when no token secret is configured
var ErrMissingTokenSecret = errors.New("TOKEN_SECRET must be set in production")

// devSecret signs admin tokens and CSRF tokens outside production
const devSecret = "studycards-dev-secret"

// Config holds application configuration
type Config struct {
	Env                string        `mapstructure:"env"`
	ServerPort         string        `mapstructure:"port"`
	DatabaseType       string        `mapstructure:"database_type"`
	DatabasePath       string        `mapstructure:"db_path"`
	DatabaseURL        string        `mapstructure:"database_url"`
	DataDir            string        `mapstructure:"data_dir"`
	SessionDuration    time.Duration `mapstructure:"session_duration"`
	AdminUser          string        `mapstructure:"admin_user"`
	AdminPassHash      string        `mapstructure:"admin_pass_hash"` // bcrypt
	TokenSecret        string        `mapstructure:"token_secret"`
	CSRFSecret         string        `mapstructure:"csrf_secret"`
	RequireCredentials bool          `mapstructure:"require_credentials"`
	LoginRateLimit     int           `mapstructure:"login_rate_limit"` // attempts per minute per client
}

// IsProduction reports whether the application runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from an optional .env file, an optional
// config/config.yaml and environment variables, in increasing precedence.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("database_type", "sqlite")
	v.SetDefault("db_path", "./studycards.db")
	v.SetDefault("database_url", "")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("session_duration", "24h")
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "")
	v.SetDefault("token_secret", "")
	v.SetDefault("csrf_secret", "")
	v.SetDefault("require_credentials", false)
	v.SetDefault("login_rate_limit", 10)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.TokenSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingTokenSecret
		}
		cfg.TokenSecret = devSecret
	}
	if cfg.CSRFSecret == "" {
		cfg.CSRFSecret = cfg.TokenSecret
	}

	return &cfg, nil
}
