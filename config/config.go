package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling and environment binding.
type ServerConfig struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`

	// Storage selects the persistence backend: "mongo" or "memory".
	Storage     string `mapstructure:"STORAGE"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// RedisAddr enables the Redis session cache when non-empty; otherwise
	// an in-process cache is used.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// The single registered OAuth client.
	OAuthClientID     string `mapstructure:"OAUTH_CLIENT_ID"`
	OAuthClientSecret string `mapstructure:"OAUTH_CLIENT_SECRET"`

	// AllowDemoUser enables the fixed demo identity for anonymous
	// authorize requests. Development only.
	AllowDemoUser bool `mapstructure:"ALLOW_DEMO_USER"`

	// Supabase glue.
	SupabaseJWTSecret     string `mapstructure:"SUPABASE_JWT_SECRET"`
	SupabaseManagementURL string `mapstructure:"SUPABASE_MANAGEMENT_URL"`

	// Elastic Email defaults used when a user has no stored credentials.
	ElasticEmailAPIKey string `mapstructure:"ELASTIC_EMAIL_API_KEY"`
	DefaultFromEmail   string `mapstructure:"DEFAULT_FROM_EMAIL"`
	DefaultFromName    string `mapstructure:"DEFAULT_FROM_NAME"`

	// SweepIntervalMin runs the expired-record sweeper every N minutes;
	// zero disables it. Expiry stays lazily enforced either way.
	SweepIntervalMin int `mapstructure:"SWEEP_INTERVAL_MIN"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("/etc/smtp-sso/")
	v.AddConfigPath("$HOME/.smtp-sso")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("STORAGE", "mongo")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/smtp_sso_dev")
	v.SetDefault("MONGO_DB_NAME", "smtp_sso_dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "smtp-sso-server")
	v.SetDefault("OAUTH_CLIENT_ID", "smtp-sso-client")
	v.SetDefault("OAUTH_CLIENT_SECRET", "change_me_in_production")
	v.SetDefault("ALLOW_DEMO_USER", false)
	v.SetDefault("SUPABASE_MANAGEMENT_URL", "https://api.supabase.com")
	v.SetDefault("SWEEP_INTERVAL_MIN", 0)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &cfg, nil
}
