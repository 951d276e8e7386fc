package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string          `mapstructure:"port"`
	SiteURL   string          `mapstructure:"site_url"` // public origin used in sitemap and feed links
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres or sqlite
	URL             string `mapstructure:"url"`
	ConnectAttempts uint   `mapstructure:"connect_attempts"`
}

type AuthConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	JWTPublicKeyFile string `mapstructure:"jwt_public_key_file"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Addr    string `mapstructure:"addr"` // empty keeps events in-process
	Channel string `mapstructure:"channel"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // OTLP/HTTP collector; empty prints spans to stdout
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type ReconcileConfig struct {
	Interval time.Duration `mapstructure:"interval"` // 0 disables the periodic sweep
}

// DefaultConfig returns the values used when neither file nor environment sets a key.
func DefaultConfig() Config {
	return Config{
		Port:    "8080",
		SiteURL: "http://localhost:5173",
		Database: DatabaseConfig{
			Driver:          "postgres",
			URL:             "host=localhost user=postgres password=postgres dbname=promptdir port=5432 sslmode=disable",
			ConnectAttempts: 5,
		},
		Session: SessionConfig{Secret: "secret_key_change_me"},
		Redis:   RedisConfig{Channel: "promptdir:events"},
		Log:     LogConfig{Mode: "dev"},
		CORS:    CORSConfig{Origins: []string{"http://localhost:5173"}},
		Cache:   CacheConfig{Size: 500, TTL: 5 * time.Minute},
		Tracing: TracingConfig{SampleRatio: 0.1},
		Reconcile: ReconcileConfig{
			Interval: time.Hour,
		},
	}
}

// Load reads .env (if present), then config.yaml (if present), then PROMPTDIR_* variables.
// Later sources win.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("port", d.Port)
	v.SetDefault("site_url", d.SiteURL)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.connect_attempts", d.Database.ConnectAttempts)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_public_key_file", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("session.secret", d.Session.Secret)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.channel", d.Redis.Channel)
	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("cors.origins", d.CORS.Origins)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)
	v.SetDefault("reconcile.interval", d.Reconcile.Interval)

	v.SetEnvPrefix("PROMPTDIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Plain PORT / DATABASE_URL are what most hosting platforms inject.
	_ = v.BindEnv("port", "PROMPTDIR_PORT", "PORT")
	_ = v.BindEnv("database.url", "PROMPTDIR_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("site_url", "PROMPTDIR_SITE_URL", "SITE_URL")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.promptdir")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
