// Package config loads and validates service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Milongas MilongasConfig `mapstructure:"milongas"`
	Database DatabaseConfig `mapstructure:"database"`
	Mail     MailConfig     `mapstructure:"mail"`
	Static   StaticConfig   `mapstructure:"static"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig holds the shared secret guarding write endpoints.
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
	// AllowUnset lets the server start without a key; writes are then refused.
	AllowUnset bool `mapstructure:"allow_unset"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MilongasConfig governs the listing scrape and its cache.
type MilongasConfig struct {
	URL            string   `mapstructure:"url"`
	RefreshMinutes int      `mapstructure:"refresh_minutes"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	MaxConns       int      `mapstructure:"max_conns"`
	UTCOffsetHours int      `mapstructure:"utc_offset_hours"`
	UserAgents     []string `mapstructure:"user_agents"`
	WarmOnStart    bool     `mapstructure:"warm_on_start"`
}

// DatabaseConfig selects the quote store.
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver"`
	DSN                    string `mapstructure:"dsn"`
	Path                   string `mapstructure:"path"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
}

// MailConfig configures the contact relay.
type MailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	To           string `mapstructure:"to"`
	SiteName     string `mapstructure:"site_name"`
}

// StaticConfig points at the site's assets.
type StaticConfig struct {
	ImagesDir string `mapstructure:"images_dir"`
	IndexFile string `mapstructure:"index_file"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// LoadDotEnv exports variables from the given files (default ".env") into the
// process environment. Missing files are skipped; set variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TANGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// bindLegacyEnv keeps the deployment's historical variable names working
// next to the prefixed ones.
func bindLegacyEnv(v *viper.Viper) error {
	for key, names := range map[string][]string{
		"auth.api_key":        {"TANGO_AUTH_API_KEY", "SECRET_API_KEY"},
		"mail.resend_api_key": {"TANGO_MAIL_RESEND_API_KEY", "RESEND_API_KEY"},
		"server.port":         {"TANGO_SERVER_PORT", "PORT"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.allow_unset", false)
	v.SetDefault("cors.allowed_origins", []string{
		"https://zazmarga.xyz",
		"http://localhost:3000",
		"http://localhost:63342",
	})
	v.SetDefault("milongas.url", "https://www.hoy-milonga.com/buenos-aires/es/milongas")
	v.SetDefault("milongas.refresh_minutes", 30)
	v.SetDefault("milongas.timeout_seconds", 30)
	v.SetDefault("milongas.max_conns", 20)
	v.SetDefault("milongas.utc_offset_hours", -3)
	v.SetDefault("milongas.user_agents", []string{})
	v.SetDefault("milongas.warm_on_start", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", "data/tango.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.max_conn_lifetime_minutes", 30)
	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.from", "MyTangoCoding <onboarding@resend.dev>")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.site_name", "MyTangoCoding")
	v.SetDefault("static.images_dir", "images")
	v.SetDefault("static.index_file", "index.html")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.Auth.APIKey == "" && !c.Auth.AllowUnset {
		return fmt.Errorf("auth.api_key must be set (SECRET_API_KEY) unless auth.allow_unset is true")
	}
	if c.Milongas.URL == "" {
		return fmt.Errorf("milongas.url is required")
	}
	if c.Milongas.RefreshMinutes <= 0 {
		return fmt.Errorf("milongas.refresh_minutes must be > 0")
	}
	if c.Milongas.TimeoutSeconds <= 0 {
		return fmt.Errorf("milongas.timeout_seconds must be > 0")
	}
	if c.Milongas.MaxConns <= 0 || c.Milongas.MaxConns > 20 {
		return fmt.Errorf("milongas.max_conns must be between 1 and 20")
	}
	if c.Milongas.UTCOffsetHours < -12 || c.Milongas.UTCOffsetHours > 14 {
		return fmt.Errorf("milongas.utc_offset_hours must be between -12 and 14")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be one of postgres, sqlite, memory")
	}
	return nil
}

// RequestTimeout returns the per-request deadline.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// RefreshWindow returns how long a milonga count stays fresh.
func (c MilongasConfig) RefreshWindow() time.Duration {
	return time.Duration(c.RefreshMinutes) * time.Minute
}

// Timeout returns the per-fetch deadline.
func (c MilongasConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// UTCOffset returns the listing region's offset.
func (c MilongasConfig) UTCOffset() time.Duration {
	return time.Duration(c.UTCOffsetHours) * time.Hour
}

// MaxConnLifetime returns the pool connection lifetime.
func (c DatabaseConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMinutes) * time.Minute
}
