// Package config provides application configuration loaded from environment
// variables, an optional config file and built-in defaults.
package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	App      AppConfig      `mapstructure:"app"`
	Session  SessionConfig  `mapstructure:"session"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // seconds
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
// For sqlite, Path is the database file. A non-empty RawDSN overrides the
// individual postgres fields.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	RawDSN   string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"`
}

// AppConfig holds application-level settings. Migrations is "auto" (gorm
// AutoMigrate at startup), "sql" (embedded SQL migrations) or "off".
type AppConfig struct {
	Dev        bool   `mapstructure:"dev"`
	Migrations string `mapstructure:"migrations"`
	Seed       bool   `mapstructure:"seed"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// StorageConfig configures the attachment bucket. SigningKey defaults to the
// session secret when empty.
type StorageConfig struct {
	Dir            string        `mapstructure:"dir"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	URLTTL         time.Duration `mapstructure:"url_ttl"`
	SigningKey     string        `mapstructure:"signing_key"`
}

// CheckoutConfig configures the hosted payment gateway.
type CheckoutConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	SuccessURL    string        `mapstructure:"success_url"`
	CancelURL     string        `mapstructure:"cancel_url"`
	Mode          string        `mapstructure:"mode"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type AutosaveConfig struct {
	Delay        time.Duration `mapstructure:"delay"`
	IdleEviction time.Duration `mapstructure:"idle_eviction"`
}

// setting binds a config key to its environment variable and default.
type setting struct {
	key string
	env string
	def any
}

var settings = []setting{
	{"server.port", "PORT", "8080"},
	{"server.read_timeout", "SERVER_READ_TIMEOUT", 15},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT", 15},
	{"server.idle_timeout", "SERVER_IDLE_TIMEOUT", 60},

	{"database.driver", "DB_DRIVER", "postgres"},
	{"database.host", "DB_HOST", "localhost"},
	{"database.port", "DB_PORT", 5432},
	{"database.user", "DB_USER", "intake"},
	{"database.password", "DB_PASSWORD", "intake123"},
	{"database.name", "DB_NAME", "intake"},
	{"database.sslmode", "DB_SSLMODE", "disable"},
	{"database.dsn", "DATABASE_DSN", ""},
	{"database.path", "DB_PATH", "intake.db"},

	{"app.dev", "DEV", true},
	{"app.migrations", "MIGRATIONS", "auto"},
	{"app.seed", "SEED", true},

	{"session.secret", "SESSION_SECRET", ""},
	{"session.ttl", "SESSION_TTL", "168h"},

	{"storage.dir", "STORAGE_DIR", "data/uploads"},
	{"storage.max_upload_bytes", "STORAGE_MAX_UPLOAD_BYTES", 20 << 20},
	{"storage.url_ttl", "STORAGE_URL_TTL", "10m"},
	{"storage.signing_key", "STORAGE_SIGNING_KEY", ""},

	{"checkout.base_url", "CHECKOUT_BASE_URL", ""},
	{"checkout.api_key", "CHECKOUT_API_KEY", ""},
	{"checkout.webhook_secret", "CHECKOUT_WEBHOOK_SECRET", ""},
	{"checkout.success_url", "CHECKOUT_SUCCESS_URL", "http://localhost:8080/merci"},
	{"checkout.cancel_url", "CHECKOUT_CANCEL_URL", "http://localhost:8080/t1/send"},
	{"checkout.mode", "CHECKOUT_MODE", "payment"},
	{"checkout.timeout", "CHECKOUT_TIMEOUT", "15s"},

	{"autosave.delay", "AUTOSAVE_DELAY", "800ms"},
	{"autosave.idle_eviction", "AUTOSAVE_IDLE_EVICTION", "30m"},
}

// Load reads configuration. Environment variables win over the config file,
// which wins over defaults. file may be empty.
func Load(file string) (*Config, error) {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, err
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		lenientBoolHook,
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.App.Migrations = strings.ToLower(cfg.App.Migrations)
	if cfg.Storage.SigningKey == "" {
		cfg.Storage.SigningKey = cfg.Session.Secret
	}
	return &cfg, nil
}

// lenientBoolHook accepts "yes", "on" and friends for booleans; anything
// unrecognized is false.
func lenientBoolHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "1", "true", "yes", "on", "oui":
		return true, nil
	}
	return false, nil
}

// DSN returns the PostgreSQL connection string in key=value format, or the
// sqlite path.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	if raw := strings.Trim(strings.TrimSpace(d.RawDSN), "\"'"); raw != "" {
		return raw
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format, as expected
// by golang-migrate.
func (d DatabaseConfig) URL() string {
	raw := strings.Trim(strings.TrimSpace(d.RawDSN), "\"'")
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return raw
	}
	if raw != "" {
		if u := kvToURL(raw); u != "" {
			return u
		}
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// kvToURL converts a lib/pq key=value list. It returns "" when host, user or
// dbname is missing.
func kvToURL(kv string) string {
	m := map[string]string{}
	for _, part := range strings.Fields(kv) {
		if k, v, ok := strings.Cut(part, "="); ok {
			m[strings.ToLower(k)] = v
		}
	}
	if m["host"] == "" || m["user"] == "" || m["dbname"] == "" {
		return ""
	}
	u := &url.URL{Scheme: "postgres", Host: m["host"], Path: "/" + m["dbname"]}
	if m["port"] != "" {
		u.Host += ":" + m["port"]
	}
	if m["password"] != "" {
		u.User = url.UserPassword(m["user"], m["password"])
	} else {
		u.User = url.User(m["user"])
	}
	sslmode := m["sslmode"]
	if sslmode == "" {
		sslmode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	return u.String()
}
