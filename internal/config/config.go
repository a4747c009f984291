package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
	Profile   ProfileConfig   `yaml:"profile"`
	Gifs      GifsConfig      `yaml:"gifs"`
	Session   SessionConfig   `yaml:"session"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type DatabaseConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Name       string `yaml:"name"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	SSLMode    string `yaml:"sslmode"`
	Migrations string `yaml:"migrations"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type AuthConfig struct {
	MaestroURL    string `yaml:"maestro_url"`
	MaestroAPIURL string `yaml:"maestro_api_url"`
	AppName       string `yaml:"app_name"`
	APIKey        string `yaml:"api_key"`
}

type ProfileConfig struct {
	APIURL string `yaml:"api_url"`
}

type GifsConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	CacheSize int           `yaml:"cache_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// SlogLevel maps the configured level name to a slog.Level. Unknown names mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
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

// Load reads config from a YAML file, applies defaults, then environment
// variable overrides. Env vars use the prefix CIRQULO_:
//
//	CIRQULO_SERVER_HOST, CIRQULO_SERVER_PORT, CIRQULO_LOG_LEVEL,
//	CIRQULO_STORE_DRIVER, CIRQULO_SQLITE_PATH,
//	CIRQULO_DB_HOST, CIRQULO_DB_PORT, CIRQULO_DB_NAME,
//	CIRQULO_DB_USER, CIRQULO_DB_PASSWORD, CIRQULO_DB_SSLMODE,
//	CIRQULO_REDIS_ADDR, CIRQULO_REDIS_PASSWORD,
//	CIRQULO_MAESTRO_URL, CIRQULO_MAESTRO_API_URL, CIRQULO_AUTH_API_KEY,
//	CIRQULO_PROFILE_API_URL, CIRQULO_TENOR_API_KEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverSQLite
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = "data/cirqulofit.db"
	}
	if cfg.Store.Database.Migrations == "" {
		cfg.Store.Database.Migrations = "migrations"
	}
	if cfg.Store.Redis.KeyPrefix == "" {
		cfg.Store.Redis.KeyPrefix = "cirqulofit:"
	}
	if cfg.Auth.MaestroURL == "" {
		cfg.Auth.MaestroURL = "http://localhost:3003"
	}
	if cfg.Auth.MaestroAPIURL == "" {
		cfg.Auth.MaestroAPIURL = "http://localhost:8001/api/v1"
	}
	if cfg.Auth.AppName == "" {
		cfg.Auth.AppName = "cirqulo_fit"
	}
	if cfg.Profile.APIURL == "" {
		cfg.Profile.APIURL = "http://localhost:8000/api/v1"
	}
	if cfg.Gifs.BaseURL == "" {
		cfg.Gifs.BaseURL = "https://tenor.googleapis.com/v2/search"
	}
	if cfg.Gifs.CacheSize == 0 {
		cfg.Gifs.CacheSize = 128
	}
	if cfg.Gifs.Timeout == 0 {
		cfg.Gifs.Timeout = 10 * time.Second
	}
	if cfg.Session.TickInterval == 0 {
		cfg.Session.TickInterval = time.Second
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CIRQULO_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CIRQULO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CIRQULO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CIRQULO_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("CIRQULO_SQLITE_PATH"); v != "" {
		cfg.Store.SQLite.Path = v
	}
	if v := os.Getenv("CIRQULO_DB_HOST"); v != "" {
		cfg.Store.Database.Host = v
	}
	if v := os.Getenv("CIRQULO_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Store.Database.Port = port
		}
	}
	if v := os.Getenv("CIRQULO_DB_NAME"); v != "" {
		cfg.Store.Database.Name = v
	}
	if v := os.Getenv("CIRQULO_DB_USER"); v != "" {
		cfg.Store.Database.User = v
	}
	if v := os.Getenv("CIRQULO_DB_PASSWORD"); v != "" {
		cfg.Store.Database.Password = v
	}
	if v := os.Getenv("CIRQULO_DB_SSLMODE"); v != "" {
		cfg.Store.Database.SSLMode = v
	}
	if v := os.Getenv("CIRQULO_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("CIRQULO_REDIS_PASSWORD"); v != "" {
		cfg.Store.Redis.Password = v
	}
	if v := os.Getenv("CIRQULO_MAESTRO_URL"); v != "" {
		cfg.Auth.MaestroURL = v
	}
	if v := os.Getenv("CIRQULO_MAESTRO_API_URL"); v != "" {
		cfg.Auth.MaestroAPIURL = v
	}
	if v := os.Getenv("CIRQULO_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("CIRQULO_PROFILE_API_URL"); v != "" {
		cfg.Profile.APIURL = v
	}
	if v := os.Getenv("CIRQULO_TENOR_API_KEY"); v != "" {
		cfg.Gifs.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.Store.Database.Host == "" {
			return fmt.Errorf("store.database.host is required")
		}
		if c.Store.Database.Port == 0 {
			return fmt.Errorf("store.database.port is required")
		}
		if c.Store.Database.Name == "" {
			return fmt.Errorf("store.database.name is required")
		}
		if c.Store.Database.User == "" {
			return fmt.Errorf("store.database.user is required")
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Gifs.CacheSize < 0 {
		return fmt.Errorf("gifs.cache_size must not be negative")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
