package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DB is the shared database handle, set by InitDB.
var DB *gorm.DB

// Settings holds the loaded configuration, set by Load callers at startup.
var Settings = Default()

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Demo     DemoConfig     `yaml:"demo"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	LogLevel string `yaml:"log_level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	Leeway     time.Duration `yaml:"leeway"`
}

type DemoConfig struct {
	Enabled       bool          `yaml:"enabled"`
	UserTTLHours  int           `yaml:"user_ttl_hours"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

// UserTTL is the lifetime of a demo account
func (d DemoConfig) UserTTL() time.Duration {
	return time.Duration(d.UserTTLHours) * time.Hour
}

type ThrottleConfig struct {
	Enabled bool              `yaml:"enabled"`
	Rates   map[string]string `yaml:"rates"`
}

type LoggingConfig struct {
	// Level is debug, info, warn or error. Empty follows the server mode.
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "debug",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite",
			Path:     "restaurant.db",
			LogLevel: "warn",
		},
		JWT: JWTConfig{
			Secret:     "restaurant_api_dev_secret_change_me",
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 168 * time.Hour,
			Leeway:     30 * time.Second,
		},
		Demo: DemoConfig{
			Enabled:       false,
			UserTTLHours:  12,
			PurgeInterval: time.Hour,
		},
		Throttle: ThrottleConfig{
			Enabled: true,
			Rates: map[string]string{
				"anon":         "60/min",
				"user":         "300/min",
				"auth_login":   "10/min",
				"auth_me":      "60/min",
				"auth_refresh": "30/min",
				"auth_verify":  "60/min",
				"auth_logout":  "10/min",
				"demo_create":  "3/hour",
			},
		},
		Logging: LoggingConfig{
			Level:  "",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env file and
// the process environment, in that order of precedence (last wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("config: open %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Mode = getEnv("GIN_MODE", cfg.Server.Mode)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.Username = getEnv("DB_USER", cfg.Database.Username)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)

	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	if v := os.Getenv("DEMO_MODE"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: DEMO_MODE: %w", err)
		}
		cfg.Demo.Enabled = enabled
	}
	if v := os.Getenv("DEMO_USER_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: DEMO_USER_TTL_HOURS: %w", err)
		}
		cfg.Demo.UserTTLHours = hours
	}
	if v := os.Getenv("THROTTLE_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: THROTTLE_ENABLED: %w", err)
		}
		cfg.Throttle.Enabled = enabled
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("config: jwt secret must not be empty")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("config: jwt token lifetimes must be positive")
	}
	if c.Demo.UserTTLHours <= 0 {
		return errors.New("config: demo user ttl must be positive")
	}
	if c.Demo.Enabled && c.Demo.PurgeInterval <= 0 {
		return errors.New("config: demo purge interval must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
