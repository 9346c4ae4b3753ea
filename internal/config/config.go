package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	API struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`

	Retry struct {
		MaxAttempts int           `mapstructure:"max_attempts"`
		Delay       time.Duration `mapstructure:"delay"`
	} `mapstructure:"retry"`

	Store StoreConfig `mapstructure:"store"`

	Archive ArchiveConfig `mapstructure:"archive"`

	Logging struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"logging"`

	notes []string
}

// Notes returns messages produced while loading, for the caller to log once
// a logger exists
func (c *Config) Notes() []string {
	return c.notes
}

// StoreConfig selects and configures the local key-value backend
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Prefix   string `mapstructure:"prefix"`
	} `mapstructure:"redis"`

	Postgres struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"postgres"`
}

// DataDir returns the directory holding on-device state
func (s StoreConfig) DataDir() string {
	if s.SQLitePath == "" || s.SQLitePath == ":memory:" {
		return "."
	}
	idx := strings.LastIndexAny(s.SQLitePath, `/\`)
	if idx <= 0 {
		return "."
	}
	return s.SQLitePath[:idx]
}

// Load reads configs/config.yaml (optional), then environment overrides
func Load() (*Config, error) {
	return LoadFile("configs/config.yaml")
}

// LoadFile is Load with an explicit config path
func LoadFile(path string) (*Config, error) {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("FIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	configFileMissing := false
	if err := v.ReadInConfig(); err != nil {
		configFileMissing = true
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	cfg.applyArchiveOverrides()

	if configFileMissing {
		cfg.notes = append(cfg.notes, "no config file found at "+path+", using defaults")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "X-Request-ID"})
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", 2*time.Second)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "data/fieldagent.db")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.prefix", "fieldagent:")
	v.SetDefault("store.postgres.host", "localhost")
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.user", "postgres")
	v.SetDefault("store.postgres.name", "field_db")
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.prefix", "screenshots")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", true)
}

// applyEnvOverrides maps the unprefixed variables used by the deployment
// scripts onto the config. They win over the file and FIELD_* values.
func (c *Config) applyEnvOverrides() {
	if base := os.Getenv("API_BASE_URL"); base != "" {
		c.API.BaseURL = base
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Store.Postgres.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			c.Store.Postgres.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Store.Postgres.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		c.Store.Postgres.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		c.Store.Postgres.Name = name
	}

	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	if host := os.Getenv("REDIS_SERVICE_HOST"); host != "" {
		port := os.Getenv("REDIS_SERVICE_PORT")
		if port == "" {
			port = "6379"
		}
		c.Store.Redis.Addr = host + ":" + port
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		c.Store.Redis.Password = pass
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = 15 * time.Second
	}
}
