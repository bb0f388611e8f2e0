package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"taskview/internal/logging"
)

// AppName doubles as the config directory name and the env prefix.
const AppName = "taskview"

// Config represents the complete taskview configuration
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Log    LogConfig    `mapstructure:"log"`
	Notify NotifyConfig `mapstructure:"notify"`
	Export ExportConfig `mapstructure:"export"`
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	// Driver is one of mysql, postgres, sqlite3
	Driver string `mapstructure:"driver"`
	// DSN is passed to the driver unchanged
	DSN string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level string `mapstructure:"level"`
	// Dir receives taskview.log; empty logs to stderr
	Dir string `mapstructure:"dir"`
}

// NotifyConfig toggles user-visible notices for task mutations
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ExportConfig struct {
	// CacheTTL bounds how long an export payload is served from memory
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func Default() *Config {
	return &Config{
		Store:  StoreConfig{Driver: "sqlite3", DSN: "taskview.db"},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "INFO"},
		Notify: NotifyConfig{Enabled: false},
		Export: ExportConfig{CacheTTL: 30 * time.Second},
	}
}

// SetDefaults registers every key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("notify.enabled", d.Notify.Enabled)
	v.SetDefault("export.cache_ttl", d.Export.CacheTTL)
}

// ConfigDir returns $XDG_CONFIG_HOME/taskview or $HOME/.config/taskview.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load resolves configuration from defaults, an optional .env file, the
// config file and TASKVIEW_* environment variables, in increasing priority.
// An explicit file path must exist; the default search path may be empty.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	// TASKVIEW_STORE_DSN for store.dsn
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// STORE_DSN / STORE_DRIVER predate the prefixed variables
	if os.Getenv("TASKVIEW_STORE_DSN") == "" {
		if dsn := os.Getenv("STORE_DSN"); dsn != "" {
			cfg.Store.DSN = dsn
		}
	}
	if os.Getenv("TASKVIEW_STORE_DRIVER") == "" {
		if drv := os.Getenv("STORE_DRIVER"); drv != "" {
			cfg.Store.Driver = drv
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Store.Driver) {
	case "mysql", "postgres", "postgresql", "pgx", "sqlite3", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store.driver: unsupported %q", c.Store.Driver))
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		errs = append(errs, errors.New("store.dsn: must not be empty"))
	}
	if lvl := strings.ToUpper(strings.TrimSpace(c.Log.Level)); lvl != "WARNING" && !slices.Contains(logging.ValidLevels(), lvl) {
		errs = append(errs, fmt.Errorf("log.level: %q is not one of %s", c.Log.Level, strings.Join(logging.ValidLevels(), ", ")))
	}
	if c.Export.CacheTTL < 0 {
		errs = append(errs, errors.New("export.cache_ttl: must not be negative"))
	}
	return errors.Join(errs...)
}
