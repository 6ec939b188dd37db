// Package config loads RollSlit settings from a YAML file and ROLLSLIT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/piwi3910/RollSlit/internal/engine"
	"github.com/piwi3910/RollSlit/internal/project"
)

// EnvPrefix is the prefix of environment overrides, e.g. ROLLSLIT_HTTP_ADDR.
const EnvPrefix = "ROLLSLIT"

type Config struct {
	App struct {
		Env                  string
		FiscalYearStartMonth int `mapstructure:"fiscal_year_start_month"`
	} `mapstructure:"app"`

	Store struct {
		Driver string // sqlite | memory
		Path   string
	} `mapstructure:"store"`

	Slitting struct {
		WarnUnusedPercent  float64 `mapstructure:"warn_unused_percent"`
		MinStockLengthM    float64 `mapstructure:"min_stock_length_m"`
		LegacyGSMTolerance bool    `mapstructure:"legacy_gsm_tolerance"`
	} `mapstructure:"slitting"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Redis struct {
		URL string
	} `mapstructure:"redis"`

	Export struct {
		Dir string
	} `mapstructure:"export"`
}

// setDefaults registers every key so env overrides work without a file.
func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.fiscal_year_start_month", int(time.April))
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", filepath.Join(dataDir, "rollslit.db"))
	v.SetDefault("slitting.warn_unused_percent", engine.DefaultWarnUnusedPercent)
	v.SetDefault("slitting.min_stock_length_m", 1.0)
	v.SetDefault("slitting.legacy_gsm_tolerance", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("redis.url", "")
	v.SetDefault("export.dir", ".")
}

// Load reads the config file at path. An empty path looks for config.yaml
// in the RollSlit data directory and falls back to defaults when none exists;
// an explicit path must exist.
func Load(path string) (Config, error) {
	var c Config

	dataDir, err := project.DefaultDir()
	if err != nil {
		return c, err
	}

	v := viper.New()
	setDefaults(v, dataDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dataDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks values viper cannot type-check.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("store.driver must be sqlite or memory, got %q", c.Store.Driver)
	}
	if m := c.App.FiscalYearStartMonth; m < 1 || m > 12 {
		return fmt.Errorf("app.fiscal_year_start_month must be 1-12, got %d", m)
	}
	if c.Slitting.WarnUnusedPercent < 0 || c.Slitting.WarnUnusedPercent > 100 {
		return fmt.Errorf("slitting.warn_unused_percent must be 0-100, got %v", c.Slitting.WarnUnusedPercent)
	}
	if c.Slitting.MinStockLengthM < 0 {
		return fmt.Errorf("slitting.min_stock_length_m cannot be negative")
	}
	return nil
}

// Slitter returns the engine settings carried by the config.
func (c Config) Slitter() engine.Config {
	return engine.Config{
		WarnUnusedPercent:    c.Slitting.WarnUnusedPercent,
		MinStockLengthM:      c.Slitting.MinStockLengthM,
		LegacyGSMTolerance:   c.Slitting.LegacyGSMTolerance,
		FiscalYearStartMonth: time.Month(c.App.FiscalYearStartMonth),
	}
}
