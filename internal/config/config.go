package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Boundary Boundary `yaml:"boundary" mapstructure:"boundary"`
	Fill     Fill     `yaml:"fill" mapstructure:"fill"`
	Periods  Periods  `yaml:"periods" mapstructure:"periods"`
	Output   Output   `yaml:"output" mapstructure:"output"`
	Log      Log      `yaml:"log" mapstructure:"log"`
}

// Boundary configures the district boundary source.
type Boundary struct {
	Path      string `yaml:"path" mapstructure:"path"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
}

// Fill configures the gap-filling engine.
type Fill struct {
	Neighbors int `yaml:"neighbors" mapstructure:"neighbors"` // k for the distance fallback
	Workers   int `yaml:"workers" mapstructure:"workers"`     // parallel period passes
}

// Periods declares the expected study window.
type Periods struct {
	StartYear   int    `yaml:"start_year" mapstructure:"start_year"`
	EndYear     int    `yaml:"end_year" mapstructure:"end_year"`
	Granularity string `yaml:"granularity" mapstructure:"granularity"` // "daily" or "monthly"
}

// Output configures where result tables are written.
type Output struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLIMFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("fill.neighbors", 5)
	v.SetDefault("fill.workers", 4)
	v.SetDefault("periods.start_year", 2013)
	v.SetDefault("periods.end_year", 2024)
	v.SetDefault("periods.granularity", "monthly")
	v.SetDefault("output.dir", "out")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Fill.Neighbors < 1 {
		return nil, eris.Errorf("config: fill.neighbors must be >= 1, got %d", cfg.Fill.Neighbors)
	}
	if cfg.Periods.Granularity != "daily" && cfg.Periods.Granularity != "monthly" {
		return nil, eris.Errorf("config: periods.granularity must be daily or monthly, got %q", cfg.Periods.Granularity)
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg Log) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
