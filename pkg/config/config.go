package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/sensorgatt/internal/device"
	"github.com/srg/sensorgatt/pkg/barometer"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// LogLevel is empty unless the file sets it; the CLI stays silent when it is empty
	LogLevel         string          `yaml:"log_level"`
	RACPTimeout      time.Duration   `yaml:"racp_timeout" default:"30s"`
	RACPWriteTimeout time.Duration   `yaml:"racp_write_timeout" default:"5s"`
	TraceDepth       int             `yaml:"trace_depth" default:"64"`
	MetricsNamespace string          `yaml:"metrics_namespace" default:"sensorgatt"`
	Glucose          GlucoseConfig   `yaml:"glucose"`
	Barometer        BarometerConfig `yaml:"barometer"`
}

type GlucoseConfig struct {
	// StrictFlags rejects measurements with reserved flag bits set
	StrictFlags bool `yaml:"strict_flags" default:"true"`
}

type BarometerConfig struct {
	PressureDivisor float64               `yaml:"pressure_divisor" default:"100"`
	PressureUnit    string                `yaml:"pressure_unit" default:"hPa"`
	UUIDs           device.BarometerUUIDs `yaml:"uuids"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the decoders cannot work with
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
	}
	if c.RACPTimeout <= 0 {
		return fmt.Errorf("racp_timeout must be positive, got %s", c.RACPTimeout)
	}
	if c.TraceDepth < 0 {
		return fmt.Errorf("trace_depth must not be negative, got %d", c.TraceDepth)
	}
	if c.Barometer.PressureDivisor <= 0 {
		return fmt.Errorf("barometer.pressure_divisor must be positive, got %g", c.Barometer.PressureDivisor)
	}
	if _, err := c.Profile(); err != nil {
		return fmt.Errorf("barometer.uuids: %w", err)
	}
	return nil
}

// Level returns the parsed log level, InfoLevel if it is unset or does not parse
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

// Scale returns the barometer pressure scale
func (c *Config) Scale() barometer.Scale {
	return barometer.Scale{Divisor: c.Barometer.PressureDivisor, Unit: c.Barometer.PressureUnit}
}

// ParseOptions returns the decoder options the configuration implies
func (c *Config) ParseOptions() device.ParseOptions {
	return device.ParseOptions{
		IgnoreReservedFlags: !c.Glucose.StrictFlags,
		Scale:               c.Scale(),
	}
}

// Profile builds the characteristic profile with the configured barometer UUIDs
func (c *Config) Profile() (*device.Profile, error) {
	return device.NewProfile(c.Barometer.UUIDs)
}
