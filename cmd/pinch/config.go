package main

import (
	"fmt"

	"github.com/kbukum/pinch/config"
	"github.com/kbukum/pinch/logger"
	"github.com/kbukum/pinch/native"
)

const serviceName = "pinch"

// Config is the pinch CLI configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// LogLevels overrides the logging level per component, e.g.
	// {native: debug} to trace transports while fetch stays quiet.
	LogLevels map[string]string `yaml:"log_levels" mapstructure:"log_levels"`

	Native        native.Config       `yaml:"native" mapstructure:"native"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ObservabilityConfig controls OTLP export of fetch traces and metrics.
type ObservabilityConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults fills unset fields. The CLI logs warnings and above unless
// asked otherwise, so fetch output stays readable.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" && !c.Debug {
		c.Logging.Level = "warn"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("config.observability.sample_rate must be within [0, 1] (got: %v)", c.Observability.SampleRate)
	}
	for name, level := range c.LogLevels {
		lc := c.componentLogging(level)
		if err := lc.Validate(); err != nil {
			return fmt.Errorf("config.log_levels.%s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) componentLogging(level string) logger.Config {
	lc := c.Logging
	lc.Level = level
	lc.ApplyDefaults()
	return lc
}

// registerComponentLoggers installs a logger for every entry in
// LogLevels so components pick it up through logger.Get.
func (c *Config) registerComponentLoggers() {
	for name, level := range c.LogLevels {
		lc := c.componentLogging(level)
		logger.Register(name, logger.New(&lc, lc.ServiceName).WithComponent(name))
	}
}

// loadConfig reads the configuration, from path when given.
func loadConfig(path string) (*Config, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
