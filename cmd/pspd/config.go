package main

import (
	"fmt"

	"github.com/kbukum/pspkit/config"
	"github.com/kbukum/pspkit/server"
)

// Config is the pspd service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Server               server.Config    `yaml:"server" mapstructure:"server"`
	PSP                  config.PSPConfig `yaml:"psp" mapstructure:"psp"`
	Telemetry            TelemetryConfig  `yaml:"telemetry" mapstructure:"telemetry"`
}

// TelemetryConfig enables OTLP export. Prometheus metrics on /metrics are
// always on.
type TelemetryConfig struct {
	Tracing    bool    `yaml:"tracing" mapstructure:"tracing"`
	Metrics    bool    `yaml:"metrics" mapstructure:"metrics"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

func defaultConfig() *Config {
	return &Config{
		ServiceConfig: config.ServiceConfig{Name: "pspd"},
		PSP:           config.DefaultPSPConfig(),
	}
}

// ApplyDefaults fills every section. Without declared providers a single
// sandbox is created.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	if len(c.PSP.Providers) == 0 {
		c.PSP.Providers = []config.ProviderConfig{{Type: "sandbox"}}
	}
	c.PSP.ApplyDefaults()
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.PSP.Validate(); err != nil {
		return err
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1 (got: %v)", c.Telemetry.SampleRate)
	}
	return nil
}
