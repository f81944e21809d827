package config

import (
	"fmt"
	"strings"

	"github.com/kbukum/pspkit/resilience"
)

// PSPConfig configures the payment service provider integration. It is read
// from the "psp" section of the service config.
//
//	psp:
//	  provider: sandbox-eu
//	  base_path: /api/psp
//	  providers:
//	    - name: sandbox-eu
//	      type: sandbox
//	      options:
//	        currencies: [EUR]
//	  resilience:
//	    enabled: true
//	    circuit_breaker:
//	      failure_rate_threshold: 50
//	      wait_duration_in_open_state: 60s
//	    retry:
//	      max_attempts: 3
//	      wait_duration: 1s
type PSPConfig struct {
	// Provider is the default provider used when a request names none.
	Provider string `yaml:"provider" mapstructure:"provider"`
	// BasePath is the route prefix of the REST handlers.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`
	// SupportedCurrencies restricts accepted ISO 4217 codes. Empty accepts all.
	SupportedCurrencies []string          `yaml:"supported_currencies" mapstructure:"supported_currencies"`
	Resilience          resilience.Config `yaml:"resilience" mapstructure:"resilience"`
	// Providers lists the provider instances to create, in failover order.
	Providers []ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig declares one provider instance.
type ProviderConfig struct {
	// Name identifies the instance in routing, metrics and policy names.
	// Defaults to Type.
	Name string `yaml:"name" mapstructure:"name"`
	// Type selects the registered factory.
	Type    string         `yaml:"type" mapstructure:"type"`
	Options map[string]any `yaml:"options" mapstructure:"options"`
}

// DefaultPSPConfig returns the configuration a loader should unmarshal onto,
// so that keys absent from the file keep their defaults (including
// resilience.enabled).
func DefaultPSPConfig() PSPConfig {
	return PSPConfig{
		BasePath:   "/api/psp",
		Resilience: resilience.DefaultConfig(),
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *PSPConfig) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api/psp"
	}
	for i, cur := range c.SupportedCurrencies {
		c.SupportedCurrencies[i] = strings.ToUpper(strings.TrimSpace(cur))
	}
	for i := range c.Providers {
		if c.Providers[i].Name == "" {
			c.Providers[i].Name = c.Providers[i].Type
		}
	}
	if c.Provider == "" && len(c.Providers) > 0 {
		c.Provider = c.Providers[0].Name
	}
	c.Resilience.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *PSPConfig) Validate() error {
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("psp.base_path must start with / (got: %s)", c.BasePath)
	}
	for _, cur := range c.SupportedCurrencies {
		if len(cur) != 3 {
			return fmt.Errorf("psp.supported_currencies must hold ISO 4217 codes (got: %s)", cur)
		}
	}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Type == "" {
			return fmt.Errorf("psp.providers[%d].type is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("psp.providers: duplicate name %q", p.Name)
		}
		seen[p.Name] = true
	}
	if c.Provider != "" && len(c.Providers) > 0 && !seen[c.Provider] {
		return fmt.Errorf("psp.provider %q is not declared in psp.providers", c.Provider)
	}
	if err := c.Resilience.Validate(); err != nil {
		return fmt.Errorf("psp.%w", err)
	}
	return nil
}
