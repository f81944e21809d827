package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name 'svc', got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid staging", ServiceConfig{Name: "svc", Environment: "staging"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-service
environment: staging
version: "1.0.0"
psp:
  provider: stripe
  supported_currencies: [usd, eur]
  resilience:
    circuit_breaker:
      failure_rate_threshold: 25
      wait_duration_in_open_state: 30s
    retry:
      max_attempts: 5
    bulkhead:
      max_wait_duration: 250ms
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	type TestConfig struct {
		ServiceConfig `yaml:",inline" mapstructure:",squash"`
		PSP           PSPConfig `yaml:"psp" mapstructure:"psp"`
	}

	cfg := TestConfig{PSP: DefaultPSPConfig()}
	err := LoadConfig("test-service", &cfg, WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.ApplyDefaults()
	cfg.PSP.ApplyDefaults()

	if cfg.Name != "test-service" {
		t.Errorf("expected name 'test-service', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.PSP.Provider != "stripe" || cfg.PSP.BasePath != "/api/psp" {
		t.Errorf("unexpected psp config: %+v", cfg.PSP)
	}
	if len(cfg.PSP.SupportedCurrencies) != 2 || cfg.PSP.SupportedCurrencies[0] != "USD" {
		t.Errorf("expected upper-cased currencies, got %v", cfg.PSP.SupportedCurrencies)
	}

	res := cfg.PSP.Resilience
	if !res.Enabled {
		t.Error("expected resilience enabled by default")
	}
	if res.CircuitBreaker.FailureRateThreshold != 25 || res.CircuitBreaker.WaitDurationInOpenState != 30*time.Second {
		t.Errorf("unexpected circuit breaker config: %+v", res.CircuitBreaker)
	}
	if res.CircuitBreaker.SlidingWindowSize != 100 {
		t.Errorf("expected default sliding window, got %d", res.CircuitBreaker.SlidingWindowSize)
	}
	if res.Retry.MaxAttempts != 5 || !res.Retry.ExponentialBackoffEnabled {
		t.Errorf("unexpected retry config: %+v", res.Retry)
	}
	if res.Bulkhead.MaxWaitDuration != 250*time.Millisecond || res.Bulkhead.MaxConcurrentCalls != 25 {
		t.Errorf("unexpected bulkhead config: %+v", res.Bulkhead)
	}
	if err := cfg.PSP.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	type TestConfig struct {
		ServiceConfig `yaml:",inline" mapstructure:",squash"`
	}

	tests := []struct {
		name string
		opt  LoaderOption
	}{
		{"config file", WithConfigFile("/nonexistent/config.yml")},
		{"env file", WithEnvFile("/nonexistent/.env")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg TestConfig
			err := LoadConfig("pspd", &cfg, tc.opt)
			if err == nil || !strings.Contains(err.Error(), "does not exist") {
				t.Errorf("expected missing file error, got %v", err)
			}
		})
	}

	t.Run("nothing found is not an error", func(t *testing.T) {
		cfg := TestConfig{ServiceConfig: ServiceConfig{Name: "pspd"}}
		if err := LoadConfig("pspd", &cfg, WithFileSystem(&mockFS{})); err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Name != "pspd" {
			t.Errorf("preset name lost: %q", cfg.Name)
		}
	})
}

func TestLoaderResolve(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		lc         LoaderConfig
		wantConfig string
		wantEnv    string
	}{
		{"cmd dir first", []string{"./cmd/pspd/config.yml", "./config.yml", "./cmd/pspd/.env", "./.env"}, LoaderConfig{}, "./cmd/pspd/config.yml", "./cmd/pspd/.env"},
		{"service named files", []string{"./config/pspd.yml", "./.env.pspd", "./.env"}, LoaderConfig{}, "./config/pspd.yml", "./.env.pspd"},
		{"system config", []string{"/etc/pspd/config.yml"}, LoaderConfig{}, "/etc/pspd/config.yml", ""},
		{"explicit wins", []string{"./config.yml", "./.env"}, LoaderConfig{ConfigFile: "prod.yml", EnvFile: "prod.env"}, "prod.yml", "prod.env"},
		{"nothing found", nil, LoaderConfig{}, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			tc.lc.FileSystem = fs
			got := tc.lc.Resolve("pspd")
			if got.ConfigFile != tc.wantConfig || got.EnvFile != tc.wantEnv {
				t.Errorf("Resolve() = %+v, want config %q env %q", got, tc.wantConfig, tc.wantEnv)
			}
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	type TestConfig struct {
		ServiceConfig `yaml:",inline" mapstructure:",squash"`
		PSP           PSPConfig `yaml:"psp" mapstructure:"psp"`
	}

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: pspd\npsp:\n  resilience:\n    retry:\n      max_attempts: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("ENVIRONMENT=staging\nPSP_PROVIDER=adyen\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("PSP_PROVIDER")
	})
	t.Setenv("PSP_RESILIENCE_RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("PSP_RESILIENCE_BULKHEAD_MAX_WAIT_DURATION", "2s")

	cfg := TestConfig{PSP: DefaultPSPConfig()}
	if err := LoadConfig("pspd", &cfg, WithConfigFile(configPath), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "pspd" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.PSP.Provider != "adyen" {
		t.Errorf("expected provider from .env, got %q", cfg.PSP.Provider)
	}
	if got := cfg.PSP.Resilience.Retry.MaxAttempts; got != 7 {
		t.Errorf("expected env to override the file, got max_attempts %d", got)
	}
	if got := cfg.PSP.Resilience.Bulkhead.MaxWaitDuration; got != 2*time.Second {
		t.Errorf("max_wait_duration = %v", got)
	}
}

func TestEnvKeys(t *testing.T) {
	type inner struct {
		Level string `mapstructure:"level"`
	}
	type Base struct {
		Name string `mapstructure:"name"`
	}
	type sample struct {
		Base `mapstructure:",squash"`

		Logging  inner          `mapstructure:"logging"`
		Ptr      *inner         `mapstructure:"ptr"`
		Skipped  string         `mapstructure:"-"`
		Options  map[string]any `mapstructure:"options"`
		Entries  []inner        `mapstructure:"entries"`
		Tags     []string       `mapstructure:"tags"`
		Untagged bool
	}

	got := envKeys(reflect.TypeOf(&sample{}), "")
	want := []string{"name", "logging.level", "ptr.level", "tags", "untagged"}
	if !slices.Equal(got, want) {
		t.Errorf("envKeys() = %v, want %v", got, want)
	}
	if EnvName("psp.resilience.retry.max_attempts") != "PSP_RESILIENCE_RETRY_MAX_ATTEMPTS" {
		t.Errorf("EnvName() = %q", EnvName("psp.resilience.retry.max_attempts"))
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestWithConfigFileOption(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
}

func TestWithEnvFileOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvFile("/path/to/.env")(&lc)
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}

func TestPSPConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PSPConfig)
		errMsg string
	}{
		{"relative base path", func(c *PSPConfig) { c.BasePath = "api" }, "psp.base_path"},
		{"bad currency", func(c *PSPConfig) { c.SupportedCurrencies = []string{"EURO"} }, "psp.supported_currencies"},
		{"bad resilience", func(c *PSPConfig) { c.Resilience.Retry.MaxAttempts = -1 }, "psp.resilience.retry.max_attempts"},
		{"provider type", func(c *PSPConfig) { c.Providers = []ProviderConfig{{Name: "a"}} }, "psp.providers[0].type"},
		{"duplicate provider", func(c *PSPConfig) {
			c.Providers = []ProviderConfig{{Name: "a", Type: "sandbox"}, {Name: "a", Type: "sandbox"}}
		}, "duplicate name"},
		{"undeclared default", func(c *PSPConfig) {
			c.Provider = "stripe"
			c.Providers = []ProviderConfig{{Name: "a", Type: "sandbox"}}
		}, "not declared"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPSPConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestPSPConfigProviderDefaults(t *testing.T) {
	cfg := DefaultPSPConfig()
	cfg.Providers = []ProviderConfig{
		{Type: "sandbox"},
		{Name: "sandbox-us", Type: "sandbox", Options: map[string]any{"currencies": []string{"USD"}}},
	}
	cfg.ApplyDefaults()

	if cfg.Providers[0].Name != "sandbox" {
		t.Errorf("expected name to default to type, got %q", cfg.Providers[0].Name)
	}
	if cfg.Provider != "sandbox" {
		t.Errorf("expected the first provider as default, got %q", cfg.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
