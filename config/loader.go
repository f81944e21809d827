package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is what the loader needs from the disk.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv exports the variables of a .env file. Variables already set in
// the environment win.
func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

// LoaderConfig holds the loader's file system and explicit file paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile reads path instead of searching for config.yml. The file
// must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile loads path instead of searching for a .env file. The file
// must exist.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolvedFiles are the files LoadConfig reads. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolve picks the config and .env files for service: the explicit paths
// when set, otherwise the first existing candidate of
//
//	./cmd/{service}/config.yml, ./config/{service}.yml, ./config.yml, /etc/{service}/config.yml
//	./cmd/{service}/.env, ./.env.{service}, ./.env
func (lc LoaderConfig) Resolve(service string) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = lc.firstExisting(
			"./cmd/"+service+"/config.yml",
			"./config/"+service+".yml",
			"./config.yml",
			"/etc/"+service+"/config.yml",
		)
	}
	if files.EnvFile == "" {
		files.EnvFile = lc.firstExisting(
			"./cmd/"+service+"/.env",
			"./.env."+service,
			"./.env",
		)
	}
	return files
}

func (lc LoaderConfig) firstExisting(paths ...string) string {
	for _, p := range paths {
		if lc.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg, a pointer to a struct with mapstructure tags, from
// the service's config file and environment. Fields already set in cfg are
// kept unless a source overrides them.
//
// Every leaf key can be overridden by the environment variable named after
// its upper-cased path, so psp.resilience.retry.max_attempts is read from
// PSP_RESILIENCE_RETRY_MAX_ATTEMPTS. The .env file is loaded first and never
// replaces variables already set.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: osFS{}}
	for _, opt := range opts {
		opt(&lc)
	}
	for _, explicit := range []string{lc.ConfigFile, lc.EnvFile} {
		if explicit != "" && !lc.FileSystem.Exists(explicit) {
			return fmt.Errorf("config for %s: %s does not exist", serviceName, explicit)
		}
	}
	files := lc.Resolve(serviceName)

	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("config for %s: loading %s: %w", serviceName, files.EnvFile, err)
		}
	}

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config for %s: reading %s: %w", serviceName, files.ConfigFile, err)
		}
	}
	for _, key := range envKeys(reflect.TypeOf(cfg), "") {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return fmt.Errorf("config for %s: binding %s: %w", serviceName, key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config for %s: %w", serviceName, err)
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// envKeys lists the leaf keys of t by mapstructure tag. Squashed embedded
// structs add no path segment. Maps and slices of structs cannot be set
// from one variable and are skipped.
func envKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if f.Anonymous && strings.Contains(opts, "squash") {
			keys = append(keys, envKeys(f.Type, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		switch {
		case ft.Kind() == reflect.Struct:
			keys = append(keys, envKeys(ft, key)...)
		case ft.Kind() == reflect.Map:
		case ft.Kind() == reflect.Slice && ft.Elem().Kind() == reflect.Struct:
		default:
			keys = append(keys, key)
		}
	}
	return keys
}
