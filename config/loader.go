package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file operations of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem on the OS.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// LoaderConfig holds loader dependencies and explicit file paths.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path. A missing explicit
// file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix overrides the environment prefix, which defaults to the
// upper-cased service name.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// ResolvedFiles contains the config and env files LoadConfig will read.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// Resolve finds the files for service. Explicit paths win; otherwise the
// working directory is searched first, then the user config directory.
func Resolve(service string, lc LoaderConfig) ResolvedFiles {
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(lc.FileSystem, configCandidates(service, lc.FileSystem))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(lc.FileSystem, []string{".env." + service, ".env"})
	}
	return files
}

func configCandidates(service string, fs FileSystem) []string {
	paths := []string{
		service + ".yml",
		service + ".yaml",
		"config.yml",
		"config.yaml",
		filepath.Join("config", service+".yml"),
	}
	if dir, err := fs.UserConfigDir(); err == nil && dir != "" {
		paths = append(paths,
			filepath.Join(dir, service, "config.yml"),
			filepath.Join(dir, service, "config.yaml"),
		)
	}
	return paths
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig loads configuration for service into cfg.
func LoadConfig(service string, cfg interface{}, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.EnvPrefix == "" {
		lc.EnvPrefix = strings.ToUpper(strings.ReplaceAll(service, "-", "_"))
	}

	files := Resolve(service, lc)
	v := viper.New()

	if files.ConfigFile != "" {
		if !lc.FileSystem.Exists(files.ConfigFile) {
			return fmt.Errorf("config: file %s not found", files.ConfigFile)
		}
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("config: load %s: %w", files.EnvFile, err)
		}
	}

	bindPrefixedEnv(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal config for %s: %w", service, err)
	}
	return nil
}

// bindPrefixedEnv sets every PREFIX_* variable under each key it could
// stand for. Viper cannot tell whether an underscore separates two levels
// or belongs to a key name, so all splits are set and Unmarshal keeps the
// ones that match a field.
func bindPrefixedEnv(v *viper.Viper, prefix string, environ []string) {
	prefix += "_"
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
			continue
		}
		for _, variant := range keyVariants(strings.ToLower(key[len(prefix):])) {
			v.Set(variant, value)
		}
	}
}

// keyVariants returns every way of joining the underscore separated parts
// of key with either "." or "_":
//
//	playground_base_url -> playground_base_url, playground_base.url,
//	                       playground.base_url, playground.base.url
func keyVariants(key string) []string {
	parts := strings.Split(key, "_")
	if len(parts) > 8 {
		return []string{key, strings.ReplaceAll(key, "_", ".")}
	}
	variants := []string{parts[0]}
	for _, part := range parts[1:] {
		next := make([]string, 0, 2*len(variants))
		for _, prefix := range variants {
			next = append(next, prefix+"_"+part, prefix+"."+part)
		}
		variants = next
	}
	return variants
}
