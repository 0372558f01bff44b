package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type testPlayground struct {
	BaseURL string `mapstructure:"base_url"`
	AgentID string `mapstructure:"agent_id"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Playground    testPlayground `mapstructure:"playground"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfig_ApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Debug: true}
	cfg.ApplyDefaults()
	if cfg.Name != "chatstream" {
		t.Errorf("expected name 'chatstream', got %q", cfg.Name)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected 'development', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug logging when debug is set, got %q", cfg.Logging.Level)
	}
}

func TestServiceConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"bad environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: chatstream-test
environment: staging
logging:
  level: warn
playground:
  base_url: http://localhost:7777
  agent_id: echo
`)

	var cfg testConfig
	if err := LoadConfig("chatstream-test", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "chatstream-test" {
		t.Errorf("expected name 'chatstream-test', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected logging level 'warn', got %q", cfg.Logging.Level)
	}
	if cfg.Playground.BaseURL != "http://localhost:7777" {
		t.Errorf("expected base url, got %q", cfg.Playground.BaseURL)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "playground:\n  base_url: http://from-file\n  agent_id: echo\n")
	t.Setenv("CSTEST_PLAYGROUND_BASE_URL", "http://from-env")
	t.Setenv("CSTEST_LOGGING_LEVEL", "error")

	var cfg testConfig
	if err := LoadConfig("cstest", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Playground.BaseURL != "http://from-env" {
		t.Errorf("expected env value, got %q", cfg.Playground.BaseURL)
	}
	if cfg.Playground.AgentID != "echo" {
		t.Errorf("expected file value to survive, got %q", cfg.Playground.AgentID)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected logging level 'error', got %q", cfg.Logging.Level)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "CSENV_PLAYGROUND_AGENT_ID=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("CSENV_PLAYGROUND_AGENT_ID") })

	var cfg testConfig
	err := LoadConfig("csenv", &cfg,
		WithFileSystem(&mockFS{files: map[string]bool{envPath: true}, real: true}),
		WithEnvFile(envPath),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Playground.AgentID != "from-dotenv" {
		t.Errorf("expected value from .env, got %q", cfg.Playground.AgentID)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("svc", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadConfig_NoFiles(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("svc", &cfg, WithFileSystem(&mockFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("expected success without files, got %v", err)
	}
}

func TestResolve_SearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"config.yml": true,
		filepath.Join("/home/u/.config", "my-svc", "config.yml"): true,
		".env": true,
	}}
	files := Resolve("my-svc", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != "config.yml" {
		t.Errorf("expected working directory file first, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}

	delete(fs.files, "config.yml")
	files = Resolve("my-svc", LoaderConfig{FileSystem: fs})
	want := filepath.Join("/home/u/.config", "my-svc", "config.yml")
	if files.ConfigFile != want {
		t.Errorf("expected %q, got %q", want, files.ConfigFile)
	}
}

func TestKeyVariants(t *testing.T) {
	got := keyVariants("playground_base_url")
	want := []string{
		"playground_base_url",
		"playground_base.url",
		"playground.base_url",
		"playground.base.url",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := keyVariants("debug"); !reflect.DeepEqual(got, []string{"debug"}) {
		t.Errorf("expected [debug], got %v", got)
	}
}

type mockFS struct {
	files map[string]bool
	real  bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	if m.real {
		return RealFileSystem{}.LoadEnv(path)
	}
	return nil
}

func (m *mockFS) UserConfigDir() (string, error) { return "/home/u/.config", nil }
