// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

// TestLoad covers a valid file, invalid JSON and a nonexistent path.
func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `{
        "hosts": [
            {
                "name": "OpenAI",
                "type": "openai",
                "models": ["gpt-4o-mini"],
                "parameters": {"temperature": 0.2}
            },
            {
                "name": "Local",
                "url": "http://localhost:8080",
                "type": "openai-compatible",
                "models": ["qwen"]
            }
        ]
    }`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if len(cfg.Hosts) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(cfg.Hosts))
	}
	if cfg.TimeoutSeconds != 600 {
		t.Fatalf("expected default timeout of 600 seconds, got %d", cfg.TimeoutSeconds)
	}
	if cfg.RequestTimeout() != 600*time.Second {
		t.Fatalf("expected default request timeout of 600s, got %v", cfg.RequestTimeout())
	}
	if got := cfg.Hosts[0].Parameters.TemperatureOrDefault(); got != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", got)
	}
	if got := cfg.Hosts[1].Parameters.TemperatureOrDefault(); got != DefaultTemperature {
		t.Fatalf("expected default temperature, got %v", got)
	}
	if got := cfg.Hosts[1].Parameters.MaxTokensOrDefault(); got != DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", got)
	}

	if _, err := Load(writeTempConfig(t, `{ "hosts": [`)); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}
	if _, err := Load("nonexistent.json"); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty is valid", cfg: Config{}},
		{name: "unknown host type", cfg: Config{Hosts: []Host{{Name: "x", Type: "ollama"}}}, wantErr: "unknown type"},
		{name: "compatible without url", cfg: Config{Hosts: []Host{{Name: "x", Type: HostTypeOpenAICompatible}}}, wantErr: "url is required"},
		{name: "openai without url", cfg: Config{Hosts: []Host{{Name: "x", Type: HostTypeOpenAI}}}},
		{name: "unknown driver", cfg: Config{Store: StoreConfig{Driver: "mysql", DSN: "x"}}, wantErr: "unknown driver"},
		{name: "driver without dsn", cfg: Config{Store: StoreConfig{Driver: StoreDriverSQLite}}, wantErr: "dsn is required"},
		{name: "sqlite", cfg: Config{Store: StoreConfig{Driver: StoreDriverSQLite, DSN: "file:runs.db"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	var cfg Config
	if cfg.Pause() != time.Second {
		t.Fatalf("expected 1s pause, got %v", cfg.Pause())
	}
	cfg.PauseMs = -1
	if cfg.Pause() != 0 {
		t.Fatalf("negative pause should disable waiting, got %v", cfg.Pause())
	}
	if cfg.LogFilePath() != DefaultLogFile || cfg.DatasetPath() != DefaultDataset || cfg.ReportPath() != DefaultReport {
		t.Fatalf("unexpected path defaults: %s %s %s", cfg.LogFilePath(), cfg.DatasetPath(), cfg.ReportPath())
	}
	if cfg.SystemPromptText() != DefaultSystemPrompt {
		t.Fatalf("unexpected system prompt %q", cfg.SystemPromptText())
	}
}

func TestScraperDefaults(t *testing.T) {
	t.Setenv(ScraperTokenEnv, "env-token")
	s := ScraperConfig{BaseURL: "http://example.test/v1/", Output: "out/foods.csv"}.WithDefaults()
	if s.BaseURL != "http://example.test/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", s.BaseURL)
	}
	if s.Token != "env-token" {
		t.Fatalf("expected token from environment, got %q", s.Token)
	}
	if s.PageSize != 10 || s.MaxItems != 10 || s.BackupEvery != 25 || s.Retries != 3 {
		t.Fatalf("unexpected numeric defaults: %+v", s)
	}
	if s.RequestDelay() != 500*time.Millisecond {
		t.Fatalf("expected 500ms delay, got %v", s.RequestDelay())
	}
	if s.ErrorOutput != "out/foods_error.csv" {
		t.Fatalf("unexpected error output %q", s.ErrorOutput)
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv(OpenAIKeyEnv, "from-openai-env")
	t.Setenv("CUSTOM_KEY", "from-custom-env")

	if got := (Host{Type: HostTypeOpenAI, APIKey: "inline"}).ResolveAPIKey(); got != "inline" {
		t.Fatalf("expected inline key, got %q", got)
	}
	if got := (Host{Type: HostTypeOpenAI, APIKeyEnv: "CUSTOM_KEY"}).ResolveAPIKey(); got != "from-custom-env" {
		t.Fatalf("expected custom env key, got %q", got)
	}
	if got := (Host{Type: HostTypeOpenAI}).ResolveAPIKey(); got != "from-openai-env" {
		t.Fatalf("expected OPENAI_API_KEY, got %q", got)
	}
	if got := (Host{Type: HostTypeOpenAICompatible}).ResolveAPIKey(); got != "" {
		t.Fatalf("compatible hosts should not inherit OPENAI_API_KEY, got %q", got)
	}
}

func TestShowConfigHidesSecrets(t *testing.T) {
	cfg := &Config{Hosts: []Host{{Name: "OpenAI", Type: HostTypeOpenAI, APIKey: "sk-secret", Models: []string{"gpt-4"}}}}
	var buf bytes.Buffer
	ShowConfig(&buf, "config/config.json", cfg)
	out := buf.String()
	if strings.Contains(out, "sk-secret") {
		t.Fatalf("api key leaked:\n%s", out)
	}
	if !strings.Contains(out, "api key: set") || !strings.Contains(out, "models: gpt-4") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
