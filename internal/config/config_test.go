package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"BARTER_PORT", "BARTER_METRICS_PORT", "BARTER_API_TOKEN",
	"BARTER_DATABASE_URL", "BARTER_HERMES_URL", "BARTER_LLM_PROVIDER", "BARTER_LLM_BASE_URL",
	"BARTER_LLM_API_KEY", "BARTER_LLM_MODEL", "BARTER_SLEEPER_URL",
	"BARTER_SOLVER_RULE", "BARTER_EXCHANGE_MAX_RESULTS", "BARTER_EXCHANGE_WORKERS",
	"BARTER_EXCHANGE_TIMEOUT_MS", "BARTER_LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected metrics port 8701, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Hermes.URL != "nats://localhost:4222" {
		t.Errorf("expected nats URL, got %s", cfg.Hermes.URL)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected llm provider 'openai', got '%s'", cfg.LLM.Provider)
	}
	if cfg.Sleeper.BaseURL != "https://api.sleeper.app/v1" {
		t.Errorf("expected sleeper URL, got %s", cfg.Sleeper.BaseURL)
	}
	if cfg.Solver.MaxIters != 1000 || cfg.Solver.Epsilon != 1e-6 || cfg.Solver.Rule != "legacy" {
		t.Errorf("unexpected solver defaults: %+v", cfg.Solver)
	}
	if cfg.Candidates.Limit != 10 || cfg.Candidates.MaxItems != 15 {
		t.Errorf("unexpected candidates defaults: %+v", cfg.Candidates)
	}
	ex := cfg.Exchange
	if ex.MaxRosterSize != 15 || ex.MaxResults != 250000 || ex.DefaultMargin != 5 || ex.Workers != 4 {
		t.Errorf("unexpected exchange defaults: %+v", ex)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	if cfg.ExchangeTimeout() != 10*time.Second {
		t.Errorf("expected ExchangeTimeout 10s, got %v", cfg.ExchangeTimeout())
	}
	if cfg.LLMTimeout() != 30*time.Second {
		t.Errorf("expected LLMTimeout 30s, got %v", cfg.LLMTimeout())
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "barter.yaml")
	data := []byte(`
server:
  port: 9100
llm:
  model: local-model
solver:
  rule: zermelo
exchange:
  default_margin: 2.5
  max_results: 0
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 8701 {
		t.Errorf("expected default metrics port to survive, got %d", cfg.Server.MetricsPort)
	}
	if cfg.LLM.Model != "local-model" {
		t.Errorf("expected model 'local-model', got '%s'", cfg.LLM.Model)
	}
	if cfg.Solver.Rule != "zermelo" || cfg.Solver.MaxIters != 1000 {
		t.Errorf("unexpected solver config: %+v", cfg.Solver)
	}
	if cfg.Exchange.DefaultMargin != 2.5 {
		t.Errorf("expected margin 2.5, got %v", cfg.Exchange.DefaultMargin)
	}
	if cfg.Exchange.MaxResults != 0 {
		t.Errorf("expected result guard disabled, got %d", cfg.Exchange.MaxResults)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BARTER_PORT", "9000")
	t.Setenv("BARTER_METRICS_PORT", "9001")
	t.Setenv("BARTER_API_TOKEN", "secret-token")
	t.Setenv("BARTER_DATABASE_URL", "postgres://localhost/barter_test")
	t.Setenv("BARTER_HERMES_URL", "nats://nats:4222")
	t.Setenv("BARTER_LLM_PROVIDER", "anthropic")
	t.Setenv("BARTER_LLM_BASE_URL", "http://llm:8080/v1")
	t.Setenv("BARTER_LLM_API_KEY", "sk-test")
	t.Setenv("BARTER_LLM_MODEL", "test-model")
	t.Setenv("BARTER_SLEEPER_URL", "http://sleeper:8000/v1")
	t.Setenv("BARTER_SOLVER_RULE", "zermelo")
	t.Setenv("BARTER_EXCHANGE_MAX_RESULTS", "100")
	t.Setenv("BARTER_EXCHANGE_WORKERS", "2")
	t.Setenv("BARTER_EXCHANGE_TIMEOUT_MS", "500")
	t.Setenv("BARTER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9001 {
		t.Errorf("expected metrics port 9001, got %d", cfg.Server.MetricsPort)
	}
	if cfg.Server.APIToken != "secret-token" {
		t.Errorf("expected api token 'secret-token', got '%s'", cfg.Server.APIToken)
	}
	if cfg.Database.URL != "postgres://localhost/barter_test" {
		t.Errorf("expected database URL, got '%s'", cfg.Database.URL)
	}
	if cfg.Hermes.URL != "nats://nats:4222" {
		t.Errorf("expected hermes URL, got '%s'", cfg.Hermes.URL)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("expected llm provider 'anthropic', got '%s'", cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL != "http://llm:8080/v1" || cfg.LLM.APIKey != "sk-test" || cfg.LLM.Model != "test-model" {
		t.Errorf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Sleeper.BaseURL != "http://sleeper:8000/v1" {
		t.Errorf("expected sleeper URL, got '%s'", cfg.Sleeper.BaseURL)
	}
	if cfg.Solver.Rule != "zermelo" {
		t.Errorf("expected solver rule 'zermelo', got '%s'", cfg.Solver.Rule)
	}
	if cfg.Exchange.MaxResults != 100 || cfg.Exchange.Workers != 2 {
		t.Errorf("unexpected exchange config: %+v", cfg.Exchange)
	}
	if cfg.ExchangeTimeout() != 500*time.Millisecond {
		t.Errorf("expected ExchangeTimeout 500ms, got %v", cfg.ExchangeTimeout())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
}

func TestLoadFromEnv_IgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("BARTER_PORT", "not-a-port")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8700 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}
