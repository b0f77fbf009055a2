package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Hermes     HermesConfig     `yaml:"hermes"`
	LLM        LLMConfig        `yaml:"llm"`
	Sleeper    SleeperConfig    `yaml:"sleeper"`
	Solver     SolverConfig     `yaml:"solver"`
	Candidates CandidatesConfig `yaml:"candidates"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	APIToken    string `yaml:"api_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// LLMConfig selects the model provider. An empty BaseURL uses the provider's
// public endpoint; set it to reach an OpenAI-compatible local server.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type SleeperConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SolverConfig tunes the rating solve. Rule is "legacy" (the web client's
// update, graded scores on seeded rankings) or "zermelo" (MM iteration).
type SolverConfig struct {
	MaxIters int     `yaml:"max_iters"`
	Epsilon  float64 `yaml:"epsilon"`
	Rule     string  `yaml:"rule"`
}

type CandidatesConfig struct {
	Limit    int `yaml:"limit"`
	MaxItems int `yaml:"max_items"`
}

type ExchangeConfig struct {
	MaxRosterSize int     `yaml:"max_roster_size"`
	MaxResults    int     `yaml:"max_results"`
	DefaultMargin float64 `yaml:"default_margin"`
	TimeoutMs     int     `yaml:"timeout_ms"`
	Workers       int     `yaml:"workers"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutMs) * time.Millisecond
}

func (c *Config) ExchangeTimeout() time.Duration {
	return time.Duration(c.Exchange.TimeoutMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			TimeoutMs: 30000,
		},
		Sleeper: SleeperConfig{
			BaseURL: "https://api.sleeper.app/v1",
		},
		Solver: SolverConfig{
			MaxIters: 1000,
			Epsilon:  1e-6,
			Rule:     "legacy",
		},
		Candidates: CandidatesConfig{
			Limit:    10,
			MaxItems: 15,
		},
		Exchange: ExchangeConfig{
			MaxRosterSize: 15,
			MaxResults:    250000,
			DefaultMargin: 5,
			TimeoutMs:     10000,
			Workers:       4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BARTER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("BARTER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("BARTER_API_TOKEN"); v != "" {
		cfg.Server.APIToken = v
	}
	if v := os.Getenv("BARTER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("BARTER_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("BARTER_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("BARTER_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("BARTER_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("BARTER_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("BARTER_SLEEPER_URL"); v != "" {
		cfg.Sleeper.BaseURL = v
	}
	if v := os.Getenv("BARTER_SOLVER_RULE"); v != "" {
		cfg.Solver.Rule = v
	}
	if v := os.Getenv("BARTER_EXCHANGE_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Exchange.MaxResults = n
		}
	}
	if v := os.Getenv("BARTER_EXCHANGE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Exchange.Workers = n
		}
	}
	if v := os.Getenv("BARTER_EXCHANGE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Exchange.TimeoutMs = n
		}
	}
	if v := os.Getenv("BARTER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
