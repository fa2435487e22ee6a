package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	LLM          LLMConfig          `yaml:"llm"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Logger       LoggerConfig       `yaml:"logger"`
	Tracer       TracerConfig       `yaml:"tracer"`
}

// LLMConfig holds generation backend settings.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	ConnTimeout time.Duration `yaml:"conn_timeout"`
	RespTimeout time.Duration `yaml:"resp_timeout"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second, 0 = default
	Pool        PoolConfig    `yaml:"pool"`
	Breaker     BreakerConfig `yaml:"breaker"`
	Mock        MockConfig    `yaml:"mock"`
}

// PoolConfig holds HTTP connection pool settings.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// BreakerConfig holds circuit breaker settings for the backend.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// MockConfig allows forcing mock mode per stage. A nil field means "derive
// from credential presence". Production treats credential presence as
// all-or-nothing; the per-stage overrides exist for testing only.
type MockConfig struct {
	Router     *bool `yaml:"router,omitempty"`
	Dispatcher *bool `yaml:"dispatcher,omitempty"`
}

// RouterMock reports whether the intent router should use the offline
// rule-based classifier instead of the backend.
func (c LLMConfig) RouterMock() bool {
	if c.Mock.Router != nil {
		return *c.Mock.Router
	}
	return c.APIKey == ""
}

// DispatcherMock reports whether the dispatcher should use canned replies
// instead of the backend.
func (c LLMConfig) DispatcherMock() bool {
	if c.Mock.Dispatcher != nil {
		return *c.Mock.Dispatcher
	}
	return c.APIKey == ""
}

// OrchestratorConfig holds conversation loop settings.
type OrchestratorConfig struct {
	// IdleResetDelay is how long after turn completion the active agent
	// indicator reverts to the router.
	IdleResetDelay time.Duration `yaml:"idle_reset_delay"`
	// HistoryLimit caps how many prior turns are forwarded to the
	// dispatcher. 0 means unlimited.
	HistoryLimit int `yaml:"history_limit"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			ConnTimeout: 30 * time.Second,
			RespTimeout: 120 * time.Second,
		},
		Orchestrator: OrchestratorConfig{
			IdleResetDelay: 2 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file is not an error: defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps SIMRS_* env vars to config fields. GEMINI_API_KEY
// is honored as a fallback credential source so the binary runs without any
// config file at all.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIMRS_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if v := os.Getenv("SIMRS_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SIMRS_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("SIMRS_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SIMRS_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("SIMRS_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("SIMRS_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}
