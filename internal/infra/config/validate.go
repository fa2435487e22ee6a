package config

import "fmt"

// Validate checks a loaded Config for contradictions before startup.
func Validate(cfg *Config) error {
	if cfg.LLM.Provider != "gemini" {
		return fmt.Errorf("llm.provider: unsupported provider %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model: must not be empty")
	}
	if cfg.LLM.RateLimit < 0 {
		return fmt.Errorf("llm.rate_limit: must not be negative")
	}

	switch cfg.Logger.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logger.level: unknown level %q", cfg.Logger.Level)
	}
	switch cfg.Logger.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logger.format: unknown format %q", cfg.Logger.Format)
	}

	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		return fmt.Errorf("tracer.exporter: unsupported exporter %q", cfg.Tracer.Exporter)
	}

	if cfg.Orchestrator.IdleResetDelay < 0 {
		return fmt.Errorf("orchestrator.idle_reset_delay: must not be negative")
	}
	if cfg.Orchestrator.HistoryLimit < 0 {
		return fmt.Errorf("orchestrator.history_limit: must not be negative")
	}
	return nil
}
