// Package llm provides the vision model backends: hosted (OpenAI Files and
// Responses APIs), local (Ollama) and compat (OpenAI-compatible chat).
package llm

import (
	"fmt"

	"github.com/spherical/vision-extractor/internal/config"
	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/observability"
)

// New selects the backend named by cfg.Backend.Kind.
func New(cfg *config.Config, logger *observability.Logger) (domain.Backend, error) {
	if logger == nil {
		logger = observability.Nop()
	}

	switch cfg.Backend.Kind {
	case config.BackendHosted:
		h := cfg.Backend.Hosted
		return NewHostedBackend(HostedOptions{
			APIKey:  cfg.HostedAPIKey(),
			Model:   h.Model,
			BaseURL: h.BaseURL,
			Detail:  h.Detail,
			Timeout: h.Timeout,
			Logger:  logger,
		}), nil
	case config.BackendLocal:
		l := cfg.Backend.Local
		return NewLocalBackend(LocalOptions{
			Host:    l.Host,
			Model:   l.Model,
			TempDir: cfg.Rasterizer.TempDir,
			Logger:  logger,
		}), nil
	case config.BackendCompat:
		c := cfg.Backend.Compat
		return NewCompatBackend(CompatOptions{
			APIKey:  cfg.CompatAPIKey(),
			Model:   c.Model,
			BaseURL: c.BaseURL,
			Timeout: c.Timeout,
			Logger:  logger,
		}), nil
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown backend %q", cfg.Backend.Kind), nil)
	}
}
