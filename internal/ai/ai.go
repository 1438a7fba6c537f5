// Package ai calls the configured text-generation provider. MOCK never
// reaches this package; it is handled by the generation pipeline directly.
package ai

import (
	"context"
	"strings"
	"time"

	"launchos/internal/models"
)

// RequestTimeout bounds a single provider call. A slow provider degrades to
// the mock fallback instead of hanging the request.
const RequestTimeout = 30 * time.Second

// TextGenerator produces raw model text for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Config selects and parameterizes a provider.
type Config struct {
	Provider models.AIProvider
	APIKey   string
	Model    string
}

// NewTextGenerator returns a client for the configured provider, or nil for
// MOCK and for providers missing a key or model.
func NewTextGenerator(cfg Config) TextGenerator {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil
	}
	switch cfg.Provider {
	case models.ProviderOpenAI:
		return newOpenAIClient(cfg.APIKey, cfg.Model)
	case models.ProviderAnthropic:
		return newAnthropicClient(cfg.APIKey, cfg.Model)
	default:
		return nil
	}
}

// ExtractLikelyJSON pulls the JSON object out of model text that may be
// wrapped in markdown fences or prose.
func ExtractLikelyJSON(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "```")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first >= 0 && last > first {
		return cleaned[first : last+1]
	}
	return cleaned
}
