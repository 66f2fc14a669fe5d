package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// Option keys understood by the providers.
const (
	OptModel       = "model"
	OptJSON        = "json"        // bool: request a JSON object reply
	OptMaxTokens   = "max_tokens"  // int
	OptTemperature = "temperature" // float64
)

// ErrNoAPIKey is returned when a provider is built without credentials.
var ErrNoAPIKey = errors.New("llm: api key not configured")

// Settings selects and configures a provider at bootstrap.
type Settings struct {
	Provider string // gemini | deepseek | groq
	Model    string
	APIKey   string
	BaseURL  string // OpenAI-compatible endpoints only
}

// New builds the configured provider. Callers own the result and inject it
// into the extractor and insight generator.
func New(ctx context.Context, s Settings) (Provider, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", s.Provider, ErrNoAPIKey)
	}
	switch strings.ToLower(s.Provider) {
	case "gemini", "":
		return NewGeminiProvider(ctx, s.APIKey, s.Model)
	case "deepseek":
		p := NewDeepSeekProvider(s.APIKey)
		if s.Model != "" {
			p.Model = s.Model
		}
		if s.BaseURL != "" {
			p.BaseURL = s.BaseURL
		}
		return p, nil
	case "groq":
		p := NewGroqProvider(s.APIKey)
		if s.Model != "" {
			p.Model = s.Model
		}
		if s.BaseURL != "" {
			p.BaseURL = s.BaseURL
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}
}

func stringOpt(options map[string]interface{}, key, fallback string) string {
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return fallback
}

func boolOpt(options map[string]interface{}, key string) bool {
	val, _ := options[key].(bool)
	return val
}

func intOpt(options map[string]interface{}, key string, fallback int) int {
	if val, ok := options[key].(int); ok && val > 0 {
		return val
	}
	return fallback
}

func floatOpt(options map[string]interface{}, key string, fallback float64) float64 {
	if val, ok := options[key].(float64); ok {
		return val
	}
	return fallback
}
