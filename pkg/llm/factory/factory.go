package factory

import (
	"context"
	"fmt"

	"risk-review-be/pkg/llm"
	"risk-review-be/pkg/llm/gemini"
	"risk-review-be/pkg/llm/mock"
	"risk-review-be/pkg/llm/ollama"
)

type Config struct {
	Provider      string // "gemini", "ollama", "mock"
	Model         string
	GeminiBackend string // "apikey" or "vertex"
	APIKey        string
	Project       string
	Location      string
	BaseURL       string
}

func NewGenerator(ctx context.Context, cfg Config) (llm.Generator, error) {
	switch cfg.Provider {
	case "gemini", "":
		switch cfg.GeminiBackend {
		case "vertex":
			p, err := gemini.NewVertexProvider(ctx, cfg.Project, cfg.Location, cfg.Model)
			if err != nil {
				return nil, err
			}
			return p, nil
		case "apikey", "":
			if cfg.APIKey == "" {
				return nil, fmt.Errorf("gemini apikey backend requires GOOGLE_GEMINI_API_KEY")
			}
			return gemini.NewAPIKeyProvider(cfg.APIKey, cfg.Model), nil
		default:
			return nil, fmt.Errorf("unsupported gemini backend: %s", cfg.GeminiBackend)
		}
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
