package factory

import (
	"fmt"

	"notely-be/pkg/llm"
	"notely-be/pkg/llm/gemini"
	"notely-be/pkg/llm/huggingface"
	"notely-be/pkg/llm/ollama"

	"golang.org/x/time/rate"
)

const (
	ProviderGemini      = "gemini"
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
)

// Settings carries everything except the per-user API key.
type Settings struct {
	Provider           string
	DefaultModel       string
	GeminiBaseURL      string
	OllamaBaseURL      string
	HuggingFaceBaseURL string
	Limiter            *rate.Limiter
}

// RequiresKey reports whether the provider needs a credential.
func RequiresKey(providerType string) bool {
	return providerType == ProviderGemini || providerType == ProviderHuggingFace
}

// NewLLMProvider builds one provider instance. Callers construct a fresh instance per
// request so the credential in use is always the requesting user's.
func NewLLMProvider(s Settings, apiKey string) (llm.LLMProvider, error) {
	switch s.Provider {
	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		return gemini.NewGeminiProvider(apiKey, s.GeminiBaseURL, s.DefaultModel, s.Limiter), nil
	case ProviderHuggingFace:
		if apiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an api key")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, s.HuggingFaceBaseURL, s.DefaultModel, s.Limiter), nil
	case ProviderOllama:
		return ollama.NewOllamaProvider(s.OllamaBaseURL, s.DefaultModel, s.Limiter), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
