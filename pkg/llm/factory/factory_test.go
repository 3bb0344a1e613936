package factory

import (
	"testing"

	"notely-be/pkg/llm/gemini"
	"notely-be/pkg/llm/huggingface"
	"notely-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(Settings{Provider: ProviderGemini, DefaultModel: "m"}, "key")
	require.NoError(t, err)
	assert.IsType(t, &gemini.GeminiProvider{}, p)

	p, err = NewLLMProvider(Settings{Provider: ProviderHuggingFace, DefaultModel: "m"}, "key")
	require.NoError(t, err)
	assert.IsType(t, &huggingface.HuggingFaceProvider{}, p)

	p, err = NewLLMProvider(Settings{Provider: ProviderOllama, DefaultModel: "m"}, "")
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)
}

func TestNewLLMProviderRejects(t *testing.T) {
	_, err := NewLLMProvider(Settings{Provider: ProviderGemini}, "")
	assert.Error(t, err)
	_, err = NewLLMProvider(Settings{Provider: ProviderHuggingFace}, "")
	assert.Error(t, err)
	_, err = NewLLMProvider(Settings{Provider: "openai"}, "k")
	assert.Error(t, err)

	assert.True(t, RequiresKey(ProviderHuggingFace))
	assert.False(t, RequiresKey(ProviderOllama))
}
