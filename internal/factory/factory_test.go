package factory

import (
	"context"
	"strings"
	"testing"

	"go-plant-inspector/internal/vision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateModel(t *testing.T) {
	f := NewModelFactory()
	opts := vision.DefaultOptions().WithAPIKey("test-key")

	tests := []struct {
		provider   ProviderType
		namePrefix string
	}{
		{GeminiProvider, "gemini/"},
		{OpenAIProvider, "openai/"},
		{AnthropicProvider, "anthropic/"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			model, err := f.CreateModel(context.Background(), tt.provider, opts)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(model.Name(), tt.namePrefix), model.Name())
		})
	}
}

func TestCreateModel_CustomModelName(t *testing.T) {
	model, err := NewModelFactory().CreateModel(context.Background(), OpenAIProvider,
		vision.DefaultOptions().WithAPIKey("k").WithModel("gpt-4.1"))
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4.1", model.Name())
}

func TestCreateModel_Errors(t *testing.T) {
	f := NewModelFactory()

	_, err := f.CreateModel(context.Background(), "ollama", vision.DefaultOptions().WithAPIKey("k"))
	assert.ErrorContains(t, err, "unsupported model provider")

	_, err = f.CreateModel(context.Background(), GeminiProvider, vision.DefaultOptions())
	assert.ErrorContains(t, err, "requires an API key")
}
