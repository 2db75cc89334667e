package factory

import (
	"context"
	"fmt"

	"go-plant-inspector/internal/vision"
)

// ProviderType represents the supported vision model backends
type ProviderType string

const (
	// GeminiProvider uses Google's Gemini API
	GeminiProvider ProviderType = "gemini"
	// OpenAIProvider uses OpenAI or any compatible chat-completions endpoint
	OpenAIProvider ProviderType = "openai"
	// AnthropicProvider uses the Anthropic Messages API
	AnthropicProvider ProviderType = "anthropic"
)

// ModelFactory creates vision models
type ModelFactory interface {
	CreateModel(ctx context.Context, providerType ProviderType, opts vision.Options) (vision.Model, error)
}

// modelFactory implements ModelFactory
type modelFactory struct{}

// NewModelFactory creates a new model factory
func NewModelFactory() ModelFactory {
	return &modelFactory{}
}

// CreateModel creates a model based on the specified provider
func (f *modelFactory) CreateModel(ctx context.Context, providerType ProviderType, opts vision.Options) (vision.Model, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s provider requires an API key", providerType)
	}

	switch providerType {
	case GeminiProvider:
		return vision.NewGeminiModel(ctx, opts)
	case OpenAIProvider:
		return vision.NewOpenAIModel(opts), nil
	case AnthropicProvider:
		return vision.NewAnthropicModel(opts), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", providerType)
	}
}
