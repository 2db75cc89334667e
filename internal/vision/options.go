package vision

// Options configures a provider client
type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

// Default model per provider
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-5"
)

const defaultMaxTokens = 2048

// DefaultOptions returns options with the shared token budget
func DefaultOptions() Options {
	return Options{MaxTokens: defaultMaxTokens}
}

// WithAPIKey sets the provider credential
func (o Options) WithAPIKey(key string) Options {
	o.APIKey = key
	return o
}

// WithModel overrides the provider's default model; empty keeps the default
func (o Options) WithModel(model string) Options {
	o.Model = model
	return o
}

// WithBaseURL points the client at a compatible endpoint
func (o Options) WithBaseURL(url string) Options {
	o.BaseURL = url
	return o
}

func (o Options) modelOr(fallback string) string {
	if o.Model == "" {
		return fallback
	}
	return o.Model
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}
