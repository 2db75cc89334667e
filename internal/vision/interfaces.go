package vision

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without usable text
var ErrEmptyResponse = errors.New("model returned no text")

// Request is a single instruction-plus-image call
type Request struct {
	Instruction string
	ImageData   []byte
	MIMEType    string
}

// Model is a vision-language model behind one request/response call.
// Implementations do not retry.
type Model interface {
	Analyze(ctx context.Context, req Request) (string, error)

	// Name identifies the provider and model, e.g. "gemini/gemini-2.5-flash"
	Name() string
}
