package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel sends the image as a base64 image block
type AnthropicModel struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicModel(opts Options) *AnthropicModel {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	return &AnthropicModel{
		client:    &client,
		model:     opts.modelOr(DefaultAnthropicModel),
		maxTokens: int64(opts.maxTokens()),
	}
}

func (m *AnthropicModel) Name() string {
	return "anthropic/" + m.model
}

func (m *AnthropicModel) Analyze(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(req.MIMEType, base64.StdEncoding.EncodeToString(req.ImageData)),
				anthropic.NewTextBlock(req.Instruction),
			),
		},
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
