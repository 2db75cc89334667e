package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var testRequest = Request{
	Instruction: PlantAnalysisInstruction,
	ImageData:   []byte("fake-png-bytes"),
	MIMEType:    "image/png",
}

func TestOpenAIModel_Analyze(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"A healthy Monstera."},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	model := NewOpenAIModel(DefaultOptions().WithAPIKey("sk-test").WithBaseURL(server.URL + "/v1"))
	text, err := model.Analyze(context.Background(), testRequest)
	require.NoError(t, err)

	assert.Equal(t, "A healthy Monstera.", text)
	assert.Equal(t, "openai/"+DefaultOpenAIModel, model.Name())
	assert.Contains(t, mustJSON(t, body), "data:image/png;base64,ZmFrZS1wbmctYnl0ZXM=")
}

func TestOpenAIModel_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[]}`)
	}))
	defer server.Close()

	model := NewOpenAIModel(DefaultOptions().WithAPIKey("k").WithBaseURL(server.URL + "/v1"))
	_, err := model.Analyze(context.Background(), testRequest)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropicModel_Analyze(t *testing.T) {
	var requests int
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/v1/messages", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"Leaf spot detected."}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`)
	}))
	defer server.Close()

	model := NewAnthropicModel(DefaultOptions().WithAPIKey("k").WithBaseURL(server.URL))
	text, err := model.Analyze(context.Background(), testRequest)
	require.NoError(t, err)

	assert.Equal(t, "Leaf spot detected.", text)
	assert.Equal(t, 1, requests)
	assert.Contains(t, body, `"media_type":"image/png"`)
	assert.Contains(t, body, "ZmFrZS1wbmctYnl0ZXM=")
}

func TestAnthropicModel_NoRetryOnServerError(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"boom"}}`)
	}))
	defer server.Close()

	model := NewAnthropicModel(DefaultOptions().WithAPIKey("k").WithBaseURL(server.URL))
	_, err := model.Analyze(context.Background(), testRequest)
	require.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Species: Ficus. "}, {Text: "Healthy."}}},
		}},
	}
	text, err := geminiText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Species: Ficus. Healthy.", text)

	_, err = geminiText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = geminiText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "  "}}}}},
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOptions(t *testing.T) {
	opts := DefaultOptions().WithModel("gpt-5-mini")
	assert.Equal(t, "gpt-5-mini", opts.modelOr(DefaultOpenAIModel))
	assert.Equal(t, DefaultGeminiModel, DefaultOptions().modelOr(DefaultGeminiModel))
	assert.Equal(t, defaultMaxTokens, Options{}.maxTokens())
	assert.True(t, isReasoningModel("gpt-5-mini"))
	assert.False(t, isReasoningModel("gpt-4o-mini"))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
