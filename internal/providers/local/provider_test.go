package local

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasteraSnackin/LFO/internal/llm"
)

func runnerStub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestInvokeDecodesExtensions(t *testing.T) {
	server := runnerStub(t, http.StatusOK, `{
		"id": "run-1",
		"model": "llama3.2",
		"choices": [{"message": {"role": "assistant", "content": "42"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
		"confidence": 0.45,
		"cloud_handoff": true,
		"elapsed_ms": 120
	}`)
	defer server.Close()

	p, err := New(server.URL, "llama3.2", nil)
	require.NoError(t, err)

	result, err := p.Invoke(context.Background(), llm.InvokeParams{
		Messages: []llm.Message{{Role: "user", Content: "what is the answer"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "42", result.Content)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.45, *result.Confidence)
	assert.True(t, result.CloudHandoff)
	assert.Equal(t, int64(120), result.ElapsedMillis)
	assert.Equal(t, 4, result.Usage.TotalTokens)
	assert.Equal(t, "llama3.2", result.Model)
}

func TestInvokeWithoutExtensions(t *testing.T) {
	server := runnerStub(t, http.StatusOK, `{
		"choices": [{"message": {"role": "assistant", "content": "plain"}}],
		"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
	}`)
	defer server.Close()

	p, err := New(server.URL, "llama3.2", nil)
	require.NoError(t, err)

	result, err := p.Invoke(context.Background(), llm.InvokeParams{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Nil(t, result.Confidence, "absent confidence stays nil for the routing default to apply")
	assert.False(t, result.CloudHandoff)
	assert.Equal(t, "llama3.2", result.Model, "falls back to the configured model id")
}

func TestInvokeToolCallDialect(t *testing.T) {
	server := runnerStub(t, http.StatusOK, `{
		"choices": [{"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{"function": {"name": "lookup", "arguments": "{\"q\":\"weather\"}"}}]
		}}],
		"usage": {}
	}`)
	defer server.Close()

	p, err := New(server.URL, "llama3.2", nil)
	require.NoError(t, err)

	result, err := p.Invoke(context.Background(), llm.InvokeParams{
		Messages: []llm.Message{{Role: "user", Content: "weather?"}},
	})
	require.NoError(t, err)

	require.Len(t, result.FunctionCalls, 1)
	assert.Equal(t, "lookup", result.FunctionCalls[0].Name)
}

func TestInvokeErrorBecomesAPIError(t *testing.T) {
	server := runnerStub(t, http.StatusTooManyRequests,
		`{"error": {"message": "model is busy", "type": "rate_limit"}}`)
	defer server.Close()

	p, err := New(server.URL, "llama3.2", nil)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), llm.InvokeParams{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode)
	assert.Equal(t, "model is busy", apiErr.Message)
}

func TestInvokeEmptyChoices(t *testing.T) {
	server := runnerStub(t, http.StatusOK, `{"choices": [], "usage": {}}`)
	defer server.Close()

	p, err := New(server.URL, "llama3.2", nil)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), llm.InvokeParams{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
}

func TestInvokeSendsRequestBody(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}], "usage": {}}`))
	}))
	defer server.Close()

	p, err := New(server.URL, "llama3.2", nil)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), llm.InvokeParams{
		Messages:    []llm.Message{{Role: "user", Content: "hi"}},
		MaxTokens:   256,
		Temperature: 0.3,
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3.2", captured["model"])
	assert.Equal(t, float64(256), captured["max_tokens"])
	assert.Equal(t, false, captured["stream"])
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("", "llama3.2", nil)
	require.Error(t, err)
}
