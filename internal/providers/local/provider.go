package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/MasteraSnackin/LFO/internal/llm"
)

// Provider talks to the local inference runner over its
// OpenAI-compatible HTTP API. The runner extends the response with
// confidence and cloud_handoff fields, which is why this adapter
// decodes the wire format itself instead of going through the typed
// SDK client.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *logrus.Logger
}

// New creates a local provider for the runner at baseURL
func New(baseURL, model string, logger *logrus.Logger) (*Provider, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required for the local provider")
	}
	return &Provider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
		logger:  logger,
	}, nil
}

// Name returns the backend name
func (p *Provider) Name() string {
	return "local"
}

// Model returns the configured model identifier
func (p *Provider) Model() string {
	return p.model
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
	Tools       []llm.Tool    `json:"tools,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role          string             `json:"role"`
			Content       string             `json:"content"`
			FunctionCalls []llm.FunctionCall `json:"function_calls"`
			ToolCalls     []struct {
				Function llm.FunctionCall `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`

	// Runner extensions beyond the OpenAI schema
	Confidence   *float64 `json:"confidence"`
	CloudHandoff bool     `json:"cloud_handoff"`
	ElapsedMs    int64    `json:"elapsed_ms"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Invoke performs one completion against the local runner
func (p *Provider) Invoke(ctx context.Context, params llm.InvokeParams) (*llm.BackendResult, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    params.Messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		Tools:       params.Tools,
	})
	if err != nil {
		return nil, err
	}

	url := p.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.apiError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("local runner returned malformed response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("local runner returned no choices")
	}

	choice := parsed.Choices[0]
	calls := choice.Message.FunctionCalls
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, tc.Function)
	}

	elapsed := parsed.ElapsedMs
	if elapsed == 0 {
		elapsed = time.Since(start).Milliseconds()
	}

	model := parsed.Model
	if model == "" {
		model = p.model
	}

	return &llm.BackendResult{
		Content:       choice.Message.Content,
		FunctionCalls: calls,
		Usage: llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
		Model:         model,
		Confidence:    parsed.Confidence,
		CloudHandoff:  parsed.CloudHandoff,
		ElapsedMillis: elapsed,
	}, nil
}

// apiError converts a non-200 runner reply into the SDK's error type
// so the classifier sees one shape for both backends.
func (p *Provider) apiError(status int, raw []byte) error {
	var parsed errorResponse
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}
	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{
			"status": status,
		}).Warn("local runner error: " + message)
	}
	return &openai.APIError{
		HTTPStatusCode: status,
		Message:        message,
		Type:           parsed.Error.Type,
	}
}
