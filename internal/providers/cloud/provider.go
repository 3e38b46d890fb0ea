package cloud

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/MasteraSnackin/LFO/internal/llm"
)

// Provider is the cloud backend, reached through the OpenAI SDK.
// Cloud responses carry no confidence or handoff signal; escalation
// terminates here.
type Provider struct {
	model  string
	client *openai.Client
}

// New creates a cloud provider. A custom baseURL may point at any
// OpenAI-compatible hosted endpoint.
func New(apiKey, model, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("cloud API key is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &Provider{
		model:  model,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Name returns the backend name
func (p *Provider) Name() string {
	return "cloud"
}

// Model returns the configured model identifier
func (p *Provider) Model() string {
	return p.model
}

// Invoke performs one completion against the cloud backend
func (p *Provider) Invoke(ctx context.Context, params llm.InvokeParams) (*llm.BackendResult, error) {
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, p.convertRequest(params))
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("cloud backend returned no choices")
	}

	choice := resp.Choices[0]

	var calls []llm.FunctionCall
	if choice.Message.FunctionCall != nil {
		calls = append(calls, llm.FunctionCall{
			Name:      choice.Message.FunctionCall.Name,
			Arguments: choice.Message.FunctionCall.Arguments,
		})
	}
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, llm.FunctionCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return &llm.BackendResult{
		Content:       choice.Message.Content,
		FunctionCalls: calls,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model:         model,
		ElapsedMillis: time.Since(start).Milliseconds(),
	}, nil
}

func (p *Provider) convertRequest(params llm.InvokeParams) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(params.Messages))
	for i, msg := range params.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	for _, tool := range params.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}

	return req
}
