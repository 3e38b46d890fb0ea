package llm

import (
	"time"

	"github.com/google/uuid"
)

// Response represents a completed chat completion in OpenAI shape,
// extended with routing metadata under lfo_metadata.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`

	LFOMetadata LFOMetadata `json:"lfo_metadata"`
}

// Choice represents a single response choice
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage is the assistant message returned to the caller
type ResponseMessage struct {
	Role          string         `json:"role"`
	Content       string         `json:"content"`
	FunctionCalls []FunctionCall `json:"function_calls,omitempty"`
}

// LFOMetadata explains why a backend was chosen. Always present on a
// successful response so callers can audit routing, even when the
// decision was implicit.
type LFOMetadata struct {
	Confidence    *float64 `json:"confidence,omitempty"`
	RoutingReason string   `json:"routing_reason"`
	LocalAttempt  bool     `json:"local_attempt"`
}

// newResponse composes the final answer from a backend result plus
// the routing decision that selected it.
func newResponse(result *BackendResult, model string, meta LFOMetadata) *Response {
	return &Response{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{
			{
				Index: 0,
				Message: ResponseMessage{
					Role:          "assistant",
					Content:       result.Content,
					FunctionCalls: result.FunctionCalls,
				},
				FinishReason: "stop",
			},
		},
		Usage:       result.Usage,
		LFOMetadata: meta,
	}
}

// GetContent returns the content from the first choice
func (r *Response) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}
