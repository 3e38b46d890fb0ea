package llm

import (
	"context"
)

// Message represents a single message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool represents a tool/function passed through to backends.
// Parameters may be a nested JSON schema or a flat map; the core only
// requires a name and forwards the rest untouched.
type Tool struct {
	Type     string       `json:"type,omitempty"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable function
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// FunctionCall represents a function invocation returned by a backend
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Mode selects how a request may be routed.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

// Target identifies which backend a request was (or will be) sent to.
type Target string

const (
	TargetLocal Target = "local"
	TargetCloud Target = "cloud"
)

// DefaultConfidence is assumed when a backend reports no confidence at
// all. A neutral midpoint; tunable policy, not a derived value.
const DefaultConfidence = 0.5

// BackendResult is the outcome of one backend invocation. Immutable
// after creation; owned by the pipeline for the rest of the request.
type BackendResult struct {
	Content       string
	FunctionCalls []FunctionCall
	Usage         Usage
	Model         string

	// Confidence is the backend's self-reported confidence in [0,1].
	// Nil when the backend did not report one.
	Confidence *float64

	// CloudHandoff is set when the local backend explicitly asks for
	// the request to be escalated, regardless of confidence.
	CloudHandoff bool

	ElapsedMillis int64
}

// ConfidenceOrDefault returns the reported confidence, or
// DefaultConfidence when the backend reported none.
func (r *BackendResult) ConfidenceOrDefault() float64 {
	if r.Confidence == nil {
		return DefaultConfidence
	}
	return *r.Confidence
}

// InvokeParams carries the generation parameters for a backend call
type InvokeParams struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
	Tools       []Tool
}

// Backend is the uniform invoke contract both inference providers
// implement. Invoke may return any canonical error kind.
type Backend interface {
	// Name returns the backend name used for breaker and stats keys
	Name() string

	// Model returns the model identifier reported in responses
	Model() string

	// Invoke performs one completion against the backend
	Invoke(ctx context.Context, params InvokeParams) (*BackendResult, error)
}
