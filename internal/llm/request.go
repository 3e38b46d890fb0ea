package llm

// Default generation parameters applied when the caller omits them.
const (
	DefaultMaxTokens           = 512
	DefaultTemperature         = float32(0.7)
	DefaultConfidenceThreshold = 0.7
)

// CompletionRequest represents an inbound chat-completion request
type CompletionRequest struct {
	Messages    []Message       `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	Tools       []Tool          `json:"tools,omitempty"`
	Metadata    RequestMetadata `json:"metadata,omitempty"`
}

// RequestMetadata carries routing hints from the caller
type RequestMetadata struct {
	Mode                string   `json:"mode,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
}

// Validate checks the request shape. Violations are terminal: no
// backend is touched.
func (r *CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return BadRequest("messages must be a non-empty array")
	}
	for _, m := range r.Messages {
		if m.Role == "" {
			return BadRequest("message role is required")
		}
		if m.Content == "" {
			return BadRequest("message content is required")
		}
		switch m.Role {
		case "system", "user", "assistant", "tool":
		default:
			return BadRequest("invalid role: " + m.Role)
		}
	}
	if r.MaxTokens != nil && *r.MaxTokens <= 0 {
		return BadRequest("max_tokens must be positive")
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return BadRequest("temperature must be between 0 and 2")
	}
	if t := r.Metadata.ConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
		return BadRequest("confidence_threshold must be between 0 and 1")
	}
	return nil
}

// EffectiveMaxTokens returns max_tokens or its default
func (r *CompletionRequest) EffectiveMaxTokens() int {
	if r.MaxTokens != nil {
		return *r.MaxTokens
	}
	return DefaultMaxTokens
}

// EffectiveTemperature returns temperature or its default
func (r *CompletionRequest) EffectiveTemperature() float32 {
	if r.Temperature != nil {
		return *r.Temperature
	}
	return DefaultTemperature
}
