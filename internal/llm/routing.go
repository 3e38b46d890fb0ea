package llm

import (
	"fmt"
	"strconv"
	"strings"
)

// RoutingDecision is the outcome of one routing evaluation. Ephemeral,
// recomputed per request, never persisted.
type RoutingDecision struct {
	Target Target `json:"target"`

	// Reason is a short machine-readable tag explaining the decision
	Reason string `json:"reason"`

	// SkipLocal is set when the token pre-filter ruled out the local
	// backend before any attempt was made.
	SkipLocal bool `json:"skip_local"`
}

// ResolveMode normalizes a raw mode string. Any value that is not
// exactly "local" or "cloud" resolves to ModeAuto; this function never
// fails.
func ResolveMode(raw string) Mode {
	switch raw {
	case string(ModeLocal):
		return ModeLocal
	case string(ModeCloud):
		return ModeCloud
	default:
		return ModeAuto
	}
}

// EstimateTokens approximates the prompt token count as
// ceil(chars/4) over the space-joined message contents. Intentionally
// a cheap heuristic proxy for cost, not a real tokenizer.
func EstimateTokens(messages []Message) int {
	if len(messages) == 0 {
		return 0
	}
	contents := make([]string, len(messages))
	for i, m := range messages {
		contents[i] = m.Content
	}
	chars := len(strings.Join(contents, " "))
	return (chars + 3) / 4
}

// DetermineInitialRouting picks the first backend to try. Explicit
// modes always win; in auto mode prompts over the token threshold go
// straight to cloud and skip the local attempt entirely.
func DetermineInitialRouting(messages []Message, mode Mode, maxLocalTokens int) RoutingDecision {
	switch mode {
	case ModeLocal:
		return RoutingDecision{Target: TargetLocal, Reason: "mode_override"}
	case ModeCloud:
		return RoutingDecision{Target: TargetCloud, Reason: "mode_override"}
	}

	tokens := EstimateTokens(messages)
	if tokens > maxLocalTokens {
		return RoutingDecision{
			Target:    TargetCloud,
			Reason:    fmt.Sprintf("tokens_%d_exceeds_%d", tokens, maxLocalTokens),
			SkipLocal: true,
		}
	}

	return RoutingDecision{Target: TargetLocal, Reason: "initial_attempt"}
}

// EvaluateConfidenceRouting decides whether a local result stands or
// the request escalates to cloud. The cloud handoff flag is checked
// strictly before the confidence comparison and overrides it
// unconditionally; the two escalation paths produce distinct reasons.
func EvaluateConfidenceRouting(prior *BackendResult, confidenceThreshold float64) RoutingDecision {
	if prior == nil {
		return RoutingDecision{Target: TargetLocal, Reason: "initial_attempt"}
	}

	if prior.CloudHandoff {
		return RoutingDecision{Target: TargetCloud, Reason: "cloud_handoff_flag"}
	}

	confidence := prior.ConfidenceOrDefault()
	if confidence < confidenceThreshold {
		return RoutingDecision{
			Target: TargetCloud,
			Reason: fmt.Sprintf("low_confidence_%s_below_%s",
				formatConfidence(confidence), formatConfidence(confidenceThreshold)),
		}
	}

	return RoutingDecision{
		Target: TargetLocal,
		Reason: "high_confidence_" + formatConfidence(confidence),
	}
}

// formatConfidence renders a confidence value with minimal digits, so
// reasons read "low_confidence_0.45" rather than "low_confidence_0.450000".
func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'g', -1, 64)
}
