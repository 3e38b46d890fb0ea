package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Mode
	}{
		{"exact local", "local", ModeLocal},
		{"exact cloud", "cloud", ModeCloud},
		{"exact auto", "auto", ModeAuto},
		{"empty", "", ModeAuto},
		{"garbage", "hybrid", ModeAuto},
		{"case mismatch", "Local", ModeAuto},
		{"whitespace", " local", ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveMode(tt.raw))
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(nil))
	assert.Equal(t, 0, EstimateTokens([]Message{}))

	// "hi" is 2 chars, ceil(2/4) = 1
	assert.Equal(t, 1, EstimateTokens([]Message{{Role: "user", Content: "hi"}}))

	// Two messages join with a separator: 4 + 1 + 4 = 9 chars, ceil = 3
	msgs := []Message{
		{Role: "user", Content: "abcd"},
		{Role: "assistant", Content: "efgh"},
	}
	assert.Equal(t, 3, EstimateTokens(msgs))

	// 6001 identical chars estimate to 1501
	big := []Message{{Role: "user", Content: strings.Repeat("a", 6001)}}
	assert.Equal(t, 1501, EstimateTokens(big))
}

func TestEstimateTokensMonotonic(t *testing.T) {
	prev := 0
	for _, n := range []int{0, 1, 4, 5, 100, 1000, 6001} {
		est := EstimateTokens([]Message{{Role: "user", Content: strings.Repeat("x", n)}})
		assert.GreaterOrEqual(t, est, prev, "estimate must not decrease with content length")
		prev = est
	}
}

func TestDetermineInitialRouting(t *testing.T) {
	short := []Message{{Role: "user", Content: "hi"}}
	long := []Message{{Role: "user", Content: strings.Repeat("a", 6001)}}

	t.Run("local mode override", func(t *testing.T) {
		d := DetermineInitialRouting(long, ModeLocal, 1500)
		assert.Equal(t, TargetLocal, d.Target)
		assert.Equal(t, "mode_override", d.Reason)
		assert.False(t, d.SkipLocal)
	})

	t.Run("cloud mode override", func(t *testing.T) {
		d := DetermineInitialRouting(short, ModeCloud, 1500)
		assert.Equal(t, TargetCloud, d.Target)
		assert.Equal(t, "mode_override", d.Reason)
	})

	t.Run("auto under threshold attempts local", func(t *testing.T) {
		d := DetermineInitialRouting(short, ModeAuto, 1500)
		assert.Equal(t, TargetLocal, d.Target)
		assert.Equal(t, "initial_attempt", d.Reason)
		assert.False(t, d.SkipLocal)
	})

	t.Run("auto over threshold skips local", func(t *testing.T) {
		d := DetermineInitialRouting(long, ModeAuto, 1500)
		assert.Equal(t, TargetCloud, d.Target)
		assert.True(t, d.SkipLocal)
		assert.Equal(t, "tokens_1501_exceeds_1500", d.Reason)
	})

	t.Run("exactly at threshold still local", func(t *testing.T) {
		exact := []Message{{Role: "user", Content: strings.Repeat("a", 6000)}}
		d := DetermineInitialRouting(exact, ModeAuto, 1500)
		assert.Equal(t, TargetLocal, d.Target)
		assert.False(t, d.SkipLocal)
	})
}

func TestEvaluateConfidenceRouting(t *testing.T) {
	t.Run("no prior result attempts local", func(t *testing.T) {
		d := EvaluateConfidenceRouting(nil, 0.7)
		assert.Equal(t, TargetLocal, d.Target)
		assert.Equal(t, "initial_attempt", d.Reason)
	})

	t.Run("handoff flag dominates confidence", func(t *testing.T) {
		d := EvaluateConfidenceRouting(&BackendResult{
			CloudHandoff: true,
			Confidence:   floatPtr(0.99),
		}, 0.7)
		assert.Equal(t, TargetCloud, d.Target)
		assert.Contains(t, d.Reason, "cloud_handoff_flag")
	})

	t.Run("low confidence escalates", func(t *testing.T) {
		d := EvaluateConfidenceRouting(&BackendResult{Confidence: floatPtr(0.45)}, 0.7)
		assert.Equal(t, TargetCloud, d.Target)
		assert.Contains(t, d.Reason, "low_confidence_0.45")
		assert.NotContains(t, d.Reason, "cloud_handoff_flag")
	})

	t.Run("high confidence stays local", func(t *testing.T) {
		d := EvaluateConfidenceRouting(&BackendResult{Confidence: floatPtr(0.95)}, 0.7)
		assert.Equal(t, TargetLocal, d.Target)
		assert.Contains(t, d.Reason, "high_confidence_0.95")
	})

	t.Run("absent confidence defaults below threshold", func(t *testing.T) {
		d := EvaluateConfidenceRouting(&BackendResult{}, 0.7)
		assert.Equal(t, TargetCloud, d.Target)
		assert.Contains(t, d.Reason, "low_confidence_0.5")
	})

	t.Run("absent confidence defaults above low threshold", func(t *testing.T) {
		d := EvaluateConfidenceRouting(&BackendResult{}, 0.4)
		assert.Equal(t, TargetLocal, d.Target)
		assert.Contains(t, d.Reason, "high_confidence_0.5")
	})

	t.Run("confidence equal to threshold stays local", func(t *testing.T) {
		d := EvaluateConfidenceRouting(&BackendResult{Confidence: floatPtr(0.7)}, 0.7)
		assert.Equal(t, TargetLocal, d.Target)
	})
}
