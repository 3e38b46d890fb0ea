package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// GatewayConfig holds the routing policy for the pipeline
type GatewayConfig struct {
	// DefaultMode applies when the request carries no mode hint
	DefaultMode Mode

	// MaxLocalTokens is the token pre-filter threshold above which
	// auto-mode requests skip the local backend.
	MaxLocalTokens int

	// ConfidenceThreshold is the operator-configured escalation
	// threshold, used when request metadata carries none.
	ConfidenceThreshold float64

	// LocalTimeout and CloudTimeout bound each backend call
	LocalTimeout time.Duration
	CloudTimeout time.Duration
}

// Gateway orchestrates one request end-to-end: validation, routing,
// breaker-gated backend calls, confidence escalation, classification
// and stats. The two breakers and the stats recorder are the only
// cross-request shared state.
type Gateway struct {
	local    Backend
	cloud    Backend
	breakers *BreakerSet
	stats    *StatsRecorder
	config   GatewayConfig
	logger   *logrus.Logger
}

// NewGateway wires the pipeline from its injected collaborators
func NewGateway(local, cloud Backend, breakers *BreakerSet, stats *StatsRecorder, config GatewayConfig, logger *logrus.Logger) *Gateway {
	if config.MaxLocalTokens <= 0 {
		config.MaxLocalTokens = 1500
	}
	if config.ConfidenceThreshold <= 0 {
		config.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if config.LocalTimeout <= 0 {
		config.LocalTimeout = 30 * time.Second
	}
	if config.CloudTimeout <= 0 {
		config.CloudTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Gateway{
		local:    local,
		cloud:    cloud,
		breakers: breakers,
		stats:    stats,
		config:   config,
		logger:   logger,
	}
}

// Complete serves one chat-completion request. At most two backend
// calls happen per request: an optional local attempt, then at most
// one escalation hop to cloud. No backend is ever retried.
func (g *Gateway) Complete(ctx context.Context, req *CompletionRequest) (*Response, error) {
	start := time.Now()

	rawMode := req.Metadata.Mode
	if rawMode == "" {
		rawMode = string(g.config.DefaultMode)
	}
	mode := ResolveMode(rawMode)
	promptTokens := EstimateTokens(req.Messages)

	if err := req.Validate(); err != nil {
		g.record(start, mode, "", promptTokens, nil, err.(*Error))
		return nil, err
	}

	decision := DetermineInitialRouting(req.Messages, mode, g.config.MaxLocalTokens)
	g.logger.WithFields(logrus.Fields{
		"target":        decision.Target,
		"reason":        decision.Reason,
		"prompt_tokens": promptTokens,
	}).Debug("initial routing")

	if decision.Target == TargetCloud {
		result, err := g.invoke(ctx, g.cloud, g.config.CloudTimeout, req)
		if err != nil {
			g.record(start, mode, TargetCloud, promptTokens, nil, err)
			return nil, err
		}
		g.record(start, mode, TargetCloud, promptTokens, result, nil)
		return newResponse(result, g.cloud.Model(), LFOMetadata{
			Confidence:    result.Confidence,
			RoutingReason: decision.Reason,
			LocalAttempt:  false,
		}), nil
	}

	localResult, err := g.invoke(ctx, g.local, g.config.LocalTimeout, req)
	if err != nil {
		g.record(start, mode, TargetLocal, promptTokens, nil, err)
		return nil, err
	}

	// Confidence escalation only applies in auto mode; an explicit
	// local override pins the request to the local result.
	finalReason := decision.Reason
	if mode == ModeAuto {
		// Request metadata wins over the operator-configured threshold
		threshold := g.config.ConfidenceThreshold
		if req.Metadata.ConfidenceThreshold != nil {
			threshold = *req.Metadata.ConfidenceThreshold
		}
		escalation := EvaluateConfidenceRouting(localResult, threshold)
		if escalation.Target == TargetCloud {
			g.logger.WithFields(logrus.Fields{
				"reason":     escalation.Reason,
				"confidence": localResult.ConfidenceOrDefault(),
			}).Info("escalating to cloud")

			cloudResult, err := g.invoke(ctx, g.cloud, g.config.CloudTimeout, req)
			if err != nil {
				g.record(start, mode, TargetCloud, promptTokens, nil, err)
				return nil, err
			}
			g.record(start, mode, TargetCloud, promptTokens, cloudResult, nil)
			// The escalation reason survives the cloud call; the
			// final response explains why the hop happened.
			return newResponse(cloudResult, g.cloud.Model(), LFOMetadata{
				Confidence:    localResult.Confidence,
				RoutingReason: escalation.Reason,
				LocalAttempt:  true,
			}), nil
		}
		finalReason = escalation.Reason
	}

	g.record(start, mode, TargetLocal, promptTokens, localResult, nil)
	return newResponse(localResult, g.local.Model(), LFOMetadata{
		Confidence:    localResult.Confidence,
		RoutingReason: finalReason,
		LocalAttempt:  true,
	}), nil
}

// invoke runs one breaker-gated backend call under a deadline. Any
// failure is classified exactly once and fed back to the breaker that
// gated the call.
func (g *Gateway) invoke(ctx context.Context, backend Backend, timeout time.Duration, req *CompletionRequest) (*BackendResult, *Error) {
	var breaker *Breaker
	if g.breakers != nil {
		breaker = g.breakers.Get(backend.Name())
	}
	if breaker != nil {
		if err := breaker.Allow(); err != nil {
			return nil, Classify(backend.Name(), err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	callStart := time.Now()
	result, err := backend.Invoke(callCtx, InvokeParams{
		Messages:    req.Messages,
		MaxTokens:   req.EffectiveMaxTokens(),
		Temperature: req.EffectiveTemperature(),
		Tools:       req.Tools,
	})
	if err != nil {
		classified := Classify(backend.Name(), err)
		if classified.Kind == KindTimeout {
			classified.Message = fmt.Sprintf("%s timeout after %dms", backend.Name(), timeout.Milliseconds())
		}
		if breaker != nil {
			breaker.RecordFailure(classified.Kind.Tripworthy())
		}
		g.logger.WithFields(logrus.Fields{
			"backend": backend.Name(),
			"kind":    classified.Kind,
		}).Warn(classified.Message)
		return nil, classified
	}

	if breaker != nil {
		breaker.RecordSuccess()
	}
	if result.ElapsedMillis == 0 {
		result.ElapsedMillis = time.Since(callStart).Milliseconds()
	}
	return result, nil
}

func (g *Gateway) record(start time.Time, mode Mode, target Target, promptTokens int, result *BackendResult, failure *Error) {
	if g.stats == nil {
		return
	}

	rec := RequestRecord{
		Timestamp:    start,
		Mode:         mode,
		Target:       target,
		PromptTokens: promptTokens,
		LatencyMs:    time.Since(start).Milliseconds(),
		Status:       StatusSuccess,
	}
	if result != nil {
		rec.CompletionTokens = result.Usage.CompletionTokens
	}
	if failure != nil {
		rec.Status = string(failure.Kind)
		rec.Error = failure.Message
	}
	g.stats.Record(rec)
}
