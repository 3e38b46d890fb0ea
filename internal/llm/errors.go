package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Kind is the canonical classification of a failure. Every error that
// crosses the pipeline boundary carries exactly one Kind.
type Kind string

const (
	// KindBadRequest is a caller input error; never attempted against
	// a backend.
	KindBadRequest Kind = "bad_request"

	// KindTimeout means the backend exceeded its call deadline
	KindTimeout Kind = "timeout"

	// KindRateLimited is transient backend-imposed throttling
	KindRateLimited Kind = "rate_limited"

	// KindAuthOrQuota is a credential or quota failure. It will not
	// self-heal by retrying, so it must not trip a breaker: a
	// misconfigured key is not a flaky network.
	KindAuthOrQuota Kind = "auth_or_quota"

	// KindUnreachable is a connection-level failure
	KindUnreachable Kind = "unreachable"

	// KindCanceled means the caller abandoned the request before the
	// backend answered. Not a backend fault, so it never trips.
	KindCanceled Kind = "canceled"

	// KindCircuitOpen is synthetic, produced by the breaker itself;
	// it never reaches the classifier.
	KindCircuitOpen Kind = "circuit_open"

	// KindUnknown is the conservative default for unrecognized failures
	KindUnknown Kind = "unknown"
)

// Tripworthy reports whether a failure of this kind should count
// toward opening a circuit breaker.
func (k Kind) Tripworthy() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindUnreachable, KindUnknown:
		return true
	default:
		return false
	}
}

// Error is the structured failure surfaced by the pipeline. The Kind
// field decouples presentation-layer status mapping from backend
// wording; callers must never match on Message.
type Error struct {
	Kind    Kind
	Backend string
	Message string

	// RetryAfter is the suggested wait before retrying, set for
	// circuit-open failures.
	RetryAfter time.Duration

	Err error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s: %s", e.Backend, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest builds a caller-input error. Validation failures never
// touch a backend or a breaker.
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Classify turns a raw backend failure into a structured Error with a
// canonical Kind. Already-classified errors pass through unchanged.
func Classify(backend string, err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	kind := classifyKind(err)
	return &Error{
		Kind:    kind,
		Backend: backend,
		Message: err.Error(),
		Err:     err,
	}
}

func classifyKind(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode > 0 {
			return classifyStatus(reqErr.HTTPStatusCode)
		}
		return classifyTransport(reqErr.Err)
	}

	return classifyTransport(err)
}

func classifyStatus(status int) Kind {
	switch {
	case status == 429:
		return KindRateLimited
	case status == 401 || status == 402 || status == 403:
		return KindAuthOrQuota
	case status == 400 || status == 404 || status == 422:
		return KindBadRequest
	case status == 408 || status == 504:
		return KindTimeout
	case status == 502 || status == 503:
		return KindUnreachable
	default:
		return KindUnknown
	}
}

func classifyTransport(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return KindUnreachable
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindUnreachable
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return classifyTransport(urlErr.Err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnreachable
	}

	// Some quota exhaustion surfaces as a plain error string rather
	// than a typed API error.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "insufficient_quota") || strings.Contains(msg, "invalid api key") {
		return KindAuthOrQuota
	}

	return KindUnknown
}
