package svgmaker

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind is the closed classification of every error the SDK produces.
// Callers can match on it exhaustively instead of relying on type identity.
type ErrorKind int

const (
	// KindAPI is the generic service error used when no more specific
	// classification applies.
	KindAPI ErrorKind = iota

	// KindValidation indicates a caller-side parameter problem. Never retried.
	KindValidation

	// KindAuth indicates a missing or invalid API key. Never retried.
	KindAuth

	// KindInsufficientCredits indicates the account balance cannot cover the
	// operation. RequiredCredits carries the shortfall when known.
	KindInsufficientCredits

	// KindRateLimit indicates the service rejected the request for quota
	// reasons. RetryAfter carries the suggested wait.
	KindRateLimit

	// KindContentPolicy indicates the prompt or image was rejected by the
	// service's content policy.
	KindContentPolicy

	// KindEndpointDisabled indicates the endpoint is turned off for this
	// account or deployment.
	KindEndpointDisabled

	// KindFileSize indicates an uploaded file exceeds the service limit.
	KindFileSize

	// KindFileFormat indicates the uploaded file format cannot be processed,
	// for example an image that is already vector format.
	KindFileFormat

	// KindTimeout indicates the configured request timeout elapsed before
	// the call completed. Retried up to budget.
	KindTimeout

	// KindNetwork indicates the call failed below the HTTP layer (DNS,
	// connection reset, ...). Retried up to budget.
	KindNetwork
)

var errorKindNames = map[ErrorKind]string{
	KindAPI:                 "API",
	KindValidation:          "Validation",
	KindAuth:                "Auth",
	KindInsufficientCredits: "InsufficientCredits",
	KindRateLimit:           "RateLimit",
	KindContentPolicy:       "ContentPolicy",
	KindEndpointDisabled:    "EndpointDisabled",
	KindFileSize:            "FileSize",
	KindFileFormat:          "FileFormat",
	KindTimeout:             "Timeout",
	KindNetwork:             "Network",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// APIError is the single error type returned by the SDK. Kind selects one of
// the closed set of classifications; the remaining fields carry whatever the
// service or transport provided for diagnostics.
type APIError struct {
	Kind    ErrorKind
	Message string

	// Code is the service-defined error code, when the response carried one.
	Code string

	// Status is the HTTP status of the failing response, 0 for transport
	// failures that never produced a response.
	Status int

	// Details is the service's error detail payload, verbatim.
	Details map[string]any

	// RequestID correlates the failure with service-side logs.
	RequestID string

	// RetryAfter is the suggested wait before retrying. Set for KindRateLimit.
	RetryAfter time.Duration

	// RequiredCredits is the credit count the operation needed. Set for
	// KindInsufficientCredits when the service reported it.
	RequiredCredits float64

	// Timeout is the configured duration that elapsed. Set for KindTimeout.
	Timeout time.Duration

	// Cause is the underlying transport error, if any.
	Cause error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("svgmaker: %s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches two APIErrors by Kind, so errors.Is(err, &APIError{Kind: KindAuth})
// works without comparing the diagnostic fields.
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Retryable reports whether the error represents a transient failure that is
// safe to retry unmodified regardless of configuration. Only timeouts and
// network failures qualify; status-based retries depend on the configured
// retryable status codes, which the retry wrapper checks separately.
func (e *APIError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindTimeout, KindNetwork:
		return true
	default:
		return false
	}
}

// DebugInfo renders a multi-line string with everything known about the error.
func (e *APIError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Kind: %s\n", e.Kind)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.Code != "" {
		info += fmt.Sprintf("Code: %s\n", e.Code)
	}
	if e.Status > 0 {
		info += fmt.Sprintf("Status: %d\n", e.Status)
	}
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.RetryAfter > 0 {
		info += fmt.Sprintf("Retry After: %v\n", e.RetryAfter)
	}
	if e.RequiredCredits > 0 {
		info += fmt.Sprintf("Required Credits: %g\n", e.RequiredCredits)
	}
	if e.Timeout > 0 {
		info += fmt.Sprintf("Timeout: %v\n", e.Timeout)
	}
	if len(e.Details) > 0 {
		info += fmt.Sprintf("Details: %v\n", e.Details)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}

// defaultRetryAfter is used when a rate-limited response carries no usable
// reset header: one full limiter window.
const defaultRetryAfter = time.Minute

// rateLimitResetHeader is the service header carrying the seconds until the
// rate-limit window resets.
const rateLimitResetHeader = "X-RateLimit-Reset"

// errorCodeKinds maps service-defined error codes to kinds. Code-based
// mapping always wins over status-based mapping.
var errorCodeKinds = map[string]ErrorKind{
	"VALIDATION_ERROR":     KindValidation,
	"INVALID_API_KEY":      KindAuth,
	"INSUFFICIENT_CREDITS": KindInsufficientCredits,
	"RATE_LIMIT_EXCEEDED":  KindRateLimit,
	"CONTENT_POLICY":       KindContentPolicy,
	"ENDPOINT_DISABLED":    KindEndpointDisabled,
	"FILE_TOO_LARGE":       KindFileSize,
}

// statusKinds is the fallback mapping applied when the service supplied no
// recognized error code.
var statusKinds = map[int]ErrorKind{
	http.StatusUnauthorized:          KindAuth,
	http.StatusPaymentRequired:       KindInsufficientCredits,
	http.StatusRequestEntityTooLarge: KindFileSize,
	http.StatusTooManyRequests:       KindRateLimit,
}

// mapAPIError converts a service error payload into an APIError. Resolution
// order is fixed: service code, then HTTP status, then message heuristics,
// then generic. header may be nil when no response headers are available.
func mapAPIError(info *errorInfo, requestID string, header http.Header) *APIError {
	if info == nil {
		info = &errorInfo{}
	}

	message := info.Message
	if message == "" {
		message = "request failed"
		if info.Status > 0 {
			message = fmt.Sprintf("request failed with status %d", info.Status)
		}
	}

	apiErr := &APIError{
		Kind:      KindAPI,
		Message:   message,
		Code:      info.Code,
		Status:    info.Status,
		Details:   info.Details,
		RequestID: requestID,
	}

	kind, matched := errorCodeKinds[info.Code]
	if !matched {
		kind, matched = statusKinds[info.Status]
	}
	if !matched && mentionsVectorFormat(message) {
		kind, matched = KindFileFormat, true
	}
	if matched {
		apiErr.Kind = kind
	}

	switch apiErr.Kind {
	case KindRateLimit:
		apiErr.RetryAfter = parseRetryAfter(header)
	case KindInsufficientCredits:
		apiErr.RequiredCredits = requiredCredits(info.Details)
	}

	return apiErr
}

// mentionsVectorFormat detects the service's prose for files that are
// already vector images and therefore cannot be converted.
func mentionsVectorFormat(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "vector format") || strings.Contains(lower, "already an svg")
}

// parseRetryAfter reads the rate-limit reset header as delay seconds,
// falling back to one full window when absent or unparseable.
func parseRetryAfter(header http.Header) time.Duration {
	if header == nil {
		return defaultRetryAfter
	}
	value := strings.TrimSpace(header.Get(rateLimitResetHeader))
	if value == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds <= 0 {
		return defaultRetryAfter
	}
	delay := time.Duration(seconds * float64(time.Second))
	if delay > time.Hour {
		delay = time.Hour
	}
	return delay
}

// requiredCredits extracts the credit shortfall from an error detail payload.
func requiredCredits(details map[string]any) float64 {
	if details == nil {
		return 0
	}
	for _, key := range []string{"requiredCredits", "required"} {
		switch v := details[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
