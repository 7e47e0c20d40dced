package svgmaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/GenWaveLLC/svgmaker-go/internal/backoff"
	"github.com/GenWaveLLC/svgmaker-go/internal/json"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://svgmaker.io/api"

const (
	defaultTimeout       = 120 * time.Second
	defaultMaxRetries    = 3
	defaultBackoffFactor = 2.0
	defaultJitter        = 0.2
	defaultRateLimit     = 30
)

// defaultRetryStatusCodes are the HTTP statuses retried out of the box.
var defaultRetryStatusCodes = []int{429, 500, 502, 503, 504}

// Client is an SVGMaker API client. Every operation flows through the same
// pipeline: rate-limiter admission, then a bounded-retry wrapper around a
// single-call transport. It is safe for concurrent use; concurrent
// operations share only the rate limiter.
type Client struct {
	apiKey           string
	baseURL          string
	httpClient       *http.Client
	timeout          time.Duration
	maxRetries       int
	initialBackoff   time.Duration
	maxBackoff       time.Duration
	backoffFactor    float64
	jitter           float64
	backoffStrategy  backoff.Strategy
	retryStatusCodes map[int]struct{}
	rateLimiter      *RateLimiter
	metrics          *MetricsCollector
	debug            *DebugConfig
	logger           Logger
	validationError  error
}

// NewClient constructs a Client using the provided functional options.
// Configuration is validated best-effort; call IsValid / ValidationError to
// inspect problems. Operations on an invalid client fail with a Validation
// error before any network work.
func NewClient(apiKey string, options ...Option) *Client {
	c := &Client{
		apiKey:           apiKey,
		baseURL:          DefaultBaseURL,
		httpClient:       &http.Client{},
		timeout:          defaultTimeout,
		maxRetries:       defaultMaxRetries,
		initialBackoff:   defaultBackoffFloor,
		maxBackoff:       defaultBackoffCeiling,
		backoffFactor:    defaultBackoffFactor,
		jitter:           defaultJitter,
		backoffStrategy:  backoff.ExponentialJitter{},
		retryStatusCodes: statusSet(defaultRetryStatusCodes),
		rateLimiter:      NewRateLimiter(defaultRateLimit),
		debug:            DefaultDebugConfig(),
	}

	for _, option := range options {
		option(c)
	}

	if err := c.validateConfiguration(); err != nil {
		c.validationError = err
	}

	return c
}

// NewClientFromEnv constructs a Client from SVGMAKER_API_KEY and, when set,
// SVGMAKER_BASE_URL. Explicit options take precedence over the environment.
func NewClientFromEnv(options ...Option) (*Client, error) {
	apiKey := os.Getenv("SVGMAKER_API_KEY")
	if apiKey == "" {
		return nil, &APIError{Kind: KindAuth, Message: "SVGMAKER_API_KEY is not set"}
	}
	if baseURL := os.Getenv("SVGMAKER_BASE_URL"); baseURL != "" {
		options = append([]Option{WithBaseURL(baseURL)}, options...)
	}
	client := NewClient(apiKey, options...)
	if err := client.ValidationError(); err != nil {
		return nil, err
	}
	return client, nil
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func (c *Client) validateConfiguration() error {
	var problems []string

	if c.apiKey == "" {
		problems = append(problems, "api key must not be empty")
	}
	if _, err := url.Parse(c.baseURL); err != nil || c.baseURL == "" {
		problems = append(problems, fmt.Sprintf("invalid base URL %q", c.baseURL))
	}
	if c.timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if c.maxRetries < 0 {
		problems = append(problems, "max retries must not be negative")
	}
	if c.initialBackoff <= 0 {
		problems = append(problems, "initial backoff must be positive")
	}
	if c.maxBackoff < c.initialBackoff {
		problems = append(problems, "max backoff must be at least the initial backoff")
	}
	if c.backoffFactor < 1 {
		problems = append(problems, "backoff factor must be at least 1")
	}
	if c.jitter < 0 || c.jitter > 1 {
		problems = append(problems, "jitter must be within [0, 1]")
	}
	if c.httpClient == nil {
		problems = append(problems, "http client must not be nil")
	}

	if len(problems) > 0 {
		return &APIError{
			Kind:    KindValidation,
			Message: "invalid client configuration: " + strings.Join(problems, "; "),
		}
	}
	return nil
}

// errNilParams is returned when an operation is called without parameters.
func errNilParams() *APIError {
	return &APIError{Kind: KindValidation, Message: "params are required"}
}

// Generate creates an SVG from a text prompt.
func (c *Client) Generate(ctx context.Context, params *GenerateParams) (*GenerateResult, error) {
	if params == nil {
		return nil, errNilParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var out GenerateResult
	meta, err := c.do(ctx, params.request(), &out)
	if err != nil {
		return nil, err
	}
	out.Metadata = meta
	return &out, nil
}

// GenerateStream creates an SVG from a text prompt, streaming progress
// events as the service works. The returned stream must be closed.
func (c *Client) GenerateStream(ctx context.Context, params *GenerateParams) (*Stream, error) {
	if params == nil {
		return nil, errNilParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.stream(ctx, params.request())
}

// Edit applies a prompt-guided edit to an uploaded image.
func (c *Client) Edit(ctx context.Context, params *EditParams) (*EditResult, error) {
	if params == nil {
		return nil, errNilParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var out EditResult
	meta, err := c.do(ctx, params.request(), &out)
	if err != nil {
		return nil, err
	}
	out.Metadata = meta
	return &out, nil
}

// EditStream applies a prompt-guided edit, streaming progress events.
// The returned stream must be closed.
func (c *Client) EditStream(ctx context.Context, params *EditParams) (*Stream, error) {
	if params == nil {
		return nil, errNilParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.stream(ctx, params.request())
}

// Convert turns an uploaded raster image into SVG.
func (c *Client) Convert(ctx context.Context, params *ConvertParams) (*ConvertResult, error) {
	if params == nil {
		return nil, errNilParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var out ConvertResult
	meta, err := c.do(ctx, params.request(), &out)
	if err != nil {
		return nil, err
	}
	out.Metadata = meta
	return &out, nil
}

// ConvertStream turns an uploaded raster image into SVG, streaming progress
// events. The returned stream must be closed.
func (c *Client) ConvertStream(ctx context.Context, params *ConvertParams) (*Stream, error) {
	if params == nil {
		return nil, errNilParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.stream(ctx, params.request())
}

// do runs one operation through the full pipeline and decodes the response
// payload into out when non-nil.
func (c *Client) do(ctx context.Context, req *apiRequest, out any) (*Metadata, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}

	requestID := c.newRequestID()
	endpoint := req.path
	start := time.Now()

	if c.metrics != nil {
		c.metrics.RecordRequestStart(endpoint)
		defer c.metrics.RecordRequestEnd(endpoint)
	}
	c.debugLog(c.gateRequests(), "debug", "starting operation",
		"requestID", requestID, "method", req.method, "endpoint", endpoint)

	if err := c.admit(ctx, requestID, endpoint); err != nil {
		return nil, err
	}

	resp, err := c.withRetry(ctx, requestID, endpoint, func(ctx context.Context) (*apiResponse, error) {
		return c.send(ctx, req, requestID)
	})

	duration := time.Since(start)
	if c.metrics != nil {
		status := 0
		if resp != nil {
			status = resp.status
		}
		c.metrics.RecordRequest(endpoint, status, duration)
		if err != nil {
			c.metrics.RecordError(kindLabel(err), endpoint)
		}
	}
	if err != nil {
		return nil, err
	}

	if out != nil && len(resp.payload()) > 0 {
		if derr := json.Unmarshal(resp.payload(), out); derr != nil {
			return resp.metadata, &APIError{
				Kind:    KindAPI,
				Message: "decoding response payload",
				Status:  resp.status,
				Cause:   derr,
			}
		}
	}
	return resp.metadata, nil
}

// stream runs the streaming variant of an operation: rate-limiter admission
// still applies, but the transport is invoked exactly once because a
// mid-flight stream cannot be replayed safely.
func (c *Client) stream(ctx context.Context, req *apiRequest) (*Stream, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}

	requestID := c.newRequestID()
	endpoint := req.path
	start := time.Now()

	if req.query == nil {
		req.query = url.Values{}
	}
	req.query.Set("stream", "true")

	// The in-flight gauge covers the connect, not the stream's lifetime;
	// decoded events are tracked separately by RecordStreamEvent.
	if c.metrics != nil {
		c.metrics.RecordRequestStart(endpoint)
		defer c.metrics.RecordRequestEnd(endpoint)
	}

	if err := c.admit(ctx, requestID, endpoint); err != nil {
		return nil, err
	}

	resp, err := c.connectStream(ctx, req, requestID)
	if c.metrics != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.metrics.RecordRequest(endpoint, status, time.Since(start))
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordError(kindLabel(err), endpoint)
		}
		return nil, err
	}

	c.debugLog(c.gateStream(), "debug", "stream connected",
		"requestID", requestID, "endpoint", endpoint)
	return c.newStream(resp), nil
}

// admit blocks on the shared rate limiter and records any imposed delay.
func (c *Client) admit(ctx context.Context, requestID, endpoint string) error {
	if c.rateLimiter == nil {
		return nil
	}
	waitStart := time.Now()
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(waitStart); waited > time.Millisecond {
		c.debugLog(c.gateRateLimit(), "debug", "rate limiter delayed admission",
			"requestID", requestID, "endpoint", endpoint, "waited", waited)
		if c.metrics != nil {
			c.metrics.RecordRateLimiterWait(endpoint, waited)
		}
	}
	return nil
}

func statusSet(codes []int) map[int]struct{} {
	set := make(map[int]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// kindLabel resolves the metrics label for an error.
func kindLabel(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	return "Unknown"
}
