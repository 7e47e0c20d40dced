package svgmaker

import (
	"net/http"
	"time"

	"github.com/GenWaveLLC/svgmaker-go/internal/backoff"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMaxRetries sets how many additional attempts follow a failed first
// attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithInitialBackoff sets the delay floor for the first retry.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = d
	}
}

// WithMaxBackoff sets the ceiling no retry delay exceeds.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.maxBackoff = d
	}
}

// WithBackoffFactor sets the exponential growth factor between retry delays.
func WithBackoffFactor(f float64) Option {
	return func(c *Client) {
		c.backoffFactor = f
	}
}

// WithJitter sets the jitter fraction (0.0 to 1.0) applied to retry delays.
func WithJitter(f float64) Option {
	return func(c *Client) {
		c.jitter = f
	}
}

// WithBackoffStrategy replaces the retry delay calculator.
func WithBackoffStrategy(strategy backoff.Strategy) Option {
	return func(c *Client) {
		c.backoffStrategy = strategy
	}
}

// WithRetryStatusCodes replaces the set of HTTP statuses that are retried.
func WithRetryStatusCodes(codes ...int) Option {
	return func(c *Client) {
		c.retryStatusCodes = statusSet(codes)
	}
}

// WithRateLimit sets the number of operations admitted per rolling
// 60-second window. Zero or negative disables client-side rate limiting.
func WithRateLimit(requestsPerWindow int) Option {
	return func(c *Client) {
		if requestsPerWindow <= 0 {
			c.rateLimiter = nil
			return
		}
		c.rateLimiter = NewRateLimiter(requestsPerWindow)
	}
}

// WithMetrics enables Prometheus metrics on the default registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a custom logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets a custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}
