package svgmaker

import (
	"context"
	"errors"
	"time"
)

// Default backoff bounds. The delay before retry n grows exponentially from
// the floor, scaled by the configured backoff factor, and never exceeds the
// ceiling.
const (
	defaultBackoffFloor   = time.Second
	defaultBackoffCeiling = time.Minute
)

// retryDecision is the explicit two-case outcome of classifying a failed
// attempt: retry it (subject to budget) or abort and surface the error.
type retryDecision int

const (
	decisionAbort retryDecision = iota
	decisionRetry
)

// classifyFailure decides whether a failed attempt may be retried.
// Validation and Auth failures are never transient. A status present in the
// configured retryable set is retried regardless of kind; timeouts and
// network failures are always retried. Everything else aborts.
func classifyFailure(err error, retryStatuses map[int]struct{}) retryDecision {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return decisionAbort
	}

	switch apiErr.Kind {
	case KindValidation, KindAuth:
		return decisionAbort
	}

	if apiErr.Status > 0 {
		if _, ok := retryStatuses[apiErr.Status]; ok {
			return decisionRetry
		}
	}
	if apiErr.Retryable() {
		return decisionRetry
	}
	return decisionAbort
}

// withRetry invokes send up to maxRetries+1 times, sleeping a jittered
// exponential backoff between attempts. When the budget is exhausted the
// error from the last attempt is returned unchanged; aborting failures are
// returned unchanged from the attempt that produced them.
func (c *Client) withRetry(ctx context.Context, requestID, endpoint string, send func(context.Context) (*apiResponse, error)) (*apiResponse, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			c.debugLog(c.gateRetries(), "info", "retry attempt",
				"requestID", requestID, "attempt", attempt, "maxRetries", c.maxRetries, "endpoint", endpoint)
			if c.metrics != nil {
				c.metrics.RecordRetry(endpoint)
			}
		}

		resp, err := send(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if classifyFailure(err, c.retryStatusCodes) == decisionAbort {
			c.debugLog(c.gateRetries(), "warn", "not retryable, aborting",
				"requestID", requestID, "endpoint", endpoint, "error", err.Error())
			return nil, err
		}
		if attempt >= c.maxRetries {
			return nil, lastErr
		}

		delay := c.backoffStrategy.Delay(attempt, c.initialBackoff, c.maxBackoff, c.backoffFactor, c.jitter)
		c.debugLog(c.gateRetries(), "info", "scheduling retry",
			"requestID", requestID, "attempt", attempt+1, "backoff", delay, "endpoint", endpoint)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
