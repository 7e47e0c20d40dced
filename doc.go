// Package svgmaker is a Go client for the SVGMaker API, a hosted
// image-generation service producing SVG output from text prompts and
// uploaded images.
//
// Every operation runs through the same pipeline: a client-side sliding-window
// rate limiter, a bounded-retry wrapper with error-class-aware exponential
// backoff, and a single-call transport that normalizes the service's response
// envelope. Streaming operations connect once and decode newline-delimited
// JSON progress events into a lazy Stream.
//
// Construct a client with functional options:
//
//	client := svgmaker.NewClient(apiKey,
//	    svgmaker.WithTimeout(2*time.Minute),
//	    svgmaker.WithMaxRetries(3),
//	    svgmaker.WithRateLimit(30),
//	)
//
// Errors form a closed taxonomy: every service or transport failure is an
// *APIError whose Kind callers can match exhaustively. Caller-driven
// cancellation is the one exception: when the caller's context ends while
// waiting for admission or between retry attempts, the context's own error
// is returned so errors.Is(err, context.Canceled) works as usual.
//
//	result, err := client.Generate(ctx, params)
//	if svgmaker.IsKind(err, svgmaker.KindInsufficientCredits) {
//	    // top up and retry
//	}
//
// The library performs no background work; every call completes within the
// caller's goroutine and respects its context. The client is safe for
// concurrent use, with the rate limiter as the only state shared between
// concurrent operations.
//
// The library avoids opinionated logging: provide a Logger (for example via
// WithSimpleLogger) and enable debug gates selectively for insight without
// noise. Prometheus metrics are opt-in through WithMetrics.
package svgmaker
