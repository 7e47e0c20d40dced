package svgmaker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/GenWaveLLC/svgmaker-go/internal/json"
)

// maxErrorBodySize bounds how much of a failing response body is read, so a
// misbehaving server cannot make an error path allocate without limit.
const maxErrorBodySize = 64 * 1024

// apiRequest describes one call to the service. It is immutable once issued
// and its body is fully materialized, so a retry attempt can rebuild the
// wire payload from scratch.
type apiRequest struct {
	method   string
	path     string
	query    url.Values
	header   http.Header
	jsonBody any
	form     *formPayload

	// timeout overrides the client default when positive.
	timeout time.Duration

	// stream marks an NDJSON streaming call: no timeout context is
	// attached and the response body is handed to the stream decoder.
	stream bool
}

// apiResponse is a decoded non-streaming response. Either data/metadata are
// set (enveloped response) or raw holds the legacy pass-through body.
type apiResponse struct {
	status   int
	data     json.RawMessage
	metadata *Metadata
	raw      []byte
}

// payload returns the bytes an operation should decode its result from.
func (r *apiResponse) payload() []byte {
	if len(r.data) > 0 {
		return r.data
	}
	return r.raw
}

// send performs a single HTTP call and normalizes the outcome: a decoded
// response on success, an *APIError otherwise. It never retries.
func (c *Client) send(ctx context.Context, req *apiRequest, requestID string) (*apiResponse, error) {
	httpReq, cancel, err := c.buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	defer cancel()

	c.debugLog(c.gateRequests(), "debug", "sending request",
		"requestID", requestID, "method", req.method, "path", req.path)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(err, c.effectiveTimeout(req))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(err, c.effectiveTimeout(req))
	}

	return c.decodeResponse(resp, body, requestID)
}

// connectStream performs the single streaming call and returns the open
// response for the decoder. A non-success status is mapped to an *APIError
// before any stream is handed out.
func (c *Client) connectStream(ctx context.Context, req *apiRequest, requestID string) (*http.Response, error) {
	req.stream = true
	httpReq, cancel, err := c.buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	// No timeout context is attached to streams; cancel is a no-op kept for
	// symmetry with send.
	defer cancel()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(err, c.effectiveTimeout(req))
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, c.mapErrorBody(resp.StatusCode, body, resp.Header, requestID)
	}
	return resp, nil
}

// buildHTTPRequest assembles the URL, headers, body and timeout context for
// one attempt. The returned cancel must be called once the response body has
// been consumed.
func (c *Client) buildHTTPRequest(ctx context.Context, req *apiRequest) (*http.Request, context.CancelFunc, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, nil, &APIError{Kind: KindValidation, Message: "invalid base URL", Cause: err}
	}
	u.Path = path.Join(u.Path, req.path)
	if len(req.query) > 0 {
		q := u.Query()
		for key, values := range req.query {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		u.RawQuery = q.Encode()
	}

	cancel := context.CancelFunc(func() {})
	if !req.stream {
		if timeout := c.effectiveTimeout(req); timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
		}
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		encoded, ct, err := req.form.encode()
		if err != nil {
			cancel()
			return nil, nil, &APIError{Kind: KindValidation, Message: "encoding multipart payload", Cause: err}
		}
		body = bytes.NewReader(encoded)
		contentType = ct
	case req.jsonBody != nil:
		encoded, err := json.Marshal(req.jsonBody)
		if err != nil {
			cancel()
			return nil, nil, &APIError{Kind: KindValidation, Message: "encoding request body", Cause: err}
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		cancel()
		return nil, nil, &APIError{Kind: KindValidation, Message: "building request", Cause: err}
	}

	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("User-Agent", userAgent)
	if req.stream {
		httpReq.Header.Set("Accept", "application/x-ndjson")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range req.header {
		for _, value := range values {
			httpReq.Header.Set(key, value)
		}
	}

	return httpReq, cancel, nil
}

// effectiveTimeout resolves the per-request timeout override.
func (c *Client) effectiveTimeout(req *apiRequest) time.Duration {
	if req.timeout > 0 {
		return req.timeout
	}
	return c.timeout
}

// transportError maps a failure that prevented a complete HTTP exchange to
// the error taxonomy: deadline expiry and cancellation become Timeout,
// everything else Network.
func (c *Client) transportError(err error, timeout time.Duration) *APIError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &APIError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("request timed out after %v", timeout),
			Timeout: timeout,
			Cause:   err,
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("request timed out after %v", timeout),
			Timeout: timeout,
			Cause:   err,
		}
	}
	return &APIError{Kind: KindNetwork, Message: "network request failed", Cause: err}
}

// decodeResponse unwraps the service envelope. Error-shaped bodies are
// routed through the error mapper even on a success-range status; bodies
// without the envelope shape pass through for legacy compatibility.
func (c *Client) decodeResponse(resp *http.Response, body []byte, requestID string) (*apiResponse, error) {
	var env envelope
	parsed := json.Unmarshal(body, &env) == nil

	if parsed && env.Metadata != nil && env.Metadata.RequestID != "" {
		requestID = env.Metadata.RequestID
	}

	if resp.StatusCode >= 400 {
		if parsed && env.Error != nil {
			if env.Error.Status == 0 {
				env.Error.Status = resp.StatusCode
			}
			return nil, mapAPIError(env.Error, requestID, resp.Header)
		}
		return nil, c.mapErrorBody(resp.StatusCode, body, resp.Header, requestID)
	}

	// An error envelope behind a success status still counts as a failure.
	if parsed && env.Error != nil {
		if env.Error.Status == 0 {
			env.Error.Status = resp.StatusCode
		}
		return nil, mapAPIError(env.Error, requestID, resp.Header)
	}
	if parsed && env.Success != nil && !*env.Success {
		info := &errorInfo{Status: resp.StatusCode, Message: "service reported failure without an error payload"}
		return nil, mapAPIError(info, requestID, resp.Header)
	}

	out := &apiResponse{status: resp.StatusCode}
	if parsed && env.enveloped() {
		out.data = env.Data
		out.metadata = env.Metadata
		return out, nil
	}
	out.raw = body
	return out, nil
}

// mapErrorBody builds an APIError from a failing response whose body may or
// may not be a well-formed error envelope.
func (c *Client) mapErrorBody(status int, body []byte, header http.Header, requestID string) *APIError {
	var env envelope
	if json.Unmarshal(body, &env) == nil {
		if env.Metadata != nil && env.Metadata.RequestID != "" {
			requestID = env.Metadata.RequestID
		}
		if env.Error != nil {
			if env.Error.Status == 0 {
				env.Error.Status = status
			}
			return mapAPIError(env.Error, requestID, header)
		}
	}
	message := strings.TrimSpace(string(body))
	if len(message) > 512 {
		message = message[:512]
	}
	return mapAPIError(&errorInfo{Status: status, Message: message}, requestID, header)
}
