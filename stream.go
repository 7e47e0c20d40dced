package svgmaker

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/GenWaveLLC/svgmaker-go/internal/json"
)

// Stream event statuses with fixed meaning. The service may emit additional
// intermediate phase names; anything other than complete and error is a
// progress event.
const (
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// imageDataField carries a base64-encoded raster payload in stream records.
const imageDataField = "imageData"

// svgContentFields may carry SVG markup that legacy servers base64-encode.
var svgContentFields = []string{"svgText", "svgContent"}

// StreamEvent is one decoded record from a streaming operation.
//
// Progress events report intermediate phases; the terminal event (status
// complete or error) additionally carries every field seen on earlier
// progress events, with the terminal event's own fields winning on conflict.
type StreamEvent struct {
	// Status is the event phase, for example "processing" or "complete".
	Status string

	// Message is optional human-readable progress text.
	Message string

	// Fields holds the remaining payload fields of the record.
	Fields map[string]any

	// Image is the decoded binary payload when the record carried a
	// base64-encoded image.
	Image []byte
}

// Terminal reports whether this event ends the sequence.
func (e *StreamEvent) Terminal() bool {
	return e.Status == StatusComplete || e.Status == StatusError
}

// StringField returns a payload field as a string, or "" when absent or of
// another type.
func (e *StreamEvent) StringField(name string) string {
	value, _ := e.Fields[name].(string)
	return value
}

// FloatField returns a numeric payload field.
func (e *StreamEvent) FloatField(name string) (float64, bool) {
	value, ok := e.Fields[name].(float64)
	return value, ok
}

// SVGURL returns the svgUrl field when present.
func (e *StreamEvent) SVGURL() string {
	return e.StringField("svgUrl")
}

// GenerationID returns the generationId field when present.
func (e *StreamEvent) GenerationID() string {
	return e.StringField("generationId")
}

// CreditCost returns the creditCost field when present.
func (e *StreamEvent) CreditCost() (float64, bool) {
	return e.FloatField("creditCost")
}

// Stream is a lazy, finite, forward-only sequence of events decoded from a
// newline-delimited JSON response. It is not restartable and not safe for
// concurrent use by multiple goroutines.
//
//	stream, err := client.GenerateStream(ctx, params)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for stream.Next() {
//	    event := stream.Event()
//	    ...
//	}
//	if err := stream.Err(); err != nil {
//	    return err
//	}
type Stream struct {
	body    io.ReadCloser
	reader  *bufio.Reader
	acc     map[string]any
	accImg  []byte
	current *StreamEvent
	err     error
	done    bool
	closed  atomic.Bool

	logger  Logger
	logGate bool
	metrics *MetricsCollector
}

func (c *Client) newStream(resp *http.Response) *Stream {
	s := newStreamFromReader(resp.Body)
	s.logger = c.logger
	s.logGate = c.debug != nil && c.debug.Enabled && c.gateStream()
	s.metrics = c.metrics
	return s
}

// newStreamFromReader builds a decoder over any byte stream; split out so
// the reassembly logic is testable without HTTP.
func newStreamFromReader(body io.ReadCloser) *Stream {
	return &Stream{
		body:   body,
		reader: bufio.NewReader(body),
		acc:    make(map[string]any),
	}
}

// Next advances to the next event. It returns false once a terminal event
// has been returned, the underlying stream ends, or a read error occurs;
// check Err afterwards.
func (s *Stream) Next() bool {
	if s.done || s.err != nil || s.closed.Load() {
		return false
	}

	for {
		line, readErr := s.reader.ReadString('\n')

		// A partial line at EOF is still a candidate record.
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if event, ok := s.decodeLine(trimmed); ok {
				s.current = event
				if event.Terminal() {
					s.done = true
				}
				if s.metrics != nil {
					s.metrics.RecordStreamEvent(event.Status)
				}
				return true
			}
		}

		if readErr != nil {
			if readErr != io.EOF {
				s.err = &APIError{Kind: KindNetwork, Message: "reading stream", Cause: readErr}
			}
			return false
		}
	}
}

// Event returns the current event. Valid after Next reports true.
func (s *Stream) Event() *StreamEvent {
	return s.current
}

// Err returns the transport error that ended the stream, if any. A terminal
// event with status "error" is delivered as an event, not through Err.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying connection. Safe to call multiple times.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}

// EventsWithContext drains the stream into a channel, closing it when the
// stream ends, fails, or ctx is cancelled. Cancellation closes the stream
// to unblock a pending read.
func (s *Stream) EventsWithContext(ctx context.Context) <-chan *StreamEvent {
	ch := make(chan *StreamEvent)
	go func() {
		defer close(ch)

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-done:
			}
		}()

		for s.Next() {
			event := s.current
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// decodeLine parses one NDJSON record into an event, folding progress
// fields into the accumulator and merging the accumulator into terminal
// events. Unparseable lines are skipped, not fatal.
func (s *Stream) decodeLine(line string) (*StreamEvent, bool) {
	if !gjson.Valid(line) {
		s.logSkip(line)
		return nil, false
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		s.logSkip(line)
		return nil, false
	}

	event := &StreamEvent{
		Status: gjson.Get(line, "status").String(),
	}
	event.Message, _ = record["message"].(string)
	delete(record, "status")
	delete(record, "message")

	if encoded, ok := record[imageDataField].(string); ok {
		if image, err := decodeBase64Image(encoded); err == nil {
			event.Image = image
			delete(record, imageDataField)
		}
	}
	for _, field := range svgContentFields {
		if content, ok := record[field].(string); ok {
			record[field] = normalizeSVGContent(content)
		}
	}

	if event.Terminal() {
		for name, value := range s.acc {
			if _, exists := record[name]; !exists {
				record[name] = value
			}
		}
		if event.Image == nil {
			event.Image = s.accImg
		}
	} else {
		for name, value := range record {
			s.acc[name] = value
		}
		if event.Image != nil {
			s.accImg = event.Image
		}
	}
	event.Fields = record

	return event, true
}

func (s *Stream) logSkip(line string) {
	if !s.logGate || s.logger == nil {
		return
	}
	if len(line) > 128 {
		line = line[:128]
	}
	s.logger.Debug("skipping malformed stream line", "line", line)
}
