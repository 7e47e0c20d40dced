package svgmaker

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader serves fixed byte chunks one Read at a time, so tests can
// split records at arbitrary byte boundaries.
type chunkReader struct {
	chunks [][]byte
	closed bool
}

func newChunkReader(chunks ...string) *chunkReader {
	r := &chunkReader{}
	for _, chunk := range chunks {
		r.chunks = append(r.chunks, []byte(chunk))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		r.chunks[0] = chunk[n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

func collectEvents(t *testing.T, s *Stream) []*StreamEvent {
	t.Helper()
	var events []*StreamEvent
	for s.Next() {
		events = append(events, s.Event())
	}
	require.NoError(t, s.Err())
	return events
}

func TestStreamDecodesRecords(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		`{"status":"processing","message":"working"}` + "\n" +
			`{"status":"complete","svgUrl":"https://cdn.example/a.svg"}` + "\n",
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 2)

	assert.Equal(t, StatusProcessing, events[0].Status)
	assert.Equal(t, "working", events[0].Message)
	assert.False(t, events[0].Terminal())

	assert.Equal(t, StatusComplete, events[1].Status)
	assert.True(t, events[1].Terminal())
	assert.Equal(t, "https://cdn.example/a.svg", events[1].SVGURL())
}

func TestStreamReassemblesSplitRecords(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		`{"status":"comp`,
		`lete","svgUrl":"https://cdn.example/split.svg"}`+"\n",
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, StatusComplete, events[0].Status)
	assert.Equal(t, "https://cdn.example/split.svg", events[0].SVGURL())
}

func TestStreamHandlesMultipleRecordsPerChunk(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		`{"status":"processing"}` + "\n" + `{"status":"processing","message":"vectorizing"}` + "\n" + `{"status":"complete"}` + "\n",
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 3)
	assert.Equal(t, "vectorizing", events[1].Message)
	assert.True(t, events[2].Terminal())
}

func TestStreamAccumulatesFieldsAcrossEvents(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		`{"status":"processing","svgUrl":"https://cdn.example/early.svg","creditCost":2}` + "\n" +
			`{"status":"generated","generationId":"gen-1"}` + "\n" +
			`{"status":"complete","creditCost":3}` + "\n",
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 3)

	final := events[2]
	require.True(t, final.Terminal())
	// Fields from earlier events are carried onto the terminal event.
	assert.Equal(t, "https://cdn.example/early.svg", final.SVGURL())
	assert.Equal(t, "gen-1", final.GenerationID())
	// The terminal event's own value wins on conflict.
	cost, ok := final.CreditCost()
	require.True(t, ok)
	assert.Equal(t, 3.0, cost)
}

func TestStreamStopsAfterTerminalEvent(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		`{"status":"complete"}` + "\n" + `{"status":"processing","message":"late"}` + "\n",
	))
	defer s.Close()

	require.True(t, s.Next())
	assert.True(t, s.Event().Terminal())
	assert.False(t, s.Next(), "no events after the terminal one")
	assert.NoError(t, s.Err())
}

func TestStreamSkipsMalformedLines(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		"not json at all\n" +
			`{"status":"processing"}` + "\n" +
			"{\"status\": \n" +
			`{"status":"complete"}` + "\n",
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 2)
	assert.Equal(t, StatusProcessing, events[0].Status)
	assert.Equal(t, StatusComplete, events[1].Status)
}

func TestStreamFlushesPartialLineAtEOF(t *testing.T) {
	// Final record without a trailing newline.
	s := newStreamFromReader(newChunkReader(
		`{"status":"processing"}` + "\n" + `{"status":"complete","svgUrl":"https://cdn.example/last.svg"}`,
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 2)
	assert.Equal(t, "https://cdn.example/last.svg", events[1].SVGURL())
}

func TestStreamDecodesImageData(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	encoded := base64.StdEncoding.EncodeToString(payload)

	s := newStreamFromReader(newChunkReader(
		`{"status":"generated","imageData":"` + encoded + `"}` + "\n" + `{"status":"complete"}` + "\n",
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 2)

	assert.Equal(t, payload, events[0].Image)
	_, kept := events[0].Fields[imageDataField]
	assert.False(t, kept, "decoded image data leaves the field map")

	// The terminal event inherits the last decoded image.
	assert.Equal(t, payload, events[1].Image)
}

func TestStreamNormalizesSVGContent(t *testing.T) {
	markup := `<svg xmlns="http://www.w3.org/2000/svg"><rect/></svg>`
	encoded := base64.StdEncoding.EncodeToString([]byte(markup))

	s := newStreamFromReader(newChunkReader(
		`{"status":"complete","svgText":"` + encoded + `"}` + "\n",
	))
	defer s.Close()

	events := collectEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, markup, events[0].StringField("svgText"))
}

func TestStreamErrorStatusIsAnEventNotErr(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		`{"status":"processing"}` + "\n" + `{"status":"error","message":"generation failed"}` + "\n",
	))
	defer s.Close()

	require.True(t, s.Next())
	require.True(t, s.Next())
	event := s.Event()
	assert.Equal(t, StatusError, event.Status)
	assert.Equal(t, "generation failed", event.Message)
	assert.True(t, event.Terminal())

	assert.False(t, s.Next())
	assert.NoError(t, s.Err(), "terminal error status is not a transport failure")
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	body := newChunkReader(`{"status":"complete"}` + "\n")
	s := newStreamFromReader(body)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, body.closed)
	assert.False(t, s.Next(), "closed stream yields no events")
}

func TestStreamEventsWithContext(t *testing.T) {
	s := newStreamFromReader(newChunkReader(
		`{"status":"processing"}` + "\n" + `{"status":"complete","svgUrl":"https://cdn.example/c.svg"}` + "\n",
	))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []*StreamEvent
	for event := range s.EventsWithContext(ctx) {
		events = append(events, event)
	}
	require.Len(t, events, 2)
	assert.Equal(t, "https://cdn.example/c.svg", events[1].SVGURL())
}

func TestGenerateStreamEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("stream"))
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, `{"status":"processing","message":"queued"}`+"\n")
		io.WriteString(w, `{"status":"complete","svgUrl":"https://cdn.example/e2e.svg","creditCost":2}`+"\n")
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL), WithRateLimit(0))
	stream, err := c.GenerateStream(context.Background(), &GenerateParams{Prompt: "a fox"})
	require.NoError(t, err)
	defer stream.Close()

	events := collectEvents(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, "https://cdn.example/e2e.svg", events[1].SVGURL())
}

func TestGenerateStreamFailsBeforeFirstByte(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"success":false,"error":{"code":"RATE_LIMIT_EXCEEDED","message":"slow down","status":429}}`)
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL), WithRateLimit(0))
	stream, err := c.GenerateStream(context.Background(), &GenerateParams{Prompt: "a fox"})
	require.Nil(t, stream)
	assert.True(t, IsKind(err, KindRateLimit))
}

func TestStreamReadFailureSurfacesThroughErr(t *testing.T) {
	reader, writer := io.Pipe()
	go func() {
		io.WriteString(writer, `{"status":"processing"}`+"\n")
		writer.CloseWithError(io.ErrUnexpectedEOF)
	}()

	s := newStreamFromReader(reader)
	defer s.Close()

	require.True(t, s.Next())
	assert.False(t, s.Next())
	err := s.Err()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork))
	assert.True(t, strings.Contains(err.Error(), "reading stream"))
}
