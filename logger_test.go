package svgmaker

import (
	"testing"
)

// captureLogger records log calls for assertions.
type captureLogger struct {
	entries []string
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.entries = append(l.entries, "debug:"+msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.entries = append(l.entries, "info:"+msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.entries = append(l.entries, "warn:"+msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.entries = append(l.entries, "error:"+msg) }

func TestDebugLogDisabledByDefault(t *testing.T) {
	logger := &captureLogger{}
	c := NewClient("test-key", WithLogger(logger))

	c.debugLog(c.gateRequests(), "debug", "should not appear")
	if len(logger.entries) != 0 {
		t.Errorf("Expected no output with debugging disabled, got %v", logger.entries)
	}
}

func TestDebugLogRespectsGates(t *testing.T) {
	logger := &captureLogger{}
	config := DefaultDebugConfig()
	config.Enabled = true
	config.LogRetries = false

	c := NewClient("test-key", WithLogger(logger), WithDebugConfig(config))

	c.debugLog(c.gateRequests(), "debug", "request line")
	c.debugLog(c.gateRetries(), "info", "retry line")

	if len(logger.entries) != 1 || logger.entries[0] != "debug:request line" {
		t.Errorf("Expected only the request line, got %v", logger.entries)
	}
}

func TestDebugLogLevels(t *testing.T) {
	logger := &captureLogger{}
	c := NewClient("test-key", WithLogger(logger), WithDebug())

	c.debugLog(true, "info", "a")
	c.debugLog(true, "warn", "b")
	c.debugLog(true, "debug", "c")

	want := []string{"info:a", "warn:b", "debug:c"}
	if len(logger.entries) != len(want) {
		t.Fatalf("Expected %d entries, got %v", len(want), logger.entries)
	}
	for i, entry := range want {
		if logger.entries[i] != entry {
			t.Errorf("Entry %d = %q, want %q", i, logger.entries[i], entry)
		}
	}
}

func TestRequestIDGeneration(t *testing.T) {
	c := NewClient("test-key")
	if id := c.newRequestID(); id != "" {
		t.Errorf("Expected empty request ID with debugging off, got %q", id)
	}

	c = NewClient("test-key", WithDebug(), WithRequestIDGenerator(func() string { return "fixed-id" }))
	if id := c.newRequestID(); id != "fixed-id" {
		t.Errorf("Expected custom generator output, got %q", id)
	}

	c = NewClient("test-key", WithDebug())
	if id := c.newRequestID(); id == "" {
		t.Error("Expected a generated UUID request ID with debugging on")
	}
}
