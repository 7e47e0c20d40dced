package svgmaker

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger receives debug output from the client when debugging is enabled.
// Key/value pairs follow the message, alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger is a minimal console Logger writing leveled lines to stderr.
type SimpleLogger struct {
	out *log.Logger
}

// NewSimpleLogger creates a console logger suitable for WithLogger.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{out: log.New(os.Stderr, "svgmaker ", log.LstdFlags|log.Lmicroseconds)}
}

func (l *SimpleLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *SimpleLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *SimpleLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *SimpleLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

func (l *SimpleLogger) log(level, msg string, keysAndValues []any) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	if len(keysAndValues)%2 == 1 {
		fmt.Fprintf(&b, " %v", keysAndValues[len(keysAndValues)-1])
	}
	l.out.Print(b.String())
}

// DebugConfig gates which pipeline stages emit log output.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogRateLimit bool
	LogStream    bool

	// RequestIDGen produces the correlation ID attached to each request's
	// log lines.
	RequestIDGen func() string
}

// DefaultDebugConfig enables all stages and uses UUID request IDs.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogRetries:   true,
		LogRateLimit: true,
		LogStream:    true,
		RequestIDGen: uuid.NewString,
	}
}

// debugLog writes through the client's logger when the given gate is open.
func (c *Client) debugLog(gate bool, level, msg string, keysAndValues ...any) {
	if c.debug == nil || !c.debug.Enabled || !gate || c.logger == nil {
		return
	}
	switch level {
	case "info":
		c.logger.Info(msg, keysAndValues...)
	case "warn":
		c.logger.Warn(msg, keysAndValues...)
	default:
		c.logger.Debug(msg, keysAndValues...)
	}
}

func (c *Client) gateRequests() bool  { return c.debug != nil && c.debug.LogRequests }
func (c *Client) gateRetries() bool   { return c.debug != nil && c.debug.LogRetries }
func (c *Client) gateRateLimit() bool { return c.debug != nil && c.debug.LogRateLimit }
func (c *Client) gateStream() bool    { return c.debug != nil && c.debug.LogStream }

// newRequestID generates a correlation ID when debugging is enabled.
func (c *Client) newRequestID() string {
	if c.debug == nil || !c.debug.Enabled || c.debug.RequestIDGen == nil {
		return ""
	}
	return c.debug.RequestIDGen()
}
