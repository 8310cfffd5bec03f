package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Event types written alongside part results
const (
	EventInfo     = "info"
	EventWarning  = "warning"
	EventPlayback = "playback"
)

// PartResult reports one synthesized chunk
type PartResult struct {
	Type      string    `json:"type"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	File      string    `json:"file"`
	Bytes     int       `json:"bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// Event represents a system event
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary describes a finished run
type Summary struct {
	Type     string   `json:"type"`
	ID       string   `json:"id"`
	Dir      string   `json:"dir"`
	Files    []string `json:"files"`
	Combined string   `json:"combined,omitempty"`
	Chunks   int      `json:"chunks"`
	Complete bool     `json:"complete"`
	Warnings int      `json:"warnings"`
}

// Formatter is the interface for output formatters
type Formatter interface {
	// WritePart reports a chunk that was synthesized and saved
	WritePart(result PartResult) error

	// WriteEvent writes a system event (e.g., a normalization warning)
	WriteEvent(eventType, message string) error

	// WriteSummary writes the run summary
	WriteSummary(summary Summary) error

	// Flush ensures all buffered output is written
	Flush() error

	// Close closes the formatter and releases resources
	Close() error
}

// New returns the formatter for format: "console", "json" or "text"
func New(format string, writer io.Writer) (Formatter, error) {
	switch format {
	case "", "console":
		return NewConsoleOutput(ConsoleConfig{Writer: writer}), nil
	case "json":
		return NewJSONFormatter(writer), nil
	case "text":
		return NewPlainTextFormatter(writer), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// JSONFormatter writes one JSON object per line
type JSONFormatter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	parts   []PartResult
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	return &JSONFormatter{
		encoder: json.NewEncoder(writer),
		parts:   make([]PartResult, 0),
	}
}

// WritePart writes a part result in JSON format
func (j *JSONFormatter) WritePart(result PartResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	result.Type = "part"
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	j.parts = append(j.parts, result)
	return j.encoder.Encode(result)
}

// WriteEvent writes a system event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.encoder.Encode(Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// WriteSummary writes the run summary
func (j *JSONFormatter) WriteSummary(summary Summary) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	summary.Type = "summary"
	if summary.Files == nil {
		summary.Files = []string{}
	}
	return j.encoder.Encode(summary)
}

// Flush ensures all buffered output is written
func (j *JSONFormatter) Flush() error {
	// JSON encoder writes immediately, nothing to flush
	return nil
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// Parts returns every part written so far
func (j *JSONFormatter) Parts() []PartResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]PartResult(nil), j.parts...)
}

// PlainTextFormatter outputs timestamped lines
type PlainTextFormatter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{
		writer: writer,
	}
}

// WritePart writes a part result in plain text
func (p *PlainTextFormatter) WritePart(result PartResult) error {
	ts := result.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return p.line("[%s] part %d/%d %s (%d bytes)\n",
		ts.Format("15:04:05"), result.Index+1, result.Total, result.File, result.Bytes)
}

// WriteEvent writes a system event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	return p.line("[%s] [%s] %s\n", time.Now().Format("15:04:05"), eventType, message)
}

// WriteSummary writes the run summary
func (p *PlainTextFormatter) WriteSummary(summary Summary) error {
	status := "complete"
	if !summary.Complete {
		status = "incomplete"
	}
	if err := p.line("run %s %s: %d chunks in %s\n", summary.ID, status, summary.Chunks, summary.Dir); err != nil {
		return err
	}
	if summary.Combined != "" {
		return p.line("combined: %s\n", summary.Combined)
	}
	return nil
}

func (p *PlainTextFormatter) line(format string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.writer, format, args...)
	return err
}

// Flush ensures all buffered output is written
func (p *PlainTextFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}
