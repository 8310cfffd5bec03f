package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ConsoleOutput is the interactive formatter: an overwritten progress line
// while chunks are synthesized, then a short summary
type ConsoleOutput struct {
	mu            sync.Mutex
	writer        io.Writer
	errWriter     io.Writer
	showTimestamp bool
	inProgress    bool
}

// ConsoleConfig configures console output behavior
type ConsoleConfig struct {
	// ShowTimestamp prefixes each line with a timestamp
	ShowTimestamp bool

	// Writer is the output destination (default: os.Stdout)
	Writer io.Writer

	// ErrWriter receives error messages (default: os.Stderr)
	ErrWriter io.Writer
}

// NewConsoleOutput creates a new console output handler
func NewConsoleOutput(config ConsoleConfig) *ConsoleOutput {
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}
	errWriter := config.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}

	return &ConsoleOutput{
		writer:        writer,
		errWriter:     errWriter,
		showTimestamp: config.ShowTimestamp,
	}
}

func (c *ConsoleOutput) prefix() string {
	if !c.showTimestamp {
		return ""
	}
	return fmt.Sprintf("[%s] ", time.Now().Format("15:04:05"))
}

// endProgress terminates an open progress line; callers hold mu
func (c *ConsoleOutput) endProgress() {
	if c.inProgress {
		fmt.Fprintln(c.writer)
		c.inProgress = false
	}
}

// WritePart overwrites the progress line
func (c *ConsoleOutput) WritePart(result PartResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "\r[*] Synthesized %d/%d (%s)", result.Index+1, result.Total, result.File)
	c.inProgress = true
	return nil
}

// WriteEvent writes a system event on its own line
func (c *ConsoleOutput) WriteEvent(eventType, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endProgress()
	fmt.Fprintf(c.writer, "%s[%s] %s\n", c.prefix(), strings.ToUpper(eventType), message)
	return nil
}

// WriteSummary writes where the audio was saved
func (c *ConsoleOutput) WriteSummary(summary Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endProgress()
	p := c.prefix()
	fmt.Fprintf(c.writer, "%sSaved %d part(s) to %s\n", p, len(summary.Files), summary.Dir)
	if summary.Combined != "" {
		fmt.Fprintf(c.writer, "%sCombined audio: %s\n", p, summary.Combined)
	}
	if summary.Warnings > 0 {
		fmt.Fprintf(c.writer, "%s%d warning(s), see above\n", p, summary.Warnings)
	}
	return nil
}

// Finalize ends an open progress line
func (c *ConsoleOutput) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endProgress()
	return nil
}

// Info writes an informational message
func (c *ConsoleOutput) Info(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endProgress()
	fmt.Fprintf(c.writer, "[INFO] %s\n", msg)
}

// Error writes an error message to the error writer
func (c *ConsoleOutput) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endProgress()
	fmt.Fprintf(c.errWriter, "[ERROR] %s\n", msg)
}

// Status writes a status message (typically overwritten)
func (c *ConsoleOutput) Status(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.writer, "\r[*] %s", msg)
	c.inProgress = true
}

// Flush ends an open progress line
func (c *ConsoleOutput) Flush() error {
	return c.Finalize()
}

// Close closes the formatter
func (c *ConsoleOutput) Close() error {
	return c.Finalize()
}
