// Package run records what a single read-aloud run did: the raw input, the
// chunks it was split into, the audio files produced and whether it finished
package run

import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MetadataFile is the document name the record is persisted under
const MetadataFile = "metadata.json"

// ErrAlreadyFinalized is returned when a handle is finalized twice
var ErrAlreadyFinalized = errors.New("run record already finalized")

// Record is the persisted description of a run
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Text       string    `json:"text"`
	TextLength int       `json:"text_length"`
	Chunks     []string  `json:"chunks"`
	Files      []string  `json:"files"`
	Complete   bool      `json:"complete"`
}

// DocumentSink persists a named JSON document
type DocumentSink interface {
	SaveDocument(name string, v any) error
}

// Recorder creates run records
type Recorder struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Recorder
type Option func(*Recorder)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(newID func() string) Option {
	return func(r *Recorder) { r.newID = newID }
}

// NewRecorder creates a Recorder
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle is an open record. Chunks may be attached until it is finalized
type Handle struct {
	mu        sync.Mutex
	record    Record
	finalized bool
}

// Begin starts a record for raw, capturing the timestamp now
func (r *Recorder) Begin(raw string) *Handle {
	return &Handle{
		record: Record{
			ID:         r.newID(),
			Timestamp:  r.now(),
			Text:       raw,
			TextLength: utf8.RuneCountInString(raw),
			Chunks:     []string{},
			Files:      []string{},
		},
	}
}

// ID returns the run identifier
func (h *Handle) ID() string {
	return h.record.ID
}

// Timestamp returns the time captured at Begin
func (h *Handle) Timestamp() time.Time {
	return h.record.Timestamp
}

// SetChunks records the chunk texts the input was split into
func (h *Handle) SetChunks(chunks []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finalized {
		return
	}
	h.record.Chunks = append([]string{}, chunks...)
}

// Finalize freezes the record, attaching the produced files, and writes it
// through sink. It may be called once per handle; the record is frozen even
// when writing fails
func (r *Recorder) Finalize(h *Handle, files []string, complete bool, sink DocumentSink) (Record, error) {
	h.mu.Lock()
	if h.finalized {
		h.mu.Unlock()
		return Record{}, ErrAlreadyFinalized
	}
	h.finalized = true
	h.record.Files = append([]string{}, files...)
	h.record.Complete = complete
	rec := h.snapshot()
	h.mu.Unlock()

	if sink == nil {
		return rec, nil
	}
	if err := sink.SaveDocument(MetadataFile, rec); err != nil {
		return rec, fmt.Errorf("failed to save run record: %w", err)
	}
	return rec, nil
}

// Record returns a copy of the current record
func (h *Handle) Record() Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot()
}

func (h *Handle) snapshot() Record {
	rec := h.record
	rec.Chunks = append([]string{}, h.record.Chunks...)
	rec.Files = append([]string{}, h.record.Files...)
	return rec
}
