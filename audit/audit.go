// Package audit records the human-readable trail of dispatch activity:
// one entry per credential attempt, plus entries for credential refreshes
// and exhausted rotations. Recording is strictly best-effort and never
// influences dispatch behavior.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Status classifies an audit entry.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
)

// Entry is one line of the audit trail. The field names mirror the wire
// format of the platform's traffic log: Model carries the context label,
// Prompt the human-readable description of what happened, and Error the
// failure message when Status is StatusError.
type Entry struct {
	ID         string    `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
	Model      string    `json:"model"`
	Prompt     string    `json:"prompt"`
	Output     string    `json:"output"`
	TokenCount int       `json:"tokenCount"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// Sink persists audit entries. Implementations must be safe for concurrent
// use.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
	Close() error
}

// Recorder stamps entries and hands them to a sink, swallowing sink
// failures. A nil Recorder, or one with a nil sink, silently discards
// everything, so callers never need to guard recording with nil checks.
type Recorder struct {
	sink   Sink
	logger *log.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger that reports swallowed sink failures.
func WithRecorderLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder wraps a sink. A nil sink yields a recorder that discards
// every entry.
func NewRecorder(sink Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{sink: sink}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps the entry with an ID and timestamp when missing, then
// writes it to the sink. Sink failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.sink == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if err := r.sink.Record(ctx, entry); err != nil && r.logger != nil {
		r.logger.Printf("audit record failed: %v", err)
	}
}

// Close releases the underlying sink.
func (r *Recorder) Close() error {
	if r == nil || r.sink == nil {
		return nil
	}
	return r.sink.Close()
}
