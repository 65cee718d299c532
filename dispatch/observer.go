package dispatch

import (
	"context"
	"fmt"

	"github.com/mversen/keyfall/audit"
)

// Observer receives rotation lifecycle events. Observers are a side
// channel: nothing they do changes what Dispatch returns. Credential
// arguments are always redacted before delivery.
type Observer interface {
	// AttemptStarted fires before the request for one credential is sent.
	AttemptStarted(label string, attempt, total int, redactedToken string)

	// AttemptSucceeded fires when an attempt returns a usable result.
	AttemptSucceeded(label string, attempt, total int, redactedToken string)

	// AttemptFailed fires when an attempt fails for any reason.
	AttemptFailed(label string, attempt, total int, redactedToken string, err error)

	// Exhausted fires after the final credential fails, before Dispatch
	// returns the last error.
	Exhausted(label string, attempts int, lastErr error)

	// CredentialsRefreshed fires when resolution ran a remote lookup.
	// count is the size of the fetched list; err is the lookup failure,
	// if any.
	CredentialsRefreshed(label string, count int, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) AttemptStarted(string, int, int, string)       {}
func (NopObserver) AttemptSucceeded(string, int, int, string)     {}
func (NopObserver) AttemptFailed(string, int, int, string, error) {}
func (NopObserver) Exhausted(string, int, error)                  {}
func (NopObserver) CredentialsRefreshed(string, int, error)       {}

// MultiObserver fans events out to several observers in order.
func MultiObserver(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) AttemptStarted(label string, attempt, total int, redactedToken string) {
	for _, o := range m {
		o.AttemptStarted(label, attempt, total, redactedToken)
	}
}

func (m multiObserver) AttemptSucceeded(label string, attempt, total int, redactedToken string) {
	for _, o := range m {
		o.AttemptSucceeded(label, attempt, total, redactedToken)
	}
}

func (m multiObserver) AttemptFailed(label string, attempt, total int, redactedToken string, err error) {
	for _, o := range m {
		o.AttemptFailed(label, attempt, total, redactedToken, err)
	}
}

func (m multiObserver) Exhausted(label string, attempts int, lastErr error) {
	for _, o := range m {
		o.Exhausted(label, attempts, lastErr)
	}
}

func (m multiObserver) CredentialsRefreshed(label string, count int, err error) {
	for _, o := range m {
		o.CredentialsRefreshed(label, count, err)
	}
}

// NewAuditObserver turns rotation events into audit entries: one entry per
// resolved attempt, one per refresh, and one summary when rotation
// exhausts. Entries are written on a background context so the trail keeps
// its final lines even when the dispatch context is already canceled.
func NewAuditObserver(recorder *audit.Recorder) Observer {
	return &auditObserver{recorder: recorder}
}

type auditObserver struct {
	recorder *audit.Recorder
}

// AttemptStarted writes nothing: the attempt's entry is emitted once its
// outcome is known, keeping the trail at one entry per attempt.
func (o *auditObserver) AttemptStarted(label string, attempt, total int, redactedToken string) {
}

func (o *auditObserver) AttemptSucceeded(label string, attempt, total int, redactedToken string) {
	o.recorder.Record(context.Background(), audit.Entry{
		Model:  label,
		Prompt: fmt.Sprintf("attempt %d/%d with credential %s succeeded", attempt, total, redactedToken),
		Status: audit.StatusSuccess,
	})
}

func (o *auditObserver) AttemptFailed(label string, attempt, total int, redactedToken string, err error) {
	o.recorder.Record(context.Background(), audit.Entry{
		Model:  label,
		Prompt: fmt.Sprintf("attempt %d/%d with credential %s failed", attempt, total, redactedToken),
		Status: audit.StatusError,
		Error:  err.Error(),
	})
}

func (o *auditObserver) Exhausted(label string, attempts int, lastErr error) {
	entry := audit.Entry{
		Model:  label,
		Prompt: fmt.Sprintf("all %d credentials failed", attempts),
		Status: audit.StatusError,
	}
	if lastErr != nil {
		entry.Error = lastErr.Error()
	}
	o.recorder.Record(context.Background(), entry)
}

func (o *auditObserver) CredentialsRefreshed(label string, count int, err error) {
	entry := audit.Entry{Model: label}
	switch {
	case err != nil:
		entry.Prompt = "credential refresh failed"
		entry.Status = audit.StatusError
		entry.Error = err.Error()
	case count == 0:
		entry.Prompt = "credential refresh returned no credentials"
		entry.Status = audit.StatusError
	default:
		entry.Prompt = fmt.Sprintf("refreshed %d credentials", count)
		entry.Status = audit.StatusSuccess
	}
	o.recorder.Record(context.Background(), entry)
}
