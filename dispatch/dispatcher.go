package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mversen/keyfall/audit"
	"github.com/mversen/keyfall/credential"
	"github.com/mversen/keyfall/internal/version"
)

// CredentialSource supplies the ordered candidate list for one dispatch
// call. credential.Resolver is the standard implementation.
type CredentialSource interface {
	Resolve(ctx context.Context, pinned string) credential.Resolution
}

// HTTPDoer is the transport seam. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is a successful dispatch outcome. Data holds the decoded JSON
// body, Raw the body bytes for callers that decode into their own types,
// and Credential the candidate that succeeded.
type Result struct {
	Data       interface{}
	Raw        json.RawMessage
	Credential credential.Credential
}

// Dispatcher sends requests to the generation API, rotating through
// resolved credentials until one succeeds. It is safe for concurrent use;
// per-call state lives on the stack of each Dispatch invocation.
//
// The Dispatcher deliberately sets no timeout of its own. Cancellation and
// deadlines belong to the caller's context.
type Dispatcher struct {
	source    CredentialSource
	client    HTTPDoer
	observers []Observer
	observer  Observer
	metrics   *MetricsCollector
	logger    *log.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the transport used for attempts.
func WithHTTPClient(client HTTPDoer) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithObserver registers an observer for rotation events. May be given
// multiple times; observers fire in registration order.
func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) {
		if observer != nil {
			d.observers = append(d.observers, observer)
		}
	}
}

// WithAuditRecorder wires the audit trail: one entry per attempt, per
// refresh, and per exhausted rotation.
func WithAuditRecorder(recorder *audit.Recorder) Option {
	return func(d *Dispatcher) {
		if recorder != nil {
			d.observers = append(d.observers, NewAuditObserver(recorder))
		}
	}
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(metrics *MetricsCollector) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// WithLogger sets the diagnostic logger. Token material never reaches it.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher over the given credential source.
func New(source CredentialSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source: source,
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(d)
	}
	switch len(d.observers) {
	case 0:
		d.observer = NopObserver{}
	case 1:
		d.observer = d.observers[0]
	default:
		d.observer = MultiObserver(d.observers...)
	}
	return d
}

// CallOption adjusts a single Dispatch call.
type CallOption func(*callConfig)

type callConfig struct {
	pinned string
}

// WithCredential pins the call to the given token. The session store and
// the lookup service are not consulted, and rotation is disabled: exactly
// one attempt runs.
func WithCredential(token string) CallOption {
	return func(c *callConfig) {
		c.pinned = token
	}
}

// Dispatch sends payload to endpoint, trying each resolved credential in
// order until one attempt succeeds. label names the calling feature in
// logs and the audit trail.
//
// On success the first winning Result is returned. If resolution yields no
// credentials, Dispatch returns a NoCredentialsError without any network
// activity. If every credential fails, the error of the final attempt is
// returned as-is.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint string, payload interface{}, label string, opts ...CallOption) (*Result, error) {
	var cc callConfig
	for _, opt := range opts {
		opt(&cc)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	resolution := d.source.Resolve(ctx, cc.pinned)
	if resolution.Refreshed {
		d.observer.CredentialsRefreshed(label, len(resolution.Credentials), resolution.RefreshErr)
		d.metrics.recordRefresh(resolution.RefreshErr == nil && len(resolution.Credentials) > 0)
	}

	candidates := resolution.Credentials
	if len(candidates) == 0 {
		d.logf("dispatch %s: no credentials to try", label)
		d.metrics.recordDispatch(outcomeNoCredentials)
		return nil, &NoCredentialsError{Label: label}
	}

	var lastErr *RequestError
	for i, cand := range candidates {
		attempt, total := i+1, len(candidates)
		redacted := credential.Redact(cand.Token)

		d.observer.AttemptStarted(label, attempt, total, redacted)
		d.logf("dispatch %s: attempt %d/%d with credential %s", label, attempt, total, redacted)

		started := time.Now()
		result, attemptErr := d.attempt(ctx, endpoint, body, cand.Token)
		if attemptErr == nil {
			d.metrics.recordAttempt(true, time.Since(started))
			d.observer.AttemptSucceeded(label, attempt, total, redacted)
			d.metrics.recordDispatch(outcomeSuccess)
			result.Credential = cand
			return result, nil
		}

		d.metrics.recordAttempt(false, time.Since(started))
		d.observer.AttemptFailed(label, attempt, total, redacted, attemptErr)
		d.logf("dispatch %s: attempt %d/%d failed: %v", label, attempt, total, attemptErr)
		lastErr = attemptErr
	}

	d.observer.Exhausted(label, len(candidates), lastErr)
	d.logf("dispatch %s: all %d credentials failed", label, len(candidates))
	d.metrics.recordDispatch(outcomeExhausted)
	return nil, lastErr
}

// attempt runs one request with one credential. Every failure comes back
// as a *RequestError so the rotation loop can hand the final one to the
// caller unchanged.
func (d *Dispatcher) attempt(ctx context.Context, endpoint string, body []byte, token string) (*Result, *RequestError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(endpoint, resp.StatusCode, raw)
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Cause: fmt.Errorf("failed to parse response: %w", err)}
	}
	return &Result{Data: data, Raw: raw}, nil
}

func (d *Dispatcher) logf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}
