package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mversen/keyfall/internal/version"
)

// HTTPSink forwards entries to the platform's traffic-log endpoint. Writes
// are fire-and-forget: Record hands the entry to a background goroutine and
// returns immediately, so a slow or unreachable endpoint never stalls the
// dispatch path. Close waits for in-flight writes to drain.
type HTTPSink struct {
	url    string
	client *http.Client
	logger *log.Logger

	wg sync.WaitGroup
}

// HTTPSinkOption configures an HTTPSink.
type HTTPSinkOption func(*HTTPSink)

// WithHTTPSinkClient overrides the HTTP client used for writes.
func WithHTTPSinkClient(client *http.Client) HTTPSinkOption {
	return func(s *HTTPSink) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHTTPSinkLogger sets the logger that reports failed writes.
func WithHTTPSinkLogger(logger *log.Logger) HTTPSinkOption {
	return func(s *HTTPSink) {
		s.logger = logger
	}
}

// NewHTTPSink creates a sink posting entries to the given URL.
func NewHTTPSink(url string, opts ...HTTPSinkOption) *HTTPSink {
	s := &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record serializes the entry and posts it in the background. It always
// returns nil; delivery failures are logged, never surfaced.
func (s *HTTPSink) Record(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.post(body); err != nil && s.logger != nil {
			s.logger.Printf("audit write failed: %v", err)
		}
	}()
	return nil
}

// post runs on its own context so a canceled dispatch still gets its final
// entries delivered.
func (s *HTTPSink) post(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("audit endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Close waits for pending writes to finish.
func (s *HTTPSink) Close() error {
	s.wg.Wait()
	return nil
}
