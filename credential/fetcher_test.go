package credential

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPFetcherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"token":"token-one","createdAt":"2026-01-01T00:00:00Z"},
			{"token":"token-two","createdAt":"2026-01-02T00:00:00Z"}
		]`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL)
	creds, err := fetcher.FetchCredentials(context.Background())
	if err != nil {
		t.Fatalf("FetchCredentials failed: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("got %d credentials, want 2", len(creds))
	}
	if creds[0].Token != "token-one" || creds[1].Token != "token-two" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if creds[0].CreatedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("CreatedAt = %q, want the reported timestamp", creds[0].CreatedAt)
	}
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL)
	_, err := fetcher.FetchCredentials(context.Background())
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error should mention the status code: %v", err)
	}
}

func TestHTTPFetcherMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL)
	_, err := fetcher.FetchCredentials(context.Background())
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("error should mention decoding: %v", err)
	}
}

func TestHTTPFetcherSendsConfiguredHeaders(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Session-Token")
		w.Write([]byte(`[{"token":"t","createdAt":"now"}]`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, WithFetchHeader("X-Session-Token", "session-123"))
	if _, err := fetcher.FetchCredentials(context.Background()); err != nil {
		t.Fatalf("FetchCredentials failed: %v", err)
	}
	if gotAuth != "session-123" {
		t.Errorf("X-Session-Token = %q, want %q", gotAuth, "session-123")
	}
}
