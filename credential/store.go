package credential

import (
	"context"
	"encoding/json"
	"sync"
)

// Store is the session-scoped cache slot for the credential list. A store
// never fails a read: any state that cannot be decoded into a non-empty
// credential list simply reads as not-found, which triggers a refresh.
type Store interface {
	// Get returns the cached credential list. ok is false when the slot is
	// empty, missing, or holds data that does not decode as a non-empty
	// credential list.
	Get(ctx context.Context) ([]Credential, bool)

	// Put replaces the cached credential list.
	Put(ctx context.Context, creds []Credential) error
}

// SessionStore keeps the credential list in process memory for the lifetime
// of the session. It is safe for concurrent use.
type SessionStore struct {
	mu  sync.RWMutex
	raw string
	set bool
}

// NewSessionStore returns an empty in-memory store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Get decodes the cached slot. Malformed or empty contents read as
// not-found rather than an error.
func (s *SessionStore) Get(ctx context.Context) ([]Credential, bool) {
	s.mu.RLock()
	raw, set := s.raw, s.set
	s.mu.RUnlock()
	if !set || raw == "" {
		return nil, false
	}
	return decodeList(raw)
}

// Put serializes the list into the slot, replacing whatever was there.
func (s *SessionStore) Put(ctx context.Context, creds []Credential) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.raw = string(data)
	s.set = true
	s.mu.Unlock()
	return nil
}

// PutRaw stores the slot contents verbatim, bypassing serialization. It
// exists so callers restoring a session from an external snapshot keep the
// store's read semantics: garbage in the slot reads as not-found.
func (s *SessionStore) PutRaw(raw string) {
	s.mu.Lock()
	s.raw = raw
	s.set = true
	s.mu.Unlock()
}

// decodeList is the single decode path shared by every store
// implementation. Each call unmarshals a fresh slice, so callers can never
// mutate cached state through a returned list.
func decodeList(raw string) ([]Credential, bool) {
	var creds []Credential
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, false
	}
	if len(creds) == 0 {
		return nil, false
	}
	return creds, true
}
