package credential

import (
	"context"
	"log"
)

// Resolution is the outcome of resolving the candidate list for one
// dispatch call. Credentials holds the ordered list to try, which may be
// empty. Refreshed reports whether a remote lookup ran during this
// resolution, and RefreshErr carries the lookup failure when one occurred.
type Resolution struct {
	Credentials []Credential
	Refreshed   bool
	RefreshErr  error
}

// Resolver produces the candidate credential list for a dispatch call:
// a pinned token when the caller supplies one, the cached session list when
// the store holds one, and a fresh lookup otherwise.
//
// Resolve never returns an error. A failed lookup yields an empty
// resolution carrying the failure, and the dispatcher turns an empty
// resolution into its own terminal error.
type Resolver struct {
	store   Store
	fetcher Fetcher
	logger  *log.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for cache and lookup diagnostics.
func WithLogger(logger *log.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over the given store and fetcher. Either
// may be nil: a nil store always misses, and a nil fetcher means no remote
// lookup is possible.
func NewResolver(store Store, fetcher Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, fetcher: fetcher}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve determines the candidate list for one call. A non-empty pinned
// token short-circuits both the store and the fetcher, so pinned calls
// never touch shared session state.
func (r *Resolver) Resolve(ctx context.Context, pinned string) Resolution {
	if pinned != "" {
		return Resolution{Credentials: []Credential{Pinned(pinned)}}
	}
	if r.store != nil {
		if creds, ok := r.store.Get(ctx); ok {
			return Resolution{Credentials: creds}
		}
	}
	return r.refresh(ctx)
}

// refresh performs the remote lookup and caches any non-empty result. Cache
// write failures are logged and swallowed: the fetched list is still good
// for this call.
func (r *Resolver) refresh(ctx context.Context) Resolution {
	if r.fetcher == nil {
		return Resolution{}
	}
	creds, err := r.fetcher.FetchCredentials(ctx)
	if err != nil {
		r.logf("credential refresh failed: %v", err)
		return Resolution{Refreshed: true, RefreshErr: err}
	}
	if len(creds) == 0 {
		r.logf("credential refresh returned an empty list")
		return Resolution{Refreshed: true}
	}
	if r.store != nil {
		if err := r.store.Put(ctx, creds); err != nil {
			r.logf("failed to cache refreshed credentials: %v", err)
		}
	}
	r.logf("refreshed %d credentials", len(creds))
	return Resolution{Credentials: creds, Refreshed: true}
}

func (r *Resolver) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
