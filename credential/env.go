package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Environment variables the EnvFetcher reads, in priority order.
const (
	// EnvCredentials holds a JSON array of credentials, the same shape the
	// lookup service returns.
	EnvCredentials = "KEYFALL_CREDENTIALS"
	// EnvTokens holds a comma-separated list of bare tokens for quick
	// local setups.
	EnvTokens = "KEYFALL_TOKENS"
)

// EnvFetcher sources credentials from the process environment instead of
// the lookup service. It backs air-gapped and local development sessions
// where no platform is reachable.
type EnvFetcher struct{}

// NewEnvFetcher returns a fetcher reading KEYFALL_CREDENTIALS or
// KEYFALL_TOKENS.
func NewEnvFetcher() *EnvFetcher {
	return &EnvFetcher{}
}

// Configured reports whether either environment variable is set.
func (f *EnvFetcher) Configured() bool {
	return os.Getenv(EnvCredentials) != "" || os.Getenv(EnvTokens) != ""
}

func (f *EnvFetcher) FetchCredentials(ctx context.Context) ([]Credential, error) {
	if raw := os.Getenv(EnvCredentials); raw != "" {
		var creds []Credential
		if err := json.Unmarshal([]byte(raw), &creds); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", EnvCredentials, err)
		}
		return creds, nil
	}

	if raw := os.Getenv(EnvTokens); raw != "" {
		var creds []Credential
		for _, token := range strings.Split(raw, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			creds = append(creds, Pinned(token))
		}
		return creds, nil
	}

	return nil, nil
}
