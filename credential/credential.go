// Package credential resolves the ordered list of bearer credentials a
// dispatch call may try. Credentials come from a session-scoped store when
// one is populated, and from the platform lookup service otherwise. The
// package never logs or prints raw token material.
package credential

// CreatedAtUnknown marks credentials whose mint time was never reported,
// such as tokens pinned by the caller.
const CreatedAtUnknown = "unknown"

// Credential is a single bearer token together with the timestamp the
// backing service minted it. CreatedAt is kept verbatim as reported by the
// lookup service and is informational only.
type Credential struct {
	Token     string `json:"token"`
	CreatedAt string `json:"createdAt"`
}

// Pinned wraps a caller-supplied token in a Credential. The mint time of a
// pinned token is not known.
func Pinned(token string) Credential {
	return Credential{Token: token, CreatedAt: CreatedAtUnknown}
}

// String renders the credential with its token redacted so that values are
// safe to log with %v.
func (c Credential) String() string {
	return Redact(c.Token)
}

// GoString keeps %#v output redacted as well.
func (c Credential) GoString() string {
	return Redact(c.Token)
}

// Redact reduces a token to a loggable identifier showing only the last
// four characters. Tokens too short to redact meaningfully are masked
// entirely.
func Redact(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "***" + token[len(token)-4:]
}
