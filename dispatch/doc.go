// Package dispatch sends authenticated requests to the generation API,
// rotating through the session's bearer credentials until one succeeds.
//
// A Dispatcher resolves its candidate credentials through a
// CredentialSource, then tries each in order: build the request, send it,
// parse the response. The first attempt that yields a 2xx status with a
// JSON body wins and its result is returned immediately. Any failure,
// whether transport, HTTP status, or body parsing, moves rotation to the
// next credential with no delay between attempts. When every candidate
// fails, the error of the final attempt is returned unchanged.
//
// Key behavior:
//   - First success wins; remaining credentials are never tried
//   - No backoff, no per-credential retry, no reordering
//   - An empty candidate list fails before any network activity
//   - Callers may pin a single credential, disabling rotation for that call
//   - Every attempt, refresh, and exhausted rotation is observable and
//     recorded to the audit trail with tokens redacted
//
// Example usage:
//
//	resolver := credential.NewResolver(credential.NewSessionStore(),
//	    credential.NewHTTPFetcher("https://platform.api.keyfall.dev/v1/credentials"))
//
//	d := dispatch.New(resolver,
//	    dispatch.WithAuditRecorder(audit.NewRecorder(sink)),
//	)
//
//	result, err := d.Dispatch(ctx, endpoint, payload, "generate.story")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(result.Raw))
package dispatch
