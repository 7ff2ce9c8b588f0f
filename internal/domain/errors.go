package domain

import "errors"

// Error kinds routed on by the pipeline. Components wrap these with
// fmt.Errorf("...: %w", ...) so callers can match with errors.Is.
var (
	// ErrRateLimited means the upstream API rejected the call for quota
	// reasons. The pipeline advances to the next credential rather than
	// retrying the same one.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized means the credential was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstream means the upstream API failed transiently.
	ErrUpstream = errors.New("upstream API failure")

	// ErrNoValidCredential means every configured credential source was
	// exhausted without a successful authentication. Fatal for the run.
	ErrNoValidCredential = errors.New("no valid credential")
)
