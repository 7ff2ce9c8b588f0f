package domain

import (
	"context"
	"time"
)

// SearchClient executes one windowed, paginated search against the upstream
// API and resolves the authors appearing in the result.
type SearchClient interface {
	// SearchRecent pages through posts matching query within [start, end)
	// until the API reports no more pages or limit results have
	// accumulated. An empty window yields an empty batch, not an error.
	// Rate-limit, authorization, and upstream failures are reported as
	// errors matching ErrRateLimited, ErrUnauthorized, and ErrUpstream.
	SearchRecent(ctx context.Context, query string, start, end time.Time, limit int) (*Batch, error)
}

// SearchFactory builds a SearchClient authenticated with the given bearer
// token. The pipeline constructs a fresh client per credential attempt.
type SearchFactory func(token string) SearchClient

// Credential is a bearer token resolved from one configured source.
type Credential struct {
	Token string

	// Source identifies where the token came from, for logging only.
	Source string
}

// CredentialSelector yields credentials in priority order. Implementations
// probe each source and skip the ones that fail to authenticate.
type CredentialSelector interface {
	// Next returns the next credential that authenticates successfully,
	// or ErrNoValidCredential when every source is exhausted.
	Next(ctx context.Context) (Credential, error)
}

// RecordStore is the destination analytical table.
type RecordStore interface {
	// RecentIDs returns the identifiers of the most recently created rows,
	// bounded to limit. It is a recent-window filter for deduplication,
	// not a full-history check.
	RecentIDs(ctx context.Context, limit int) (map[string]struct{}, error)

	// Append writes the rows to the table and blocks until the write is
	// acknowledged. Rows are only ever added.
	Append(ctx context.Context, records []CanonicalRecord) error
}
