package domain

import "time"

// Guayaquil is the fixed destination zone (UTC-5). Ecuador does not observe
// daylight saving, so a fixed offset is exact year-round.
var Guayaquil = time.FixedZone("America/Guayaquil", -5*60*60)

// UnknownAuthor is stored when a post's author reference cannot be resolved.
const UnknownAuthor = "unknown"

// RawPost is a single post as returned by the search API, before
// canonicalization.
type RawPost struct {
	// ID is the platform's globally unique post identifier, kept as a
	// string to avoid precision loss.
	ID string

	// Text is the post body.
	Text string

	// AuthorID is the opaque author reference, resolved to a handle via
	// the batch AuthorMap.
	AuthorID string

	// CreatedAt is the post's creation instant in UTC.
	CreatedAt time.Time

	// Metrics holds the public engagement counters.
	Metrics Metrics
}

// Metrics holds the public engagement counters of a post. Impressions is a
// pointer because the platform sometimes does not report it at all; absence
// is meaningful and distinct from zero.
type Metrics struct {
	Retweets    int
	Replies     int
	Likes       int
	Quotes      int
	Bookmarks   int
	Impressions *int
}

// AuthorMap maps author references to display handles.
type AuthorMap map[string]string

// Batch is one windowed search result: the raw posts plus the authors
// resolved alongside them in the same round trips.
type Batch struct {
	Posts   []RawPost
	Authors AuthorMap
}

// CanonicalRecord is the row shape written to the destination table. The
// store is append-only; rows are never updated or deleted by this pipeline.
type CanonicalRecord struct {
	ID       string
	Text     string
	Author   string
	Retweet  int
	Reply    int
	Likes    int
	Quote    int
	Bookmark int

	// Impression is nil when the platform did not report the metric.
	Impression *int

	// Created is the post's creation time in the fixed UTC-5 zone. Stores
	// serialize it without a zone annotation, so all stored timestamps are
	// naive-local and directly comparable.
	Created time.Time
}
