package domain

import "time"

// Transform canonicalizes a raw post batch into the row shape written to the
// destination table. It is pure and order-preserving: duplicate identifiers
// keep their first occurrence, authors resolve through the map with an
// "unknown" fallback, and creation timestamps move to loc (the fixed UTC-5
// zone when loc is nil).
func Transform(posts []RawPost, authors AuthorMap, loc *time.Location) []CanonicalRecord {
	if loc == nil {
		loc = Guayaquil
	}

	seen := make(map[string]struct{}, len(posts))
	records := make([]CanonicalRecord, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}

		author, ok := authors[p.AuthorID]
		if !ok || author == "" {
			author = UnknownAuthor
		}

		records = append(records, CanonicalRecord{
			ID:         p.ID,
			Text:       p.Text,
			Author:     author,
			Retweet:    p.Metrics.Retweets,
			Reply:      p.Metrics.Replies,
			Likes:      p.Metrics.Likes,
			Quote:      p.Metrics.Quotes,
			Bookmark:   p.Metrics.Bookmarks,
			Impression: p.Metrics.Impressions,
			Created:    p.CreatedAt.In(loc),
		})
	}
	return records
}

// FilterNew returns the records whose ID is not in existing, preserving
// relative order. An empty or nil set passes everything through.
func FilterNew(records []CanonicalRecord, existing map[string]struct{}) []CanonicalRecord {
	if len(existing) == 0 {
		return records
	}

	fresh := make([]CanonicalRecord, 0, len(records))
	for _, r := range records {
		if _, ok := existing[r.ID]; ok {
			continue
		}
		fresh = append(fresh, r)
	}
	return fresh
}
