package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	// Shared-cache memory DB so every pooled connection sees the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	store, err := Open("sqlite", dsn, "mentions")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func intPtr(n int) *int { return &n }

func record(id string, created time.Time) domain.CanonicalRecord {
	return domain.CanonicalRecord{
		ID:      id,
		Text:    "mention " + id,
		Author:  "alice",
		Likes:   1,
		Created: created.In(domain.Guayaquil),
	}
}

func TestRecentIDsEmptyTable(t *testing.T) {
	store := openTestStore(t)

	ids, err := store.RecentIDs(context.Background(), 500)
	if err != nil {
		t.Fatalf("RecentIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("got %d ids, want 0", len(ids))
	}
}

func TestAppendAndRecentIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	records := []domain.CanonicalRecord{
		record("old", base),
		record("mid", base.Add(time.Hour)),
		record("new", base.Add(2*time.Hour)),
	}
	if err := store.Append(ctx, records); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	ids, err := store.RecentIDs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentIDs() error = %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}

	// The bound keeps only the most recently created rows.
	ids, err = store.RecentIDs(ctx, 2)
	if err != nil {
		t.Fatalf("RecentIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	if _, ok := ids["old"]; ok {
		t.Error("bounded window should have aged out the oldest row")
	}
	for _, want := range []string{"mid", "new"} {
		if _, ok := ids[want]; !ok {
			t.Errorf("missing id %q", want)
		}
	}
}

func TestAppendStoresNaiveTimestamps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 20, 14, 30, 45, 0, time.UTC)
	if err := store.Append(ctx, []domain.CanonicalRecord{record("1", created)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	var stored string
	err := store.db.QueryRowContext(ctx, `SELECT created FROM mentions WHERE id = $1`, "1").Scan(&stored)
	if err != nil {
		t.Fatalf("read back created: %v", err)
	}
	if stored != "2026-08-20 09:30:45" {
		t.Errorf("stored created = %q, want the naive UTC-5 wall clock", stored)
	}
}

func TestAppendImpressionNull(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	reported := record("reported", now)
	reported.Impression = intPtr(99)
	unreported := record("unreported", now)

	if err := store.Append(ctx, []domain.CanonicalRecord{reported, unreported}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	var imp sql.NullInt64
	if err := store.db.QueryRowContext(ctx, `SELECT impression FROM mentions WHERE id = $1`, "reported").Scan(&imp); err != nil {
		t.Fatal(err)
	}
	if !imp.Valid || imp.Int64 != 99 {
		t.Errorf("reported impression = %+v, want 99", imp)
	}

	if err := store.db.QueryRowContext(ctx, `SELECT impression FROM mentions WHERE id = $1`, "unreported").Scan(&imp); err != nil {
		t.Fatal(err)
	}
	if imp.Valid {
		t.Errorf("unreported impression = %d, want NULL", imp.Int64)
	}
}

func TestCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	if err := store.Append(ctx, []domain.CanonicalRecord{record("1", now), record("2", now)}); err != nil {
		t.Fatal(err)
	}

	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
