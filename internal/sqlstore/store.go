package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
)

// createdLayout serializes Created without a zone annotation so stored
// timestamps stay naive-local.
const createdLayout = "2006-01-02 15:04:05"

// Store implements domain.RecordStore using database/sql. It backs the
// postgres and sqlite deployments; BigQuery deployments use the bigquery
// package instead.
type Store struct {
	db    *sql.DB
	table string
}

// Open connects with the given driver ("postgres" or "sqlite"), verifies the
// connection, and ensures the destination table exists with its explicit
// column schema. The caller should call Close when done.
func Open(driver, dsn, table string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, table: table}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// The table deliberately carries no uniqueness constraint on id: write-time
// dedup is the pipeline's bounded recent-ID filter, and overlapping runs are
// excluded by the deployment model.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL,
			text TEXT NOT NULL,
			author TEXT NOT NULL,
			retweet BIGINT NOT NULL,
			reply BIGINT NOT NULL,
			likes BIGINT NOT NULL,
			quote BIGINT NOT NULL,
			bookmark BIGINT NOT NULL,
			impression BIGINT,
			created TIMESTAMP NOT NULL
		)`, s.table))
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecentIDs returns the identifiers of the most recently created rows,
// bounded to limit.
func (s *Store) RecentIDs(ctx context.Context, limit int) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id FROM %s ORDER BY created DESC LIMIT $1`, s.table,
	), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent ids: %w", err)
	}
	return ids, nil
}

// Append inserts all records in a single transaction; the commit is the
// write acknowledgement. Either the whole batch lands or nothing does.
func (s *Store) Append(ctx context.Context, records []domain.CanonicalRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, text, author, retweet, reply, likes, quote, bookmark, impression, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID,
			r.Text,
			r.Author,
			r.Retweet,
			r.Reply,
			r.Likes,
			r.Quote,
			r.Bookmark,
			r.Impression,
			r.Created.Format(createdLayout),
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Count returns the total number of rows in the table. Used by the secrets
// validation command as a read-only connectivity check.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s`, s.table,
	)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return count, nil
}
