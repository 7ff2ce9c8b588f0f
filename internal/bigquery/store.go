package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/byroncevallos1986/repo-xtwitter/internal/domain"
)

// createdLayout serializes Created for the DATETIME column: naive-local,
// no zone annotation.
const createdLayout = "2006-01-02 15:04:05"

// schema is the explicit destination schema. It is always passed to the
// load job so nothing is inferred from the in-memory rows.
var schema = bq.Schema{
	{Name: "Id", Type: bq.StringFieldType, Required: true},
	{Name: "Text", Type: bq.StringFieldType},
	{Name: "Author", Type: bq.StringFieldType},
	{Name: "Retweet", Type: bq.IntegerFieldType},
	{Name: "Reply", Type: bq.IntegerFieldType},
	{Name: "Likes", Type: bq.IntegerFieldType},
	{Name: "Quote", Type: bq.IntegerFieldType},
	{Name: "Bookmark", Type: bq.IntegerFieldType},
	{Name: "Impression", Type: bq.IntegerFieldType},
	{Name: "Created", Type: bq.DateTimeFieldType},
}

// row is the newline-delimited JSON shape handed to the load job.
type row struct {
	ID         string `json:"Id"`
	Text       string `json:"Text"`
	Author     string `json:"Author"`
	Retweet    int    `json:"Retweet"`
	Reply      int    `json:"Reply"`
	Likes      int    `json:"Likes"`
	Quote      int    `json:"Quote"`
	Bookmark   int    `json:"Bookmark"`
	Impression *int   `json:"Impression,omitempty"`
	Created    string `json:"Created"`
}

// Store implements domain.RecordStore on a single BigQuery table. Reads are
// bounded projections of the identifier column; writes are append-only load
// jobs. No updates, deletes, or transactions are ever issued.
type Store struct {
	client  *bq.Client
	dataset string
	table   string
}

// NewStore connects to BigQuery for the table identified by tableRef, a
// fully-qualified "project.dataset.table" name. Credentials come from the
// ambient environment (GOOGLE_APPLICATION_CREDENTIALS).
func NewStore(ctx context.Context, tableRef string) (*Store, error) {
	project, dataset, table, err := splitTableRef(tableRef)
	if err != nil {
		return nil, err
	}

	client, err := bq.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}

	return &Store{client: client, dataset: dataset, table: table}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// RecentIDs returns the identifiers of the most recently created rows,
// bounded to limit.
func (s *Store) RecentIDs(ctx context.Context, limit int) (map[string]struct{}, error) {
	q := s.client.Query(fmt.Sprintf(
		"SELECT Id FROM `%s.%s.%s` ORDER BY Created DESC LIMIT @limit",
		s.client.Project(), s.dataset, s.table,
	))
	q.Parameters = []bq.QueryParameter{{Name: "limit", Value: limit}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query recent ids: %w", err)
	}

	ids := make(map[string]struct{})
	for {
		var vals []bq.Value
		err := it.Next(&vals)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate recent ids: %w", err)
		}
		if id, ok := vals[0].(string); ok {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// Append bulk-loads the records with WRITE_APPEND disposition and blocks
// until the job completes. The load either lands whole or the job reports an
// error and nothing is considered loaded.
func (s *Store) Append(ctx context.Context, records []domain.CanonicalRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(row{
			ID:         r.ID,
			Text:       r.Text,
			Author:     r.Author,
			Retweet:    r.Retweet,
			Reply:      r.Reply,
			Likes:      r.Likes,
			Quote:      r.Quote,
			Bookmark:   r.Bookmark,
			Impression: r.Impression,
			Created:    r.Created.Format(createdLayout),
		}); err != nil {
			return fmt.Errorf("encode record %s: %w", r.ID, err)
		}
	}

	source := bq.NewReaderSource(&buf)
	source.SourceFormat = bq.JSON
	source.Schema = schema

	loader := s.client.Dataset(s.dataset).Table(s.table).LoaderFrom(source)
	loader.WriteDisposition = bq.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("start load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("await load job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("load job failed: %w", err)
	}
	return nil
}

// Count returns the total number of rows in the table. Used by the secrets
// validation command as a read-only connectivity check.
func (s *Store) Count(ctx context.Context) (int64, error) {
	q := s.client.Query(fmt.Sprintf(
		"SELECT COUNT(*) FROM `%s.%s.%s`",
		s.client.Project(), s.dataset, s.table,
	))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}

	var vals []bq.Value
	if err := it.Next(&vals); err != nil {
		return 0, fmt.Errorf("read count: %w", err)
	}
	count, ok := vals[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", vals[0])
	}
	return count, nil
}

func splitTableRef(ref string) (project, dataset, table string, err error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("table reference %q must be project.dataset.table", ref)
	}
	return parts[0], parts[1], parts[2], nil
}
