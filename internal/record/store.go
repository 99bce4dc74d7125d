// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/asset-registrar/pkg/types"
)

const tableArticles = "articles"

// ErrNotFound is returned by Get for an unknown UUID.
var ErrNotFound = errors.New("article record not found")

// Summary is the listing view of a stored record.
type Summary struct {
	UUID       string
	PID        string
	Bucket     string
	Registered int
	Failed     int
	Pending    int
	Errors     int
	Updated    time.Time
}

// Store is the SQLite article document store.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at cfg.Path and its schema.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			uuid TEXT PRIMARY KEY,
			pid TEXT,
			journal TEXT,
			bucket TEXT NOT NULL,
			registered INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			pending INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0,
			document TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_bucket ON articles(bucket)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_journal ON articles(journal)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Upsert writes rec, replacing any record with the same UUID.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	if rec.UUID == "" {
		return fmt.Errorf("upsert record %s: empty uuid", rec.Bucket)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.UUID, err)
	}

	query, args, err := sq.Insert(tableArticles).
		Columns("uuid", "pid", "journal", "bucket", "registered", "failed", "pending", "errors", "document", "updated_at").
		Values(rec.UUID, rec.PID, rec.Journal, rec.Bucket, rec.Registered, rec.Failed, rec.Pending,
			len(rec.Errors), string(doc), rec.Updated.UTC().Format(time.RFC3339Nano)).
		Suffix(`ON CONFLICT(uuid) DO UPDATE SET
			pid = excluded.pid,
			journal = excluded.journal,
			bucket = excluded.bucket,
			registered = excluded.registered,
			failed = excluded.failed,
			pending = excluded.pending,
			errors = excluded.errors,
			document = excluded.document,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record %s: %w", rec.UUID, err)
	}
	return nil
}

// Get returns the record of uuid, or ErrNotFound.
func (s *Store) Get(ctx context.Context, uuid string) (Record, error) {
	query, args, err := sq.Select("document").From(tableArticles).Where(sq.Eq{"uuid": uuid}).ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("building select: %w", err)
	}

	var doc string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, uuid)
		}
		return Record{}, fmt.Errorf("querying record %s: %w", uuid, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return Record{}, fmt.Errorf("decoding record %s: %w", uuid, err)
	}
	return rec, nil
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Journal string

	// WithErrors keeps only records whose last pass recorded errors.
	WithErrors bool
}

// List returns record summaries, most recently updated first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	q := sq.Select("uuid", "pid", "bucket", "registered", "failed", "pending", "errors", "updated_at").
		From(tableArticles).
		OrderBy("updated_at DESC", "uuid")
	if filter.Journal != "" {
		q = q.Where(sq.Eq{"journal": filter.Journal})
	}
	if filter.WithErrors {
		q = q.Where(sq.Gt{"errors": 0})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			pid     sql.NullString
			updated string
		)
		if err := rows.Scan(&sum.UUID, &pid, &sum.Bucket, &sum.Registered, &sum.Failed,
			&sum.Pending, &sum.Errors, &updated); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		sum.PID = pid.String
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			sum.Updated = t
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return out, nil
}
