package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS config (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tag_dictionary (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		value TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS dream_tags (
		id TEXT PRIMARY KEY,
		dream_id TEXT NOT NULL,
		tag_id TEXT NOT NULL REFERENCES tag_dictionary(id),
		weight DOUBLE PRECISION NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS dream_tags_dream_id ON dream_tags (dream_id)`,
}

// SQLStore implements Store and the tag store over database/sql.
// Queries use $n placeholders, which both sqlite and postgres accept.
type SQLStore struct {
	db     *sql.DB
	driver string
}

var _ Store = (*SQLStore)(nil)

// Open connects, pings and migrates the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an already migrated connection.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the underlying connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM config WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Store.
func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO config (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// UpsertTag returns the dictionary entry for value, creating it with
// tagType when missing.
func (s *SQLStore) UpsertTag(ctx context.Context, tagType, value string) (*Tag, error) {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO tag_dictionary (id, type, value)
		VALUES (?, ?, ?)
		ON CONFLICT (value) DO NOTHING`),
		core.NewID(), tagType, value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tag %s: %w", value, err)
	}

	t := &Tag{}
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT id, type, value FROM tag_dictionary WHERE value = ?`), value).
		Scan(&t.ID, &t.Type, &t.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag %s: %w", value, err)
	}
	return t, nil
}

// LinkTag attaches tagID to dreamID.
func (s *SQLStore) LinkTag(ctx context.Context, dreamID, tagID string, weight float64) (*DreamTag, error) {
	dt := &DreamTag{ID: core.NewID(), DreamID: dreamID, TagID: tagID, Weight: weight, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO dream_tags (id, dream_id, tag_id, weight, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		dt.ID, dt.DreamID, dt.TagID, dt.Weight, dt.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to link tag %s to dream %s: %w", tagID, dreamID, err)
	}
	return dt, nil
}

// DreamTags returns the tags linked to dreamID in link order.
func (s *SQLStore) DreamTags(ctx context.Context, dreamID string) ([]WeightedTag, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT t.id, t.type, t.value, dt.weight
		FROM dream_tags dt
		JOIN tag_dictionary t ON t.id = dt.tag_id
		WHERE dt.dream_id = ?
		ORDER BY dt.created_at, dt.id`), dreamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dream tags: %w", err)
	}
	defer rows.Close()

	var out []WeightedTag
	for rows.Next() {
		var wt WeightedTag
		if err := rows.Scan(&wt.ID, &wt.Type, &wt.Value, &wt.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan dream tag: %w", err)
		}
		out = append(out, wt)
	}
	return out, rows.Err()
}
