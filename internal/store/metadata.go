package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements MetadataStore on a SQLite database.
// Pure Go driver (modernc.org/sqlite), so no CGO.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// NewSQLiteStore opens (or creates) the metadata database at path.
// Pass ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create metadata directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open metadata database: %w", err)
	}

	// Single writer: SQLite handles one write connection best, and it
	// sidesteps lock contention entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores some DSN params; set pragmas explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize metadata schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id           TEXT PRIMARY KEY,
		source       TEXT NOT NULL,
		title        TEXT NOT NULL,
		chunk_id     INTEGER NOT NULL,
		total_chunks INTEGER NOT NULL,
		text         TEXT NOT NULL,
		created_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);

	CREATE TABLE IF NOT EXISTS state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveChunks upserts chunks in a single transaction.
func (s *SQLiteStore) SaveChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("metadata store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, source, title, chunk_id, total_chunks, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.Source, c.Title, c.ChunkID, c.TotalChunks, c.Text,
			c.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("save chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// GetChunk returns the chunk with the given ID, or sql.ErrNoRows.
func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, title, chunk_id, total_chunks, text, created_at
		FROM chunks WHERE id = ?`, id)
	return scanChunk(row)
}

// GetChunks retrieves multiple chunks in one query. Missing IDs are
// silently absent from the result; order follows the input IDs.
func (s *SQLiteStore) GetChunks(ctx context.Context, ids []string) ([]*Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, source, title, chunk_id, total_chunks, text, created_at
		FROM chunks WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*Chunk, len(ids))
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	out := make([]*Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ChunkIDsBySource returns the IDs of all chunks from a source document,
// ordered by position.
func (s *SQLiteStore) ChunkIDsBySource(ctx context.Context, source string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("metadata store is closed")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM chunks WHERE source = ? ORDER BY chunk_id`, source)
	if err != nil {
		return nil, fmt.Errorf("query chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteChunks removes chunks by ID.
func (s *SQLiteStore) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("metadata store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("delete chunk %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// CountChunks returns the number of stored chunks.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("metadata store is closed")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// GetState reads a state value. Returns "" for a missing key.
func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", fmt.Errorf("metadata store is closed")
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get state %s: %w", key, err)
	}
	return value, nil
}

// SetState writes a state value.
func (s *SQLiteStore) SetState(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("metadata store is closed")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO state (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

var _ MetadataStore = (*SQLiteStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (*Chunk, error) {
	var c Chunk
	var createdAt int64
	if err := row.Scan(&c.ID, &c.Source, &c.Title, &c.ChunkID,
		&c.TotalChunks, &c.Text, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}
