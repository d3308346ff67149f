package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ethica-ai/ethica-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IngestLedger = (*Store)(nil)

// Store is a SQLite-backed ingestion ledger. It records what was
// ingested, when, and with what outcome, so operators can inspect the
// local state without querying the vector index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified path.
// If path is empty, defaults to ~/.ethica/data/ledger.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".ethica", "data", "ledger.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Record stores or updates the ledger entry for a document.
func (s *Store) Record(ctx context.Context, rec driven.DocumentRecord) error {
	if rec.IngestedAt.IsZero() {
		rec.IngestedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingested_documents (document_id, key, filename, chunks, status, error, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			key = excluded.key,
			filename = excluded.filename,
			chunks = excluded.chunks,
			status = excluded.status,
			error = excluded.error,
			ingested_at = excluded.ingested_at
	`, rec.DocumentID, rec.Key, rec.Filename, rec.Chunks, rec.Status,
		nullString(rec.Error), rec.IngestedAt)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", rec.DocumentID, err)
	}
	return nil
}

// List returns all ledger entries ordered by key.
func (s *Store) List(ctx context.Context) ([]driven.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, key, filename, chunks, status, error, ingested_at
		FROM ingested_documents
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var records []driven.DocumentRecord
	for rows.Next() {
		var rec driven.DocumentRecord
		var errMsg sql.NullString
		var ingestedAt sql.NullTime
		if err := rows.Scan(&rec.DocumentID, &rec.Key, &rec.Filename,
			&rec.Chunks, &rec.Status, &errMsg, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		rec.Error = errMsg.String
		if ingestedAt.Valid {
			rec.IngestedAt = ingestedAt.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return records, nil
}

// Get retrieves one ledger entry by document ID.
func (s *Store) Get(ctx context.Context, documentID string) (*driven.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, key, filename, chunks, status, error, ingested_at
		FROM ingested_documents WHERE document_id = ?
	`, documentID)

	var rec driven.DocumentRecord
	var errMsg sql.NullString
	var ingestedAt sql.NullTime
	if err := row.Scan(&rec.DocumentID, &rec.Key, &rec.Filename,
		&rec.Chunks, &rec.Status, &errMsg, &ingestedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	rec.Error = errMsg.String
	if ingestedAt.Valid {
		rec.IngestedAt = ingestedAt.Time
	}
	return &rec, nil
}

// Delete removes one ledger entry.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM ingested_documents WHERE document_id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// nullString converts empty strings to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
