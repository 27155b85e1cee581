package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/radar-trace/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/radar-trace/internal/core/domain"
	"github.com/custodia-labs/radar-trace/internal/core/ports/driven"
)

// DefaultPath is the manifest database used when none is configured.
const DefaultPath = "radar_tracing.db"

// Store is a SQLite-based run manifest store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the manifest database at dbPath.
// If dbPath is empty, defaults to radar_tracing.db in the working directory.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultPath
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ManifestStore returns a ManifestStore interface backed by this store.
func (s *Store) ManifestStore() driven.ManifestStore {
	return &manifestStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
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
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_runs.up.sql" -> 1
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

// ==================== Manifest Store ====================

// manifestStore implements driven.ManifestStore.
type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

const manifestColumns = `id, audit_file, trace_files, request_number, status, created_at, reconciled_at, report_file`

// Save stores or updates a manifest.
func (s *manifestStore) Save(ctx context.Context, m domain.RunManifest) error {
	traceFiles := m.TraceFiles
	if traceFiles == nil {
		traceFiles = []string{}
	}
	filesJSON, err := json.Marshal(traceFiles)
	if err != nil {
		return fmt.Errorf("marshalling trace files: %w", err)
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+manifestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			audit_file = excluded.audit_file,
			trace_files = excluded.trace_files,
			request_number = excluded.request_number,
			status = excluded.status,
			reconciled_at = excluded.reconciled_at,
			report_file = excluded.report_file
	`, m.ID, m.AuditFile, string(filesJSON), m.RequestNumber, string(m.Status),
		m.CreatedAt.UTC(), nullTime(m.ReconciledAt), nullString(m.ReportFile))
	if err != nil {
		return fmt.Errorf("saving run %s: %w", m.ID, err)
	}
	return nil
}

// Get retrieves a manifest by ID.
func (s *manifestStore) Get(ctx context.Context, id string) (*domain.RunManifest, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+manifestColumns+` FROM runs WHERE id = ?`, id)
	return scanManifest(row)
}

// Latest returns the newest manifest with the given status.
func (s *manifestStore) Latest(ctx context.Context, status domain.RunStatus) (*domain.RunManifest, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+manifestColumns+` FROM runs
		WHERE status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, string(status))
	return scanManifest(row)
}

// List returns all manifests, newest first.
func (s *manifestStore) List(ctx context.Context) ([]domain.RunManifest, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+manifestColumns+` FROM runs
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var result []domain.RunManifest
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanManifest(row scanner) (*domain.RunManifest, error) {
	var m domain.RunManifest
	var filesJSON, status string
	var reportFile sql.NullString
	var createdAt, reconciledAt sql.NullTime
	if err := row.Scan(&m.ID, &m.AuditFile, &filesJSON, &m.RequestNumber, &status,
		&createdAt, &reconciledAt, &reportFile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if err := json.Unmarshal([]byte(filesJSON), &m.TraceFiles); err != nil {
		return nil, fmt.Errorf("unmarshalling trace files: %w", err)
	}
	m.Status = domain.RunStatus(status)
	m.ReportFile = reportFile.String
	if createdAt.Valid {
		m.CreatedAt = createdAt.Time
	}
	if reconciledAt.Valid {
		m.ReconciledAt = reconciledAt.Time
	}
	return &m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}
