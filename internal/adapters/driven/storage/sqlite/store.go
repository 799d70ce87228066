package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/cardiomind/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/cardiomind/internal/core/domain"
	"github.com/custodia-labs/cardiomind/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store archives finished diagnostic sessions in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a session archive at the specified data directory.
// If dataDir is empty, defaults to ~/.cardiomind/data/sessions.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".cardiomind", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sessions.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

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

// Archive persists a finished session, report included. Archiving the same
// session ID twice replaces the earlier row.
func (s *Store) Archive(ctx context.Context, session *domain.DiagnosticSession) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}

	patientJSON, err := json.Marshal(session.Case)
	if err != nil {
		return fmt.Errorf("marshalling case: %w", err)
	}
	resultsJSON, err := json.Marshal(session.Results)
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}

	var reportJSON sql.NullString
	if session.Report != nil {
		b, err := json.Marshal(session.Report)
		if err != nil {
			return fmt.Errorf("marshalling report: %w", err)
		}
		reportJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, state, patient, results, report, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			patient = excluded.patient,
			results = excluded.results,
			report = excluded.report,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, session.ID, string(session.State), string(patientJSON), string(resultsJSON),
		reportJSON, session.StartedAt.UTC(), session.FinishedAt.UTC())

	if err != nil {
		return fmt.Errorf("archiving session: %w", err)
	}
	return nil
}

// Get retrieves an archived session by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.DiagnosticSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, state, patient, results, report, started_at, finished_at
		FROM sessions WHERE id = ?
	`, id)

	var session domain.DiagnosticSession
	var state, patientJSON, resultsJSON string
	var reportJSON sql.NullString
	if err := row.Scan(&session.ID, &state, &patientJSON, &resultsJSON,
		&reportJSON, &session.StartedAt, &session.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.State = domain.Stage(state)
	if err := json.Unmarshal([]byte(patientJSON), &session.Case); err != nil {
		return nil, fmt.Errorf("unmarshaling case: %w", err)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &session.Results); err != nil {
		return nil, fmt.Errorf("unmarshaling results: %w", err)
	}
	if reportJSON.Valid {
		var report domain.DiagnosisReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, fmt.Errorf("unmarshaling report: %w", err)
		}
		session.Report = &report
	}

	return &session, nil
}

// List returns archived session IDs, most recent first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM sessions ORDER BY finished_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return ids, nil
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
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
