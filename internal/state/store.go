// Package state persists reference ledger snapshots in SQLite so that
// successive compilations can be listed and compared.
package state

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/leapgraph/internal/export"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	ID       string
	Label    string
	Version  uint16
	Created  time.Time
	Elements int
	Warnings int
	Entries  int
}

// Store is a SQLite-backed snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path. Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// New wraps an existing connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Path returns the path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) setupGoose() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Migrate runs all pending migrations.
func (s *Store) Migrate() error {
	if err := s.setupGoose(); err != nil {
		return err
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current schema version.
func (s *Store) MigrationVersion() (int64, error) {
	if err := s.setupGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(s.db)
}

// SaveSnapshot stores snap under a new id and returns it.
func (s *Store) SaveSnapshot(ctx context.Context, label string, snap *export.Snapshot) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, label, version, created_at, elements, warnings)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, label, snap.Version, snap.Created, snap.Elements, len(snap.Warnings)); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	for _, e := range snap.Entries {
		declared, err := encodeLocation(e.Declared)
		if err != nil {
			return "", err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (snapshot_id, name, kind, declared)
			VALUES (?, ?, ?, ?)
		`, id, e.Name, e.Kind, declared)
		if err != nil {
			return "", fmt.Errorf("insert entry %s: %w", e.Name, err)
		}
		entryID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("entry id for %s: %w", e.Name, err)
		}
		for i, ref := range e.References {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO ledger_references
				(entry_id, position, source_id, start_line, start_column, end_line, end_column)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, entryID, i, ref.SourceID, ref.StartLine, ref.StartColumn, ref.EndLine, ref.EndColumn); err != nil {
				return "", fmt.Errorf("insert reference for %s: %w", e.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return id, nil
}

// ListSnapshots returns stored snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.version, s.created_at, s.elements, s.warnings,
		       (SELECT COUNT(*) FROM ledger_entries e WHERE e.snapshot_id = s.id)
		FROM snapshots s
		ORDER BY s.created_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Label, &info.Version, &info.Created, &info.Elements, &info.Warnings, &info.Entries); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Entries returns the ledger entries of a snapshot ordered by name, each
// with its references in recorded order.
func (s *Store) Entries(ctx context.Context, snapshotID string) ([]export.Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.kind, e.declared,
		       r.source_id, r.start_line, r.start_column, r.end_line, r.end_column
		FROM ledger_entries e
		LEFT JOIN ledger_references r ON r.entry_id = e.id
		WHERE e.snapshot_id = ?
		ORDER BY e.name, e.kind, e.id, r.position
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		out    []export.Entry
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			id       int64
			e        export.Entry
			declared sql.NullString
			srcID    sql.NullString
			sl, sc   sql.NullInt64
			el, ec   sql.NullInt64
		)
		if err := rows.Scan(&id, &e.Name, &e.Kind, &declared, &srcID, &sl, &sc, &el, &ec); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if id != lastID {
			if e.Declared, err = decodeLocation(declared); err != nil {
				return nil, err
			}
			e.References = []source.Info{}
			out = append(out, e)
			lastID = id
		}
		if srcID.Valid {
			cur := &out[len(out)-1]
			cur.References = append(cur.References,
				source.New(srcID.String, int(sl.Int64), int(sc.Int64), int(el.Int64), int(ec.Int64)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE id = ?`, snapshotID).Scan(&n); err != nil {
			return nil, fmt.Errorf("query snapshot: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("snapshot %q not found", snapshotID)
		}
		return []export.Entry{}, nil
	}
	return out, nil
}

// DeleteSnapshot removes a snapshot and its entries.
func (s *Store) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snapshotID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("snapshot %q not found", snapshotID)
	}
	return nil
}

func encodeLocation(loc *source.Info) (sql.NullString, error) {
	if loc == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode location: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeLocation(s sql.NullString) (*source.Info, error) {
	if !s.Valid {
		return nil, nil
	}
	var loc source.Info
	if err := json.Unmarshal([]byte(s.String), &loc); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	return &loc, nil
}
