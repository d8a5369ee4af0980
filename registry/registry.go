// Package registry provides SQLite-backed persistence for compiled
// rules and the diagnostics collected while compiling them.
package registry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/smpl-xyz/go-smpl/patch"
	"github.com/smpl-xyz/go-smpl/smpl"
)

// Store handles SQLite database operations for rule records.
type Store struct {
	db *sql.DB
}

// Record is a persisted rule: the source it was compiled from, the
// rendered formula, and any diagnostics raised during compilation.
type Record struct {
	ID        uuid.UUID
	Name      string
	Source    string
	Formula   string
	CreatedAt time.Time
	Problems  []patch.Problem
}

// Open creates a Store at the given database path. Use ":memory:" for
// an in-memory store.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("registry: open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: migrate: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		formula TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rule_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		line INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (rule_id) REFERENCES rules(id)
	);

	CREATE INDEX IF NOT EXISTS idx_problems_rule ON problems(rule_id);
	CREATE INDEX IF NOT EXISTS idx_rules_name ON rules(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Put stores a compiled rule and its diagnostics. Storing a rule with
// an ID that already exists replaces the previous record.
func (s *Store) Put(rule *smpl.Rule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("registry: put: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO rules (id, name, source, formula, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rule.ID.String(), rule.Name, rule.Source, rule.Formula.String(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("registry: put rule: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM problems WHERE rule_id = ?`, rule.ID.String()); err != nil {
		return fmt.Errorf("registry: put problems: %w", err)
	}
	for _, p := range rule.Problems {
		_, err := tx.Exec(
			`INSERT INTO problems (rule_id, severity, message, line) VALUES (?, ?, ?, ?)`,
			rule.ID.String(), p.Severity.String(), p.Message, p.Line,
		)
		if err != nil {
			return fmt.Errorf("registry: put problems: %w", err)
		}
	}

	return tx.Commit()
}

// Get retrieves a rule record by ID.
func (s *Store) Get(id uuid.UUID) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT id, name, source, formula, created_at FROM rules WHERE id = ?`,
		id.String(),
	)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}

	rec.Problems, err = s.problemsFor(id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns all rule records ordered by creation time, newest
// first. Problems are not loaded; use Get for a full record.
func (s *Store) List() ([]*Record, error) {
	rows, err := s.db.Query(
		`SELECT id, name, source, formula, created_at
		 FROM rules ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a rule record and its diagnostics.
func (s *Store) Delete(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("registry: delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM problems WHERE rule_id = ?`, id.String()); err != nil {
		return fmt.Errorf("registry: delete problems: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM rules WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("registry: delete rule: %w", err)
	}
	return tx.Commit()
}

func (s *Store) problemsFor(id uuid.UUID) ([]patch.Problem, error) {
	rows, err := s.db.Query(
		`SELECT severity, message, line FROM problems WHERE rule_id = ? ORDER BY id`,
		id.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []patch.Problem
	for rows.Next() {
		var p patch.Problem
		var severity string
		if err := rows.Scan(&severity, &p.Message, &p.Line); err != nil {
			return nil, err
		}
		if severity == patch.SeverityError.String() {
			p.Severity = patch.SeverityError
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var id string
	if err := row.Scan(&id, &rec.Name, &rec.Source, &rec.Formula, &rec.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("registry: bad rule id %q: %w", id, err)
	}
	rec.ID = parsed
	return &rec, nil
}
