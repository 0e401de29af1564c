package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/taskboard/internal/ir"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SavedFilter is a named, persisted list of filter triples.
type SavedFilter struct {
	ID          string
	Name        string
	Triples     []ir.Triple
	Fingerprint string
	CreatedAt   time.Time
}

// UserExists reports whether a user with id exists.
func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM users WHERE id = ?", id)
}

// LabelExists reports whether a label with id exists.
func (s *Store) LabelExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM labels WHERE id = ?", id)
}

func (s *Store) exists(ctx context.Context, query string, id int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// UsersWithRole returns the ids of users holding role, ordered by id.
// Returns an empty slice (not nil) when nobody holds it.
func (s *Store) UsersWithRole(ctx context.Context, role string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE role = ? ORDER BY id ASC`, role)
	if err != nil {
		return nil, fmt.Errorf("query users with role: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return ids, nil
}

// Columns returns the stored board columns ordered by id.
func (s *Store) Columns(ctx context.Context) ([]ir.Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, storage, field, required, options
		FROM columns
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	cols := []ir.Column{}
	for rows.Next() {
		var (
			col              ir.Column
			typ, storage, op string
		)
		if err := rows.Scan(&col.ID, &col.Name, &typ, &storage, &col.Field, &col.Required, &op); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.Type = ir.SemanticType(typ)
		col.Storage = ir.StorageMode(storage)
		if col.Options, err = unmarshalOptions(op); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

// FieldValue reads one EAV value. Returns ErrNotFound if the task has no
// value for the column.
func (s *Store) FieldValue(ctx context.Context, taskID, columnID int64) (ir.Value, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM field_values WHERE task_id = ? AND column_id = ?
	`, taskID, columnID).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("field value (task %d, column %d): %w", taskID, columnID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read field value: %w", err)
	}
	return unmarshalFieldValue(text)
}

// TaskIDs runs a compiled task query and returns the id column of each row,
// in result order. The query must select the tasks table's columns.
func (s *Store) TaskIDs(ctx context.Context, query string, params []any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	idIndex := -1
	for i, name := range names {
		if name == "id" {
			idIndex = i
			break
		}
	}
	if idIndex < 0 {
		return nil, fmt.Errorf("query tasks: result has no id column")
	}

	ids := []int64{}
	dest := make([]any, len(names))
	for rows.Next() {
		var id int64
		for i := range dest {
			if i == idIndex {
				dest[i] = &id
			} else {
				dest[i] = new(any)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return ids, nil
}

// SavedFilter returns a saved filter by id. Returns ErrNotFound if absent.
func (s *Store) SavedFilter(ctx context.Context, id string) (SavedFilter, error) {
	return s.savedFilterBy(ctx, "id", id)
}

// SavedFilters lists saved filters ordered by name, then id.
func (s *Store) SavedFilters(ctx context.Context) ([]SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, triples, fingerprint, created_at
		FROM saved_filters
		ORDER BY name ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query saved filters: %w", err)
	}
	defer rows.Close()

	filters := []SavedFilter{}
	for rows.Next() {
		f, err := scanSavedFilter(rows)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved filters: %w", err)
	}
	return filters, nil
}

// savedFilterBy looks a saved filter up by a unique column (id or
// fingerprint; never caller-supplied).
func (s *Store) savedFilterBy(ctx context.Context, column, value string) (SavedFilter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, triples, fingerprint, created_at
		FROM saved_filters
		WHERE `+column+` = ?
	`, value)
	f, err := scanSavedFilter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedFilter{}, fmt.Errorf("saved filter %s: %w", value, ErrNotFound)
	}
	return f, err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedFilter(row rowScanner) (SavedFilter, error) {
	var (
		f                  SavedFilter
		triples, createdAt string
	)
	if err := row.Scan(&f.ID, &f.Name, &triples, &f.Fingerprint, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, err
		}
		return f, fmt.Errorf("scan saved filter: %w", err)
	}

	var err error
	if f.Triples, err = unmarshalTriples(triples); err != nil {
		return f, err
	}
	if f.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return f, fmt.Errorf("parse created_at: %w", err)
	}
	return f, nil
}
