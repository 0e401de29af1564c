package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/taskboard/internal/ir"
)

// NativeColumns lists the tasks columns that native board columns may name.
var NativeColumns = []string{"title", "status", "priority", "assignee_id", "due_date", "estimate", "done", "tags"}

// Task is a row to insert into tasks. Fields maps native column names to
// values; absent names are stored as NULL.
type Task struct {
	ID     int64
	Fields map[string]ir.Value
}

// CreateUser inserts a user. Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) CreateUser(ctx context.Context, id int64, name, role string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, role) VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name, role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CreateLabel inserts a label. Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) CreateLabel(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name)
	if err != nil {
		return fmt.Errorf("create label: %w", err)
	}
	return nil
}

// CreateTask inserts a task with its native fields.
// Field names must be in NativeColumns.
func (s *Store) CreateTask(ctx context.Context, task Task) error {
	names := make([]string, 0, len(task.Fields))
	for name := range task.Fields {
		if !slices.Contains(NativeColumns, name) {
			return fmt.Errorf("create task %d: unknown native column %q", task.ID, name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	cols := append([]string{"id"}, names...)
	args := []any{task.ID}
	for _, name := range names {
		param, err := nativeParam(task.Fields[name])
		if err != nil {
			return fmt.Errorf("create task %d: %s: %w", task.ID, name, err)
		}
		args = append(args, param)
	}

	query := fmt.Sprintf("INSERT INTO tasks (%s) VALUES (%s)",
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create task %d: %w", task.ID, err)
	}
	return nil
}

// AddTaskLabel links a label to a task in the native relationship.
func (s *Store) AddTaskLabel(ctx context.Context, taskID, labelID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_labels (task_id, label_id) VALUES (?, ?)
		ON CONFLICT(task_id, label_id) DO NOTHING
	`, taskID, labelID)
	if err != nil {
		return fmt.Errorf("add task label: %w", err)
	}
	return nil
}

// SaveColumns upserts board column descriptors.
func (s *Store) SaveColumns(ctx context.Context, cols []ir.Column) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save columns: %w", err)
	}
	defer tx.Rollback()

	for _, col := range cols {
		opts, err := marshalOptions(col.Options)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO columns (id, name, type, storage, field, required, options)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, type = excluded.type, storage = excluded.storage,
				field = excluded.field, required = excluded.required, options = excluded.options
		`, col.ID, col.Name, string(col.Type), string(col.Storage), col.Field, col.Required, opts)
		if err != nil {
			return fmt.Errorf("save column %q: %w", col.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save columns: %w", err)
	}
	return nil
}

// SetFieldValue upserts one EAV value.
func (s *Store) SetFieldValue(ctx context.Context, fv ir.FieldValue) error {
	value, err := marshalFieldValue(fv.Value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO field_values (task_id, column_id, value) VALUES (?, ?, ?)
		ON CONFLICT(task_id, column_id) DO UPDATE SET value = excluded.value
	`, fv.TaskID, fv.ColumnID, value)
	if err != nil {
		return fmt.Errorf("set field value (task %d, column %d): %w", fv.TaskID, fv.ColumnID, err)
	}
	return nil
}

// SaveFilter stores a named filter. Filters are deduplicated by fingerprint:
// saving the same triples again returns the existing record.
func (s *Store) SaveFilter(ctx context.Context, name string, triples []ir.Triple) (SavedFilter, error) {
	fingerprint, err := ir.Fingerprint(triples)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter: %w", err)
	}
	encoded, err := marshalTriples(triples)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_filters (id, name, triples, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, uuid.NewString(), name, encoded, fingerprint, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter: %w", err)
	}

	return s.savedFilterBy(ctx, "fingerprint", fingerprint)
}
