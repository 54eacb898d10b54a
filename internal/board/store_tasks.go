package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateTask inserts task at the end of its stage. ID, timestamps, and
// position are assigned by the store; the stored task is returned.
func (s *Store) CreateTask(ctx context.Context, task *Task) (*Task, error) {
	if task == nil {
		return nil, errors.New("task is nil")
	}
	if !task.Status.Valid() {
		return nil, fmt.Errorf("invalid stage %q", task.Status)
	}
	id := task.ID
	if id == "" {
		id = uuid.NewString()
	}
	attachments, err := encodeAttachments(task.Attachments)
	if err != nil {
		return nil, err
	}
	now := formatTime(s.now())
	created := now
	if !task.CreatedAt.IsZero() {
		created = formatTime(task.CreatedAt)
	}

	err = s.withRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO tasks (
                id, title, created_by, created_at, due_date, status,
                attachments_json, link, position, stage_entered_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?,
                (SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE status = ?), ?, ?)`,
			id,
			task.Title,
			task.CreatedBy,
			created,
			nullableTime(task.DueDate),
			task.Status,
			attachments,
			nullableString(task.Link),
			task.Status,
			now,
			now,
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask fetches a task by identifier. Missing tasks return ErrNotFound.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks in the requested stages (all stages when none are given)
// ordered by the requested sort, then by position.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if len(opts.Stages) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(opts.Stages)) + `)`
		for _, stage := range opts.Stages {
			args = append(args, stage)
		}
	}
	query += ` ORDER BY ` + orderClause(opts.Sort)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return Reconcile(tasks), nil
}

// ListStage returns the tasks in one stage in position order.
func (s *Store) ListStage(ctx context.Context, stage Stage) ([]*Task, error) {
	return s.List(ctx, ListOptions{Stages: []Stage{stage}})
}

func orderClause(sort Sort) string {
	column, ok := sortColumns[sort.Key]
	if !ok {
		column = sortColumns[SortPosition]
	}
	direction := "ASC"
	if sort.Order == OrderDesc {
		direction = "DESC"
	}
	var b strings.Builder
	if sort.Key == SortDueDate {
		// Tasks without a due date sort last in both directions.
		b.WriteString("due_date IS NULL, ")
	}
	b.WriteString(column)
	b.WriteByte(' ')
	b.WriteString(direction)
	b.WriteString(", position ASC, id ASC")
	return b.String()
}

// UpdateTask persists the editable fields of task: title, due date, link, and
// attachments. Stage and position change only through MoveTask and Reorder.
func (s *Store) UpdateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	attachments, err := encodeAttachments(task.Attachments)
	if err != nil {
		return err
	}
	now := s.now()
	var affected int64
	err = s.withRetry(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			`UPDATE tasks
             SET title = ?, due_date = ?, link = ?, attachments_json = ?, updated_at = ?
             WHERE id = ?`,
			task.Title,
			nullableTime(task.DueDate),
			nullableString(task.Link),
			attachments,
			formatTime(now),
			task.ID,
		)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}
	task.UpdatedAt = now
	return nil
}

// DeleteTask removes a task record and compacts its stage's positions. It
// reports whether a record was removed; deleting an absent task is not an error.
func (s *Store) DeleteTask(ctx context.Context, id string) (bool, error) {
	removed := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		removed = false
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return err
		}
		removed = true
		return compactStage(ctx, tx, Stage(status))
	})
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return removed, nil
}

// ReferencedLocations returns every blob location referenced by any task.
func (s *Store) ReferencedLocations(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT attachments_json FROM tasks`)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var attachments []Attachment
		if err := decodeAttachments(raw, &attachments); err != nil {
			return nil, err
		}
		for _, a := range attachments {
			refs[a.FilePath] = struct{}{}
		}
	}
	return refs, rows.Err()
}

// Count returns the number of tasks per stage.
func (s *Store) Count(ctx context.Context) (map[Stage]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[Stage]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[Stage(status)] = count
	}
	return counts, rows.Err()
}
