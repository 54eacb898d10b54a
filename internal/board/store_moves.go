package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
)

// MoveTask moves a task from one stage to another with a single conditional
// update, placing it at index within the destination (negative or past the end
// appends). A task that is absent returns ErrNotFound; a task found in any
// stage other than from returns ErrStageChanged and nothing is written.
func (s *Store) MoveTask(ctx context.Context, id string, from, to Stage, index int) (*Task, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("invalid stage %q", to)
	}
	now := formatTime(s.now())
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE tasks SET status = ?, position = -1, stage_entered_at = ?, updated_at = ?
             WHERE id = ? AND status = ?`,
			to, now, now, id, from,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return classifyMiss(ctx, tx, id, from)
		}
		order, err := stageOrder(ctx, tx, to, id)
		if err != nil {
			return err
		}
		if err := writeOrder(ctx, tx, insertAt(order.ids, id, index), order.positions); err != nil {
			return err
		}
		return compactStage(ctx, tx, from)
	})
	if err != nil {
		return nil, fmt.Errorf("move task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// Reorder moves a task to index within its current stage. Only positions change.
func (s *Store) Reorder(ctx context.Context, id string, stage Stage, index int) (*Task, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if Stage(status) != stage {
			return fmt.Errorf("task %s is in %s: %w", id, status, ErrStageChanged)
		}
		order, err := stageOrder(ctx, tx, stage, id)
		if err != nil {
			return err
		}
		return writeOrder(ctx, tx, insertAt(order.ids, id, index), order.positions)
	})
	if err != nil {
		return nil, fmt.Errorf("reorder task: %w", err)
	}
	return s.GetTask(ctx, id)
}

func classifyMiss(ctx context.Context, tx *sql.Tx, id string, expected Stage) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("task %s expected in %s, found in %s: %w", id, expected, status, ErrStageChanged)
}

type ordering struct {
	ids       []string
	positions map[string]int
}

// stageOrder loads the current ordering of stage, leaving out exclude.
func stageOrder(ctx context.Context, tx *sql.Tx, stage Stage, exclude string) (ordering, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, position FROM tasks WHERE status = ? ORDER BY position ASC, id ASC`, stage)
	if err != nil {
		return ordering{}, err
	}
	defer rows.Close()

	out := ordering{positions: make(map[string]int)}
	for rows.Next() {
		var (
			id       string
			position int
		)
		if err := rows.Scan(&id, &position); err != nil {
			return ordering{}, err
		}
		out.positions[id] = position
		if id != exclude {
			out.ids = append(out.ids, id)
		}
	}
	return out, rows.Err()
}

func insertAt(ids []string, id string, index int) []string {
	if index < 0 || index > len(ids) {
		index = len(ids)
	}
	return slices.Insert(slices.Clone(ids), index, id)
}

// writeOrder rewrites positions so they match ids, touching only rows whose position shifted.
func writeOrder(ctx context.Context, tx *sql.Tx, ids []string, current map[string]int) error {
	for i, id := range ids {
		if pos, ok := current[id]; ok && pos == i {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET position = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("write position for %s: %w", id, err)
		}
	}
	return nil
}

func compactStage(ctx context.Context, tx *sql.Tx, stage Stage) error {
	order, err := stageOrder(ctx, tx, stage, "")
	if err != nil {
		return err
	}
	return writeOrder(ctx, tx, order.ids, order.positions)
}
