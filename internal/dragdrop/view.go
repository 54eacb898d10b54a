// Package dragdrop turns drag gestures into reorders or transitions against a
// per-actor view of the board.
//
// The controller evaluates permission locally before any call leaves the
// process and only changes the view after the store confirms the write, so a
// denied or failed drop leaves the pre-drag arrangement intact.
package dragdrop

import (
	"slices"

	"pricingboard/internal/board"
)

// View is an actor's local copy of the board, ordered per stage.
type View struct {
	columns map[board.Stage][]*board.Task
}

// NewView groups tasks by stage in position order. Duplicate ids are
// reconciled with board.Reconcile first.
func NewView(tasks []*board.Task) *View {
	v := &View{}
	v.Refresh(tasks)
	return v
}

// Refresh replaces the view's contents.
func (v *View) Refresh(tasks []*board.Task) {
	v.columns = make(map[board.Stage][]*board.Task)
	for _, task := range board.Reconcile(tasks) {
		v.columns[task.Status] = append(v.columns[task.Status], task)
	}
	for stage := range v.columns {
		slices.SortStableFunc(v.columns[stage], func(a, b *board.Task) int {
			return a.Position - b.Position
		})
	}
}

// Column returns the ordered tasks in stage.
func (v *View) Column(stage board.Stage) []*board.Task {
	return slices.Clone(v.columns[stage])
}

// IDs returns the ordered task ids in stage.
func (v *View) IDs(stage board.Stage) []string {
	col := v.columns[stage]
	out := make([]string, len(col))
	for i, task := range col {
		out[i] = task.ID
	}
	return out
}

// Find locates a task by id.
func (v *View) Find(id string) (*board.Task, int, bool) {
	for _, col := range v.columns {
		for i, task := range col {
			if task.ID == id {
				return task, i, true
			}
		}
	}
	return nil, -1, false
}

func (v *View) remove(id string) {
	for stage, col := range v.columns {
		col = slices.DeleteFunc(col, func(t *board.Task) bool { return t.ID == id })
		for i, t := range col {
			t.Position = i
		}
		v.columns[stage] = col
	}
}

func (v *View) place(task *board.Task, index int) {
	v.remove(task.ID)
	col := v.columns[task.Status]
	if index < 0 || index > len(col) {
		index = len(col)
	}
	col = slices.Insert(col, index, task)
	for i, t := range col {
		t.Position = i
	}
	v.columns[task.Status] = col
}
