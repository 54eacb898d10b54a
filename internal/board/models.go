package board

import (
	"fmt"
	"strings"
	"time"
)

// Stage is a pipeline state a task occupies.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageFiltering Stage = "filtering"
	StagePricing   Stage = "pricing"
	StageDone      Stage = "done"
	StageArchive   Stage = "archive"
)

var allStages = []Stage{
	StageRaw,
	StageFiltering,
	StagePricing,
	StageDone,
	StageArchive,
}

var stageOrdinal = func() map[Stage]int {
	m := make(map[Stage]int, len(allStages))
	for i, stage := range allStages {
		m[stage] = i
	}
	return m
}()

// AllStages returns every stage in pipeline order.
func AllStages() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}

// BoardStages returns the stages shown as board columns. The archive is listed separately.
func BoardStages() []Stage {
	return AllStages()[:4]
}

// ParseStage converts a raw string into a Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := stageOrdinal[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageOrdinal[s]
	return ok
}

// Ordinal returns the stage's pipeline position, or -1 for unknown stages.
func (s Stage) Ordinal() int {
	if i, ok := stageOrdinal[s]; ok {
		return i
	}
	return -1
}

// Label renders the stage as a column heading.
func (s Stage) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Attachment references a file in the blob store. Folder records the stage the
// file was contributed under and is never rewritten when the task moves.
type Attachment struct {
	Folder   Stage  `json:"folder"`
	FilePath string `json:"filePath"`
	Name     string `json:"name,omitempty"`
}

// Task is the unit of work moving through the pipeline.
type Task struct {
	ID             string
	Title          string
	CreatedBy      string
	CreatedAt      time.Time
	DueDate        *time.Time
	Status         Stage
	Attachments    []Attachment
	Link           string
	Position       int
	StageEnteredAt time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.DueDate != nil {
		due := *t.DueDate
		cp.DueDate = &due
	}
	cp.Attachments = append([]Attachment(nil), t.Attachments...)
	return &cp
}

// Locations returns the blob locations referenced by the task's attachments.
func (t *Task) Locations() []string {
	out := make([]string, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		out = append(out, a.FilePath)
	}
	return out
}

// ArchiveDue reports whether a done task has aged past retention. The due
// date is the reference point; tasks without one use the time they entered done.
func (t *Task) ArchiveDue(now time.Time, retention time.Duration) bool {
	if t.Status != StageDone {
		return false
	}
	ref := t.StageEnteredAt
	if t.DueDate != nil {
		ref = *t.DueDate
	}
	if ref.IsZero() {
		return false
	}
	return !ref.After(now.Add(-retention))
}

// User is a registered board user. Role is stored raw; an empty value means unassigned.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Role        string
	CreatedAt   time.Time
}

// SortKey names a board ordering.
type SortKey string

const (
	SortPosition  SortKey = "position"
	SortTitle     SortKey = "title"
	SortCreatedBy SortKey = "createdBy"
	SortCreatedAt SortKey = "createdAt"
	SortDueDate   SortKey = "dueDate"
)

// SortOrder is the direction of a board ordering.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Sort selects the ordering within each stage.
type Sort struct {
	Key   SortKey
	Order SortOrder
}

var sortColumns = map[SortKey]string{
	SortPosition:  "position",
	SortTitle:     "title COLLATE NOCASE",
	SortCreatedBy: "created_by COLLATE NOCASE",
	SortCreatedAt: "created_at",
	SortDueDate:   "due_date",
}

// ParseSort validates user supplied sort parameters. Empty values select position ascending.
func ParseSort(key, order string) (Sort, error) {
	s := Sort{Key: SortPosition, Order: OrderAsc}
	if k := strings.TrimSpace(key); k != "" {
		matched := false
		for candidate := range sortColumns {
			if strings.EqualFold(string(candidate), k) {
				s.Key = candidate
				matched = true
				break
			}
		}
		if !matched {
			return Sort{}, fmt.Errorf("unsupported sort key %q", key)
		}
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "asc":
	case "desc":
		s.Order = OrderDesc
	default:
		return Sort{}, fmt.Errorf("unsupported sort order %q", order)
	}
	return s, nil
}

// ListOptions filters and orders a task listing.
type ListOptions struct {
	Stages []Stage
	Sort   Sort
}

// Reconcile removes duplicate task ids from a listing, keeping the copy that
// entered its stage most recently. Ordering of first appearance is preserved.
func Reconcile(tasks []*Task) []*Task {
	index := make(map[string]int, len(tasks))
	out := make([]*Task, 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		if i, seen := index[task.ID]; seen {
			if newer(task, out[i]) {
				out[i] = task
			}
			continue
		}
		index[task.ID] = len(out)
		out = append(out, task)
	}
	return out
}

func newer(a, b *Task) bool {
	if !a.StageEnteredAt.Equal(b.StageEnteredAt) {
		return a.StageEnteredAt.After(b.StageEnteredAt)
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}
