package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DateFormat is the calendar date layout used for due dates.
const DateFormat = "2006-01-02"

// Attachment is a task file the caller is allowed to see.
type Attachment struct {
	Folder   string `json:"folder"`
	Name     string `json:"name"`
	FilePath string `json:"filePath"`
	URL      string `json:"url,omitempty"`
}

// Task describes a task in a transport-friendly format.
type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	CreatedBy      string       `json:"createdBy"`
	CreatedAt      string       `json:"createdAt,omitempty"`
	DueDate        string       `json:"dueDate,omitempty"`
	Status         string       `json:"status"`
	Link           string       `json:"link,omitempty"`
	Position       int          `json:"position"`
	StageEnteredAt string       `json:"stageEnteredAt,omitempty"`
	UpdatedAt      string       `json:"updatedAt,omitempty"`
	Attachments    []Attachment `json:"attachments"`
}

// Column is one board stage with its ordered tasks.
type Column struct {
	Stage string `json:"stage"`
	Label string `json:"label"`
	Tasks []Task `json:"tasks"`
}

// BoardResponse is the payload of GET /api/board.
type BoardResponse struct {
	Columns []Column `json:"columns"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task Task `json:"task"`
}

// TaskListResponse wraps a collection of tasks.
type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}

// MoveRequest is the body of POST /api/tasks/{id}/move.
type MoveRequest struct {
	ToStage string `json:"toStage"`
	Index   int    `json:"index"`
}

// MoveResponse reports a drag/drop outcome.
type MoveResponse struct {
	Outcome string `json:"outcome"`
	Task    *Task  `json:"task,omitempty"`
}

// TransitionResponse reports a manual archive or restore.
type TransitionResponse struct {
	Outcome string `json:"outcome"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Task    *Task  `json:"task,omitempty"`
}

// EditResponse reports a committed edit.
type EditResponse struct {
	Task       *Task        `json:"task,omitempty"`
	Stale      bool         `json:"stale"`
	Unreleased []Attachment `json:"unreleased,omitempty"`
}

// RemoveResponse reports a removal.
type RemoveResponse struct {
	Outcome    string       `json:"outcome"`
	Unreleased []Attachment `json:"unreleased,omitempty"`
}

// SweepFailure is one task the archive sweep could not move.
type SweepFailure struct {
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

// SweepReport summarizes an archive sweep.
type SweepReport struct {
	Candidates int            `json:"candidates"`
	Archived   int            `json:"archived"`
	Stale      int            `json:"stale"`
	Failed     []SweepFailure `json:"failed,omitempty"`
}

// User describes a registered user.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	RoleLabel   string `json:"roleLabel"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// UserListResponse wraps a collection of users.
type UserListResponse struct {
	Users []User `json:"users"`
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// RegisterResponse returns the new user and its session token.
type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// AssignRoleRequest is the body of POST /api/users/{id}/role.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

// JobStatus reports a background job.
type JobStatus struct {
	Name      string `json:"name"`
	Interval  string `json:"interval"`
	Scheduled bool   `json:"scheduled"`
	Runs      int    `json:"runs"`
	Failures  int    `json:"failures"`
	LastRun   string `json:"lastRun,omitempty"`
	LastTook  string `json:"lastTook,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// WorkflowStatus summarizes background job execution.
type WorkflowStatus struct {
	Running bool        `json:"running"`
	Jobs    []JobStatus `json:"jobs"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	Counts       map[string]int `json:"counts"`
	Workflow     WorkflowStatus `json:"workflow"`
	Checks       []CheckResult  `json:"checks,omitempty"`
	Identity     *User          `json:"identity,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
