package board

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const taskColumns = "id, title, created_by, created_at, due_date, status, attachments_json, link, position, stage_entered_at, updated_at"

const userColumns = "id, display_name, email, role, created_at"

type scanner interface{ Scan(dest ...any) error }

func scanTask(row scanner) (*Task, error) {
	var (
		id             string
		title          string
		createdBy      string
		createdRaw     string
		dueRaw         sql.NullString
		status         string
		attachmentsRaw string
		link           sql.NullString
		position       int
		enteredRaw     string
		updatedRaw     string
	)
	if err := row.Scan(
		&id,
		&title,
		&createdBy,
		&createdRaw,
		&dueRaw,
		&status,
		&attachmentsRaw,
		&link,
		&position,
		&enteredRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:        id,
		Title:     title,
		CreatedBy: createdBy,
		Status:    Stage(status),
		Link:      link.String,
		Position:  position,
	}
	if err := decodeAttachments(attachmentsRaw, &task.Attachments); err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		task.CreatedAt = created
	}
	if entered, err := parseTimeString(enteredRaw); err == nil {
		task.StageEnteredAt = entered
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		task.UpdatedAt = updated
	}
	if dueRaw.Valid {
		if due, err := parseTimeString(dueRaw.String); err == nil {
			task.DueDate = &due
		}
	}
	return task, nil
}

func scanUser(row scanner) (*User, error) {
	var (
		user       User
		email      sql.NullString
		createdRaw string
	)
	if err := row.Scan(&user.ID, &user.DisplayName, &email, &user.Role, &createdRaw); err != nil {
		return nil, err
	}
	user.Email = email.String
	if created, err := parseTimeString(createdRaw); err == nil {
		user.CreatedAt = created
	}
	return &user, nil
}

func encodeAttachments(attachments []Attachment) (string, error) {
	if attachments == nil {
		attachments = []Attachment{}
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return "", fmt.Errorf("encode attachments: %w", err)
	}
	return string(data), nil
}

func decodeAttachments(raw string, dst *[]Attachment) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode attachments: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
