package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"pricingboard/internal/api"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client calls the daemon API on behalf of one session token.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New returns a client for the daemon at baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		base:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// BaseURL turns an API bind address into a URL.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if strings.HasPrefix(bind, "http://") || strings.HasPrefix(bind, "https://") {
		return bind
	}
	return "http://" + bind
}

// WaitReady polls the status endpoint until the daemon answers or ctx ends.
// Any HTTP response, including 401, counts as ready.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = timeout
	return backoff.Retry(func() error {
		err := c.do(ctx, http.MethodGet, "/api/status", nil, "", nil)
		var apiErr *APIError
		if err == nil || errors.As(err, &apiErr) {
			return nil
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// Status returns daemon status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.getJSON(ctx, "/api/status", &out)
	return out, err
}

// Board returns the board columns sorted by key and order.
func (c *Client) Board(ctx context.Context, key, order string) (api.BoardResponse, error) {
	q := url.Values{}
	if key != "" {
		q.Set("sort", key)
	}
	if order != "" {
		q.Set("order", order)
	}
	path := "/api/board"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out api.BoardResponse
	err := c.getJSON(ctx, path, &out)
	return out, err
}

// Archived returns archived tasks.
func (c *Client) Archived(ctx context.Context) ([]api.Task, error) {
	var out api.TaskListResponse
	err := c.getJSON(ctx, "/api/archive", &out)
	return out.Tasks, err
}

// Task returns one task.
func (c *Client) Task(ctx context.Context, id string) (api.Task, error) {
	var out api.TaskResponse
	err := c.getJSON(ctx, "/api/tasks/"+url.PathEscape(id), &out)
	return out.Task, err
}

// CreateRequest describes a new task. FilePath is uploaded as the first attachment.
type CreateRequest struct {
	Title    string
	DueDate  string
	FilePath string
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req CreateRequest) (api.Task, error) {
	fields := map[string][]string{"title": {req.Title}}
	if req.DueDate != "" {
		fields["dueDate"] = []string{req.DueDate}
	}
	body, contentType, err := multipartBody(fields, req.FilePath)
	if err != nil {
		return api.Task{}, err
	}
	var out api.TaskResponse
	err = c.do(ctx, http.MethodPost, "/api/tasks", body, contentType, &out)
	return out.Task, err
}

// EditRequest describes an edit. Nil fields are left unchanged.
type EditRequest struct {
	Title    *string
	DueDate  *string
	Link     *string
	Remove   []string
	FilePath string
}

// EditTask commits an edit.
func (c *Client) EditTask(ctx context.Context, id string, req EditRequest) (api.EditResponse, error) {
	fields := map[string][]string{}
	if req.Title != nil {
		fields["title"] = []string{*req.Title}
	}
	if req.DueDate != nil {
		fields["dueDate"] = []string{*req.DueDate}
	}
	if req.Link != nil {
		fields["link"] = []string{*req.Link}
	}
	if len(req.Remove) > 0 {
		fields["remove[]"] = req.Remove
	}
	body, contentType, err := multipartBody(fields, req.FilePath)
	if err != nil {
		return api.EditResponse{}, err
	}
	var out api.EditResponse
	err = c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/edit", body, contentType, &out)
	return out, err
}

// Move drops a task onto stage at index. A move within the current stage reorders.
func (c *Client) Move(ctx context.Context, id, stage string, index int) (api.MoveResponse, error) {
	var out api.MoveResponse
	err := c.postJSON(ctx, "/api/tasks/"+url.PathEscape(id)+"/move", api.MoveRequest{ToStage: stage, Index: index}, &out)
	return out, err
}

// Remove deletes a task. confirmed must be true for the daemon to act.
func (c *Client) Remove(ctx context.Context, id string, confirmed bool) (api.RemoveResponse, error) {
	path := "/api/tasks/" + url.PathEscape(id)
	if confirmed {
		path += "?confirm=true"
	}
	var out api.RemoveResponse
	err := c.do(ctx, http.MethodDelete, path, nil, "", &out)
	return out, err
}

// ArchiveTask moves a done task into the archive.
func (c *Client) ArchiveTask(ctx context.Context, id string) (api.TransitionResponse, error) {
	var out api.TransitionResponse
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/archive", nil, "", &out)
	return out, err
}

// RestoreTask moves an archived task back to done.
func (c *Client) RestoreTask(ctx context.Context, id string) (api.TransitionResponse, error) {
	var out api.TransitionResponse
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/unarchive", nil, "", &out)
	return out, err
}

// Sweep runs the archive sweep now.
func (c *Client) Sweep(ctx context.Context) (api.SweepReport, error) {
	var out api.SweepReport
	err := c.do(ctx, http.MethodPost, "/api/archive/sweep", nil, "", &out)
	return out, err
}

// Register creates a user. No token is required.
func (c *Client) Register(ctx context.Context, displayName, email string) (api.RegisterResponse, error) {
	var out api.RegisterResponse
	err := c.postJSON(ctx, "/api/register", api.RegisterRequest{DisplayName: displayName, Email: email}, &out)
	return out, err
}

// Users lists registered users.
func (c *Client) Users(ctx context.Context) ([]api.User, error) {
	var out api.UserListResponse
	err := c.getJSON(ctx, "/api/users", &out)
	return out.Users, err
}

// AssignRole sets a user's role.
func (c *Client) AssignRole(ctx context.Context, userID, role string) (api.User, error) {
	var out api.User
	err := c.postJSON(ctx, "/api/users/"+url.PathEscape(userID)+"/role", api.AssignRoleRequest{Role: role}, &out)
	return out, err
}

// RemoveUser deletes a user.
func (c *Client) RemoveUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(userID), nil, "", nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload api.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// multipartBody buffers fields and an optional file into a form body.
func multipartBody(fields map[string][]string, filePath string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				return nil, "", err
			}
		}
	}
	if filePath = strings.TrimSpace(filePath); filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, "", fmt.Errorf("open attachment: %w", err)
		}
		defer f.Close()
		part, err := mw.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("read attachment: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
