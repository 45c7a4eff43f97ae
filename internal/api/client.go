// Package api is the only component that talks to the tracker backend.
// Every call attaches the session's bearer token, raises a typed error on
// non-2xx responses, and validates decoded payloads before they reach the
// view cache.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskdeck/internal/model"
)

// ErrNoToken is returned when an authenticated endpoint is called without a
// session token. The request is never sent.
var ErrNoToken = errors.New("api: not authenticated")

// Error is a non-2xx response. Message carries the response body when the
// backend supplied one.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.StatusCode)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var result LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &result, false); err != nil {
		return LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	if result.Token == "" {
		return LoginResponse{}, fmt.Errorf("login: response missing token")
	}
	if err := result.User.Validate(); err != nil {
		return LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	return result, nil
}

func (c *Client) Profile(ctx context.Context) (model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodGet, "/user/profile", nil, &user, true); err != nil {
		return model.User{}, fmt.Errorf("profile: %w", err)
	}
	if err := user.Validate(); err != nil {
		return model.User{}, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks", nil, &tasks, true); err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("tasks: %w", err)
		}
	}
	return tasks, nil
}

type TaskInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Priority    model.TaskPriority `json:"priority"`
	DueDate     *model.Time        `json:"dueDate,omitempty"`
	AssigneeIDs []string           `json:"assigneeIds"`
}

func (c *Client) CreateTask(ctx context.Context, input TaskInput) (model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", input, &task, true); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// UpdateTaskStatus patches only the status field; the kanban move is the
// sole caller.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) (model.Task, error) {
	body := map[string]model.TaskStatus{"status": status}
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPatch, "/tasks/"+taskID, body, &task, true); err != nil {
		return model.Task{}, fmt.Errorf("update task %s: %w", taskID, err)
	}
	return task, nil
}

func (c *Client) DepartmentUsers(ctx context.Context, departmentID string) ([]model.User, error) {
	var users []model.User
	path := fmt.Sprintf("/departments/%s/users", departmentID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &users, true); err != nil {
		return nil, fmt.Errorf("department users: %w", err)
	}
	for _, user := range users {
		if err := user.Validate(); err != nil {
			return nil, fmt.Errorf("department users: %w", err)
		}
	}
	return users, nil
}

// TaskLogs returns the given user's logs in server order (newest first).
func (c *Client) TaskLogs(ctx context.Context, userID string) ([]model.TaskLog, error) {
	var logs []model.TaskLog
	if err := c.doJSON(ctx, http.MethodGet, "/task-logs/"+userID, nil, &logs, true); err != nil {
		return nil, fmt.Errorf("task logs: %w", err)
	}
	for _, log := range logs {
		if err := log.Validate(); err != nil {
			return nil, fmt.Errorf("task logs: %w", err)
		}
	}
	return logs, nil
}

type TaskLogInput struct {
	Description     string      `json:"description"`
	Date            model.Date  `json:"date"`
	StartTime       *model.Time `json:"startTime,omitempty"`
	EndTime         *model.Time `json:"endTime,omitempty"`
	DurationMinutes int         `json:"durationMinutes,omitempty"`
}

func (c *Client) CreateTaskLog(ctx context.Context, input TaskLogInput) (model.TaskLog, error) {
	var log model.TaskLog
	if err := c.doJSON(ctx, http.MethodPost, "/task-logs", input, &log, true); err != nil {
		return model.TaskLog{}, fmt.Errorf("create task log: %w", err)
	}
	return log, nil
}

func (c *Client) AttendanceStatus(ctx context.Context) (model.AttendanceStatus, error) {
	var status model.AttendanceStatus
	if err := c.doJSON(ctx, http.MethodGet, "/attendance/status", nil, &status, true); err != nil {
		return model.AttendanceStatus{}, fmt.Errorf("attendance status: %w", err)
	}
	return status, nil
}

func (c *Client) CheckIn(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/attendance/checkin", nil, nil, true); err != nil {
		return fmt.Errorf("check in: %w", err)
	}
	return nil
}

func (c *Client) CheckOut(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/attendance/checkout", nil, nil, true); err != nil {
		return fmt.Errorf("check out: %w", err)
	}
	return nil
}

func (c *Client) WFHRequests(ctx context.Context) ([]model.WFHRequest, error) {
	var requests []model.WFHRequest
	if err := c.doJSON(ctx, http.MethodGet, "/wfh", nil, &requests, true); err != nil {
		return nil, fmt.Errorf("wfh requests: %w", err)
	}
	return requests, nil
}

func (c *Client) Approvals(ctx context.Context) ([]model.Approval, error) {
	var approvals []model.Approval
	if err := c.doJSON(ctx, http.MethodGet, "/approvals", nil, &approvals, true); err != nil {
		return nil, fmt.Errorf("approvals: %w", err)
	}
	return approvals, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any, needAuth bool) error {
	token := c.Token()
	if needAuth && token == "" {
		return ErrNoToken
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error response:
// the FastAPI-style {"detail": ...} field when present, the raw body
// otherwise, the status text as a last resort.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return http.StatusText(resp.StatusCode)
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return trimmed
}
