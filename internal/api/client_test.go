package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskdeck/internal/model"
)

func TestLoginDecodesTokenAndUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		if body["email"] != "dana@example.com" {
			t.Fatalf("unexpected email %q", body["email"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "jwt-123",
			"user":  map[string]string{"id": "u1", "name": "Dana", "email": "dana@example.com", "role": "Employee"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Login(context.Background(), "dana@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token != "jwt-123" {
		t.Fatalf("unexpected token %q", result.Token)
	}
	if result.User.Role != model.RoleEmployee {
		t.Fatalf("unexpected role %q", result.User.Role)
	}
}

func TestLoginRejectsMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]string{"id": "u1", "name": "Dana", "role": "Employee"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Login(context.Background(), "a@b.c", "x"); err == nil {
		t.Fatalf("expected error for response without token")
	}
}

func TestAuthenticatedCallSendsBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-123" {
			t.Fatalf("unexpected Authorization header %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "1", "title": "Ship it", "status": "To Do", "priority": "High", "assignerId": "m1", "assignees": []any{}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("jwt-123")
	tasks, err := client.Tasks(context.Background())
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != model.StatusToDo {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestNoTokenNeverSendsRequest(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Tasks(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if hit {
		t.Fatalf("request must not reach the server without a token")
	}
}

func TestErrorCarriesDetailMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"detail": "not your department"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("jwt-123")
	_, err := client.DepartmentUsers(context.Background(), "d1")
	if err == nil {
		t.Fatalf("expected error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if apiErr.Message != "not your department" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestErrorFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("jwt-123")
	_, err := client.AttendanceStatus(context.Background())

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestTasksRejectsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "", "title": "orphan", "status": "To Do"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("jwt-123")
	if _, err := client.Tasks(context.Background()); err == nil {
		t.Fatalf("expected validation error for task without id")
	}
}

func TestUpdateTaskStatusPatchesStatusOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/tasks/42" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode patch body: %v", err)
		}
		if len(body) != 1 || body["status"] != "Done" {
			t.Fatalf("expected status-only patch, got %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "42", "title": "x", "status": "Done"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("jwt-123")
	task, err := client.UpdateTaskStatus(context.Background(), "42", model.StatusDone)
	if err != nil {
		t.Fatalf("update task status: %v", err)
	}
	if task.Status != model.StatusDone {
		t.Fatalf("unexpected status %q", task.Status)
	}
}

func TestTaskLogsLenientTimestamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Zone-less timestamps, as the backend emits them.
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "l1", "description": "review", "date": "2026-03-10", "startTime": "2026-03-10T09:00:00", "durationMinutes": 90},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("jwt-123")
	logs, err := client.TaskLogs(context.Background(), "u1")
	if err != nil {
		t.Fatalf("task logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if logs[0].StartTime == nil || logs[0].StartTime.Hour() != 9 {
		t.Fatalf("expected start time parsed, got %+v", logs[0].StartTime)
	}
}
