// Package snapshot persists the last successfully fetched server state to a
// local sqlite file. The TUI reads it once at startup so views render
// before the first fetch lands, and the web board serves it read-only.
// Each slice is replaced wholesale, mirroring the view cache semantics.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"taskdeck/internal/model"
)

const (
	nameTasks      = "tasks"
	nameTaskLogs   = "task_logs"
	nameAttendance = "attendance"
)

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) SaveTasks(ctx context.Context, tasks []model.Task) error {
	return s.save(ctx, nameTasks, tasks)
}

func (s *Store) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := s.load(ctx, nameTasks, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) SaveTaskLogs(ctx context.Context, logs []model.TaskLog) error {
	return s.save(ctx, nameTaskLogs, logs)
}

func (s *Store) TaskLogs(ctx context.Context) ([]model.TaskLog, error) {
	var logs []model.TaskLog
	if err := s.load(ctx, nameTaskLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) SaveAttendance(ctx context.Context, status model.AttendanceStatus) error {
	return s.save(ctx, nameAttendance, status)
}

// Attendance returns nil when no snapshot has been taken yet.
func (s *Store) Attendance(ctx context.Context) (*model.AttendanceStatus, error) {
	var status *model.AttendanceStatus
	if err := s.load(ctx, nameAttendance, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// Clear drops all snapshots; called on logout.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", name, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO snapshots (name, payload, saved_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		name, string(payload))
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", name, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, name string, target any) error {
	var payload string
	err := s.DB.QueryRowContext(ctx, "SELECT payload FROM snapshots WHERE name = ?", name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s snapshot: %w", name, err)
	}

	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", name, err)
	}
	return nil
}
