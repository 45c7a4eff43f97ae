package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleEmployee   Role = "Employee"
	RoleHOD        Role = "HOD"
	RoleSuperAdmin Role = "Super Admin"
)

func (r Role) Known() bool {
	switch r {
	case RoleEmployee, RoleHOD, RoleSuperAdmin:
		return true
	}
	return false
}

// Manager reports whether the role can view other department members' data.
func (r Role) Manager() bool {
	return r == RoleHOD || r == RoleSuperAdmin
}

// CanAssignTasks reports whether the role may create tasks and use the
// assigned-by-me filter.
func (r Role) CanAssignTasks() bool {
	return r == RoleHOD || r == RoleSuperAdmin
}

type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

func (s TaskStatus) Known() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

type WFHStatus string

const (
	WFHPending  WFHStatus = "Pending"
	WFHApproved WFHStatus = "Approved"
	WFHRejected WFHStatus = "Rejected"
)

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Department   string `json:"department,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user payload missing id")
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user %s missing name", u.ID)
	}
	if !u.Role.Known() {
		return fmt.Errorf("user %s has unknown role %q", u.ID, u.Role)
	}
	return nil
}

type TaskAssignee struct {
	AssigneeID   string `json:"assigneeId"`
	AssigneeName string `json:"assigneeName"`
}

type Task struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      TaskStatus     `json:"status"`
	Priority    TaskPriority   `json:"priority"`
	DueDate     *Time          `json:"dueDate,omitempty"`
	AssignerID  string         `json:"assignerId"`
	Assignees   []TaskAssignee `json:"assignees"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
}

// Validate rejects structurally broken payloads. An unrecognized status is
// not an error here: the task stays in the cache and the kanban board counts
// it as unclassified.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task payload missing id")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task %s missing title", t.ID)
	}
	return nil
}

// AssignedTo reports whether userID appears in the task's assignee list.
func (t Task) AssignedTo(userID string) bool {
	for _, a := range t.Assignees {
		if a.AssigneeID == userID {
			return true
		}
	}
	return false
}

// OverdueAt reports whether the task is past due and not done, evaluated
// against the supplied wall clock.
func (t Task) OverdueAt(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now) && t.Status != StatusDone
}

type TaskLog struct {
	ID              string `json:"id"`
	Description     string `json:"description"`
	Date            Date   `json:"date"`
	StartTime       *Time  `json:"startTime,omitempty"`
	EndTime         *Time  `json:"endTime,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	UserID          string `json:"userId,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

func (l TaskLog) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("task log payload missing id")
	}
	if strings.TrimSpace(l.Description) == "" {
		return fmt.Errorf("task log %s missing description", l.ID)
	}
	if l.Date.IsZero() {
		return fmt.Errorf("task log %s missing date", l.ID)
	}
	return nil
}

// AttendanceStatus is the last-fetched snapshot of today's check-in state;
// the authoritative copy lives server-side.
type AttendanceStatus struct {
	IsCheckedIn bool   `json:"isCheckedIn"`
	CheckIn     string `json:"checkIn,omitempty"`
	CheckOut    string `json:"checkOut,omitempty"`
}

type WFHRequest struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	StartDate Date      `json:"startDate"`
	EndDate   Date      `json:"endDate"`
	Status    WFHStatus `json:"status"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt string    `json:"createdAt,omitempty"`
}

// Approval is rendered as-is; the backend endpoint is still a placeholder.
type Approval struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	RequestedBy string `json:"requestedBy,omitempty"`
	Status      string `json:"status,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}
