// Package state holds the in-memory snapshot of server data that every view
// reads from, and the loader that reconciles it with the backend. The
// container is handed to the shell explicitly; nothing here is ambient.
package state

import (
	"sync"
	"time"

	"taskdeck/internal/model"
)

type ViewID string

const (
	ViewDashboard ViewID = "dashboard"
	ViewKanban    ViewID = "kanban"
	ViewCalendar  ViewID = "calendar"
	ViewTaskLogs  ViewID = "task-performed"
	ViewWFH       ViewID = "wfh"
	ViewApprovals ViewID = "approvals"
)

// State is the single source of truth for rendered data. Fetches replace
// slices wholesale; the generation counter discards responses that arrive
// after a newer load has begun.
type State struct {
	mu sync.RWMutex

	user            *model.User
	tasks           []model.Task
	taskLogs        []model.TaskLog
	attendance      *model.AttendanceStatus
	departmentUsers []model.User

	currentView    ViewID
	selectedDate   *time.Time
	selectedUserID string
	calendarMonth  time.Time

	generation uint64
}

func New() *State {
	return &State{
		currentView:   ViewDashboard,
		calendarMonth: monthOf(time.Now()),
	}
}

// BeginLoad invalidates every in-flight load and returns the token the new
// load must present when applying its results.
func (s *State) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// Generation reports the token of the most recent load. A fetch holding an
// older token must discard its response.
func (s *State) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetUser installs the authenticated user and resets the selection defaults
// that derive from it.
func (s *State) SetUser(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	if user != nil {
		s.selectedUserID = user.ID
	}
}

// Reset clears all cached collections and selections. Called on logout; the
// generation bump discards any load still in flight.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.tasks = nil
	s.taskLogs = nil
	s.attendance = nil
	s.departmentUsers = nil
	s.selectedDate = nil
	s.selectedUserID = ""
	s.currentView = ViewDashboard
	s.calendarMonth = monthOf(time.Now())
	s.generation++
}

// Preload seeds the cache from the local snapshot before the first fetch.
func (s *State) Preload(tasks []model.Task, logs []model.TaskLog, attendance *model.AttendanceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tasks) > 0 {
		s.tasks = tasks
	}
	if len(logs) > 0 {
		s.taskLogs = logs
	}
	if attendance != nil {
		s.attendance = attendance
	}
}

func (s *State) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *State) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks
}

func (s *State) TaskLogs() []model.TaskLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskLogs
}

func (s *State) Attendance() *model.AttendanceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attendance
}

func (s *State) CheckedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attendance != nil && s.attendance.IsCheckedIn
}

func (s *State) DepartmentUsers() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.departmentUsers
}

func (s *State) CurrentView() ViewID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentView
}

func (s *State) SetCurrentView(view ViewID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentView = view
}

func (s *State) SelectedDate() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedDate
}

func (s *State) SetSelectedDate(date *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedDate = date
}

func (s *State) SelectedUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedUserID
}

// SetSelectedUserID switches whose calendar a manager is viewing. Only the
// employee selector calls this.
func (s *State) SetSelectedUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedUserID = userID
}

// EffectiveUserID is the user whose tasks and logs the calendar shows: the
// viewer for an Employee, the selected employee for HOD and Super Admin.
func (s *State) EffectiveUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	if s.user.Role.Manager() && s.selectedUserID != "" {
		return s.selectedUserID
	}
	return s.user.ID
}

func (s *State) CalendarMonth() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calendarMonth
}

func (s *State) ShiftCalendarMonth(months int) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendarMonth = s.calendarMonth.AddDate(0, months, 0)
	return s.calendarMonth
}

// TaskByID returns a copy of the cached task, if present.
func (s *State) TaskByID(taskID string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, task := range s.tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return model.Task{}, false
}

// PatchTaskStatus replaces the task list with a copy carrying the new status
// and returns the prior value so a failed server call can restore it. The
// previously installed slice is never written again; snapshot writes and the
// render loop keep reading it without holding the lock.
func (s *State) PatchTaskStatus(taskID string, status model.TaskStatus) (model.TaskStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			prev := s.tasks[i].Status
			tasks := make([]model.Task, len(s.tasks))
			copy(tasks, s.tasks)
			tasks[i].Status = status
			s.tasks = tasks
			return prev, true
		}
	}
	return "", false
}

func (s *State) setAttendance(status model.AttendanceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance = &status
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
