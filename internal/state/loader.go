package state

import (
	"context"
	"math"
	"time"

	"github.com/go-errors/errors"
	"golang.org/x/sync/errgroup"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
	"taskdeck/internal/snapshot"
)

// API is the slice of the backend client the loader needs. The concrete
// implementation is api.Client; tests substitute a fake.
type API interface {
	Tasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, input api.TaskInput) (model.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) (model.Task, error)
	TaskLogs(ctx context.Context, userID string) ([]model.TaskLog, error)
	CreateTaskLog(ctx context.Context, input api.TaskLogInput) (model.TaskLog, error)
	DepartmentUsers(ctx context.Context, departmentID string) ([]model.User, error)
	AttendanceStatus(ctx context.Context) (model.AttendanceStatus, error)
	CheckIn(ctx context.Context) error
	CheckOut(ctx context.Context) error
	WFHRequests(ctx context.Context) ([]model.WFHRequest, error)
	Approvals(ctx context.Context) ([]model.Approval, error)
}

// Loader fetches view data off the render loop and applies it to the shared
// State. Fetch and Apply are split so the shell can run the fetch in a
// goroutine and apply on its own update callback.
type Loader struct {
	api   API
	state *State
	snap  *snapshot.Store

	// OnChange, when set, runs after every cache change so the shell can
	// schedule a repaint. It may be called from any goroutine.
	OnChange func()
}

func NewLoader(client API, st *State, snap *snapshot.Store) *Loader {
	return &Loader{api: client, state: st, snap: snap}
}

func (l *Loader) notify() {
	if l.OnChange != nil {
		l.OnChange()
	}
}

type DashboardData struct {
	Tasks      []model.Task
	Attendance model.AttendanceStatus
}

// FetchDashboard loads tasks and attendance together. Either failure fails
// the whole load; the cache keeps its previous contents.
func (l *Loader) FetchDashboard(ctx context.Context) (DashboardData, error) {
	var data DashboardData
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := l.api.Tasks(ctx)
		if err != nil {
			return err
		}
		data.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		status, err := l.api.AttendanceStatus(ctx)
		if err != nil {
			return err
		}
		data.Attendance = status
		return nil
	})
	if err := g.Wait(); err != nil {
		return DashboardData{}, err
	}
	return data, nil
}

// ApplyDashboard installs a dashboard load. It reports false, leaving the
// cache untouched, when a newer load began after gen was issued.
func (l *Loader) ApplyDashboard(gen uint64, data DashboardData) bool {
	l.state.mu.Lock()
	if gen != l.state.generation {
		l.state.mu.Unlock()
		return false
	}
	l.state.tasks = data.Tasks
	attendance := data.Attendance
	l.state.attendance = &attendance
	l.state.mu.Unlock()

	l.saveTasks(data.Tasks)
	l.saveAttendance(data.Attendance)
	l.notify()
	return true
}

type KanbanData struct {
	Tasks           []model.Task
	DepartmentUsers []model.User
}

// FetchKanban loads the full task list, plus the department roster when the
// viewer can assign tasks to others.
func (l *Loader) FetchKanban(ctx context.Context) (KanbanData, error) {
	var data KanbanData
	user := l.state.User()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := l.api.Tasks(ctx)
		if err != nil {
			return err
		}
		data.Tasks = tasks
		return nil
	})
	if user != nil && user.Role.Manager() && user.DepartmentID != "" {
		g.Go(func() error {
			users, err := l.api.DepartmentUsers(ctx, user.DepartmentID)
			if err != nil {
				return err
			}
			data.DepartmentUsers = users
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return KanbanData{}, err
	}
	return data, nil
}

func (l *Loader) ApplyKanban(gen uint64, data KanbanData) bool {
	l.state.mu.Lock()
	if gen != l.state.generation {
		l.state.mu.Unlock()
		return false
	}
	l.state.tasks = data.Tasks
	if data.DepartmentUsers != nil {
		l.state.departmentUsers = data.DepartmentUsers
	}
	l.state.mu.Unlock()

	l.saveTasks(data.Tasks)
	l.notify()
	return true
}

type CalendarData struct {
	Tasks           []model.Task
	TaskLogs        []model.TaskLog
	DepartmentUsers []model.User
}

// FetchCalendar loads tasks and the effective user's logs, plus the roster
// for the employee selector when the viewer is a manager.
func (l *Loader) FetchCalendar(ctx context.Context) (CalendarData, error) {
	var data CalendarData
	user := l.state.User()
	userID := l.state.EffectiveUserID()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := l.api.Tasks(ctx)
		if err != nil {
			return err
		}
		data.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		logs, err := l.api.TaskLogs(ctx, userID)
		if err != nil {
			return err
		}
		data.TaskLogs = logs
		return nil
	})
	if user != nil && user.Role.Manager() && user.DepartmentID != "" {
		g.Go(func() error {
			users, err := l.api.DepartmentUsers(ctx, user.DepartmentID)
			if err != nil {
				return err
			}
			data.DepartmentUsers = users
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CalendarData{}, err
	}
	return data, nil
}

func (l *Loader) ApplyCalendar(gen uint64, data CalendarData) bool {
	l.state.mu.Lock()
	if gen != l.state.generation {
		l.state.mu.Unlock()
		return false
	}
	l.state.tasks = data.Tasks
	l.state.taskLogs = data.TaskLogs
	if data.DepartmentUsers != nil {
		l.state.departmentUsers = data.DepartmentUsers
	}
	l.state.mu.Unlock()

	l.saveTasks(data.Tasks)
	l.saveTaskLogs(data.TaskLogs)
	l.notify()
	return true
}

// FetchTaskLogs loads the viewer's own log history.
func (l *Loader) FetchTaskLogs(ctx context.Context) ([]model.TaskLog, error) {
	user := l.state.User()
	if user == nil {
		return nil, errors.New("no authenticated user")
	}
	return l.api.TaskLogs(ctx, user.ID)
}

func (l *Loader) ApplyTaskLogs(gen uint64, logs []model.TaskLog) bool {
	l.state.mu.Lock()
	if gen != l.state.generation {
		l.state.mu.Unlock()
		return false
	}
	l.state.taskLogs = logs
	l.state.mu.Unlock()

	l.saveTaskLogs(logs)
	l.notify()
	return true
}

// WFHRequests and Approvals are rendered directly and never cached.
func (l *Loader) WFHRequests(ctx context.Context) ([]model.WFHRequest, error) {
	return l.api.WFHRequests(ctx)
}

func (l *Loader) Approvals(ctx context.Context) ([]model.Approval, error) {
	return l.api.Approvals(ctx)
}

// MoveTask patches the cached task immediately, then confirms with the
// server. A failed call restores the previous status before returning.
func (l *Loader) MoveTask(ctx context.Context, taskID string, status model.TaskStatus) error {
	prev, ok := l.state.PatchTaskStatus(taskID, status)
	if !ok {
		return errors.Errorf("task %s not in cache", taskID)
	}
	l.notify()
	if _, err := l.api.UpdateTaskStatus(ctx, taskID, status); err != nil {
		l.state.PatchTaskStatus(taskID, prev)
		l.notify()
		return err
	}
	l.saveTasks(l.state.Tasks())
	return nil
}

// CreateTask submits a new task and refetches the list so the cache picks up
// server-assigned fields.
func (l *Loader) CreateTask(ctx context.Context, input api.TaskInput) error {
	if _, err := l.api.CreateTask(ctx, input); err != nil {
		return err
	}
	return l.ReloadTasks(ctx)
}

// CreateTaskLog derives durationMinutes from the start and end clocks when
// both are present, submits the log, and refetches the viewer's history.
func (l *Loader) CreateTaskLog(ctx context.Context, input api.TaskLogInput) error {
	if input.StartTime != nil && input.EndTime != nil {
		minutes, err := durationMinutes(input.StartTime.Time, input.EndTime.Time)
		if err != nil {
			return err
		}
		input.DurationMinutes = minutes
	}
	if _, err := l.api.CreateTaskLog(ctx, input); err != nil {
		return err
	}
	return l.ReloadTaskLogs(ctx)
}

func durationMinutes(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, errors.New("end time must be after start time")
	}
	return int(math.Round(end.Sub(start).Minutes())), nil
}

// ToggleAttendance checks the viewer in or out based on the cached flag,
// then refetches the authoritative status. Returns the new checked-in state.
func (l *Loader) ToggleAttendance(ctx context.Context) (bool, error) {
	var err error
	if l.state.CheckedIn() {
		err = l.api.CheckOut(ctx)
	} else {
		err = l.api.CheckIn(ctx)
	}
	if err != nil {
		return false, err
	}
	status, err := l.api.AttendanceStatus(ctx)
	if err != nil {
		return false, err
	}
	l.state.setAttendance(status)
	l.saveAttendance(status)
	l.notify()
	return status.IsCheckedIn, nil
}

// ReloadTasks refetches the task list, superseding any in-flight view load.
func (l *Loader) ReloadTasks(ctx context.Context) error {
	gen := l.state.BeginLoad()
	tasks, err := l.api.Tasks(ctx)
	if err != nil {
		return err
	}
	l.state.mu.Lock()
	if gen != l.state.generation {
		l.state.mu.Unlock()
		return nil
	}
	l.state.tasks = tasks
	l.state.mu.Unlock()

	l.saveTasks(tasks)
	l.notify()
	return nil
}

// ReloadTaskLogs refetches the viewer's own log history.
func (l *Loader) ReloadTaskLogs(ctx context.Context) error {
	user := l.state.User()
	if user == nil {
		return errors.New("no authenticated user")
	}
	gen := l.state.BeginLoad()
	logs, err := l.api.TaskLogs(ctx, user.ID)
	if err != nil {
		return err
	}
	l.state.mu.Lock()
	if gen != l.state.generation {
		l.state.mu.Unlock()
		return nil
	}
	l.state.taskLogs = logs
	l.state.mu.Unlock()

	l.saveTaskLogs(logs)
	l.notify()
	return nil
}

// PreloadSnapshot seeds the cache from the local snapshot so the first paint
// has content before the network round trip finishes.
func (l *Loader) PreloadSnapshot(ctx context.Context) error {
	if l.snap == nil {
		return nil
	}
	tasks, err := l.snap.Tasks(ctx)
	if err != nil {
		return err
	}
	logs, err := l.snap.TaskLogs(ctx)
	if err != nil {
		return err
	}
	attendance, err := l.snap.Attendance(ctx)
	if err != nil {
		return err
	}
	l.state.Preload(tasks, logs, attendance)
	l.notify()
	return nil
}

// ClearSnapshot wipes the local snapshot. Called on logout.
func (l *Loader) ClearSnapshot(ctx context.Context) error {
	if l.snap == nil {
		return nil
	}
	return l.snap.Clear(ctx)
}

// Snapshot writes are best effort; a failed write never fails the fetch
// that produced the data.
func (l *Loader) saveTasks(tasks []model.Task) {
	if l.snap == nil {
		return
	}
	_ = l.snap.SaveTasks(context.Background(), tasks)
}

func (l *Loader) saveTaskLogs(logs []model.TaskLog) {
	if l.snap == nil {
		return
	}
	_ = l.snap.SaveTaskLogs(context.Background(), logs)
}

func (l *Loader) saveAttendance(status model.AttendanceStatus) {
	if l.snap == nil {
		return
	}
	_ = l.snap.SaveAttendance(context.Background(), status)
}
