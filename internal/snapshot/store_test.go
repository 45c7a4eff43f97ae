package snapshot

import (
	"context"
	"testing"
	"time"

	"taskdeck/internal/model"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open snapshot db: %v", err)
	}
	return NewStore(db), func() {
		_ = db.Close()
	}
}

func TestTasksRoundTrip(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	empty, err := store.Tasks(context.Background())
	if err != nil {
		t.Fatalf("load empty tasks: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil before first save, got %+v", empty)
	}

	tasks := []model.Task{
		{ID: "1", Title: "a", Status: model.StatusToDo, Priority: model.PriorityHigh},
		{ID: "2", Title: "b", Status: model.StatusDone},
	}
	if err := store.SaveTasks(context.Background(), tasks); err != nil {
		t.Fatalf("save tasks: %v", err)
	}

	loaded, err := store.Tasks(context.Background())
	if err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "1" || loaded[1].Status != model.StatusDone {
		t.Fatalf("unexpected tasks %+v", loaded)
	}
}

func TestSaveReplacesWholesale(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	first := []model.Task{{ID: "1", Title: "a", Status: model.StatusToDo}}
	if err := store.SaveTasks(context.Background(), first); err != nil {
		t.Fatalf("save tasks: %v", err)
	}

	second := []model.Task{{ID: "2", Title: "b", Status: model.StatusDone}}
	if err := store.SaveTasks(context.Background(), second); err != nil {
		t.Fatalf("save tasks again: %v", err)
	}

	loaded, err := store.Tasks(context.Background())
	if err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "2" {
		t.Fatalf("second save should replace the first, got %+v", loaded)
	}
}

func TestAttendanceRoundTrip(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	missing, err := store.Attendance(context.Background())
	if err != nil {
		t.Fatalf("load missing attendance: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil before first save")
	}

	if err := store.SaveAttendance(context.Background(), model.AttendanceStatus{IsCheckedIn: true, CheckIn: "09:00"}); err != nil {
		t.Fatalf("save attendance: %v", err)
	}

	loaded, err := store.Attendance(context.Background())
	if err != nil {
		t.Fatalf("load attendance: %v", err)
	}
	if loaded == nil || !loaded.IsCheckedIn || loaded.CheckIn != "09:00" {
		t.Fatalf("unexpected attendance %+v", loaded)
	}
}

func TestClearWipesAllSnapshots(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.SaveTasks(context.Background(), []model.Task{{ID: "1", Title: "a", Status: model.StatusToDo}}); err != nil {
		t.Fatalf("save tasks: %v", err)
	}
	if err := store.SaveTaskLogs(context.Background(), []model.TaskLog{{ID: "l1", Description: "x", Date: model.DateOf(time.Now())}}); err != nil {
		t.Fatalf("save task logs: %v", err)
	}

	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	tasks, err := store.Tasks(context.Background())
	if err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	logs, err := store.TaskLogs(context.Background())
	if err != nil {
		t.Fatalf("load task logs: %v", err)
	}
	if tasks != nil || logs != nil {
		t.Fatalf("expected empty store after clear")
	}
}
