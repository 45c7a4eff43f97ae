package tui

import (
	"testing"
	"time"

	"taskdeck/internal/model"
)

func TestCalculateTaskStats(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := model.TimeOf(now.Add(-24 * time.Hour))
	future := model.TimeOf(now.Add(24 * time.Hour))

	tasks := []model.Task{
		{ID: "1", Title: "a", Status: model.StatusToDo, DueDate: past},
		{ID: "2", Title: "b", Status: model.StatusInProgress, DueDate: future},
		{ID: "3", Title: "c", Status: model.StatusDone, DueDate: past},
		{ID: "4", Title: "d", Status: model.StatusToDo},
	}

	stats := calculateTaskStats(tasks, now)
	if stats.Total != 4 {
		t.Fatalf("expected 4 total, got %d", stats.Total)
	}
	if stats.ToDo != 2 || stats.InProgress != 1 || stats.Done != 1 {
		t.Fatalf("unexpected buckets: %+v", stats)
	}
	if stats.Overdue != 1 {
		t.Fatalf("expected 1 overdue (done tasks never count), got %d", stats.Overdue)
	}
}

func TestDashboardRecentTasksUnfiltered(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := model.User{ID: "u1", Name: "Dana", Role: model.RoleEmployee}

	// Six tasks, none assigned to the viewer: the recent list still shows
	// the first five in server order.
	var tasks []model.Task
	for i := 0; i < 6; i++ {
		tasks = append(tasks, model.Task{
			ID:        string(rune('a' + i)),
			Title:     "task " + string(rune('a'+i)),
			Status:    model.StatusToDo,
			Assignees: []model.TaskAssignee{{AssigneeID: "u2", AssigneeName: "Sam"}},
		})
	}

	lines := dashboardLines(user, tasks, nil, nil, now)
	header := -1
	for i, line := range lines {
		if line == "Recent tasks:" {
			header = i
			break
		}
	}
	if header < 0 {
		t.Fatalf("missing recent tasks section in %q", lines)
	}
	count := 0
	for _, line := range lines[header+1:] {
		if line == "" {
			break
		}
		count++
	}
	if count != 5 {
		t.Fatalf("expected 5 recent tasks regardless of assignee, got %d", count)
	}
}

func TestOverdueBoundaryFlips(t *testing.T) {
	due := time.Date(2026, 3, 15, 17, 0, 0, 0, time.UTC)
	task := model.Task{ID: "1", Title: "a", Status: model.StatusToDo, DueDate: model.TimeOf(due)}

	if calculateTaskStats([]model.Task{task}, due).Overdue != 0 {
		t.Fatalf("task should not be overdue at its exact due time")
	}
	if calculateTaskStats([]model.Task{task}, due.Add(time.Second)).Overdue != 1 {
		t.Fatalf("task should be overdue one second past due")
	}
}

func TestGroupTasksByStatusKeepsUnknownAsCount(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "a", Status: model.StatusToDo},
		{ID: "2", Title: "b", Status: "Blocked"},
		{ID: "3", Title: "c", Status: model.StatusDone},
	}

	columns := groupTasksByStatus(tasks)
	if len(columns.ToDo) != 1 || len(columns.InProgress) != 0 || len(columns.Done) != 1 {
		t.Fatalf("unexpected columns: %+v", columns)
	}
	if columns.Unclassified != 1 {
		t.Fatalf("expected 1 unclassified, got %d", columns.Unclassified)
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "mine", Assignees: []model.TaskAssignee{{AssigneeID: "u1"}}},
		{ID: "2", Title: "by me", AssignerID: "u1"},
		{ID: "3", Title: "other", AssignerID: "u2", Assignees: []model.TaskAssignee{{AssigneeID: "u2"}}},
	}

	mine := filterTasks(tasks, filterMyTasks, "u1")
	if len(mine) != 1 || mine[0].ID != "1" {
		t.Fatalf("expected only task 1, got %+v", mine)
	}

	byMe := filterTasks(tasks, filterAssignedByMe, "u1")
	if len(byMe) != 1 || byMe[0].ID != "2" {
		t.Fatalf("expected only task 2, got %+v", byMe)
	}

	if got := filterTasks(tasks, filterAll, "u1"); len(got) != 3 {
		t.Fatalf("expected all 3 tasks, got %d", len(got))
	}
}

func TestNextTaskFilterSkipsAssignedByMeForEmployees(t *testing.T) {
	if got := nextTaskFilter(filterMyTasks, false); got != filterAll {
		t.Fatalf("employee cycle should skip assigned-by-me, got %q", got)
	}
	if got := nextTaskFilter(filterMyTasks, true); got != filterAssignedByMe {
		t.Fatalf("manager cycle should reach assigned-by-me, got %q", got)
	}
	if got := nextTaskFilter(filterAssignedByMe, true); got != filterAll {
		t.Fatalf("cycle should wrap to all, got %q", got)
	}
}

func TestRecentTasksCapsAtFive(t *testing.T) {
	tasks := make([]model.Task, 7)
	for i := range tasks {
		tasks[i] = model.Task{ID: string(rune('a' + i)), Title: "t"}
	}
	recent := recentTasks(tasks)
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent tasks, got %d", len(recent))
	}
	if recent[0].ID != tasks[0].ID {
		t.Fatalf("recent tasks should preserve server order")
	}
}

func TestBuildCalendarCells(t *testing.T) {
	// March 2026 starts on a Sunday and has 31 days.
	month := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tasks := []model.Task{
		{ID: "1", Title: "a", DueDate: model.TimeOf(day10), Assignees: []model.TaskAssignee{{AssigneeID: "u1"}}},
		{ID: "2", Title: "b", DueDate: model.TimeOf(day10), Assignees: []model.TaskAssignee{{AssigneeID: "u1"}}},
	}
	logs := []model.TaskLog{
		{ID: "l1", Description: "one", Date: model.DateOf(day10)},
		{ID: "l2", Description: "two", Date: model.DateOf(day10)},
	}

	cells := buildCalendarCells(month, tasks, logs, "u1")
	if len(cells) != 31 {
		t.Fatalf("expected 31 cells with no leading blanks, got %d", len(cells))
	}

	cell := cells[9]
	if cell.Day != 10 {
		t.Fatalf("expected day 10, got %d", cell.Day)
	}
	if len(cell.Tasks) != 1 || len(cell.Logs) != 2 {
		t.Fatalf("expected 1 task and 2 log previews, got %d and %d", len(cell.Tasks), len(cell.Logs))
	}
	if cell.Overflow != 1 {
		t.Fatalf("expected overflow of 1, got %d", cell.Overflow)
	}
	if overflowLabel(cell.Overflow) != "+1 more" {
		t.Fatalf("unexpected overflow label %q", overflowLabel(cell.Overflow))
	}
}

func TestBuildCalendarCellsPadsFirstWeek(t *testing.T) {
	// April 2026 starts on a Wednesday.
	month := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	cells := buildCalendarCells(month, nil, nil, "")
	if len(cells) != 33 {
		t.Fatalf("expected 3 blanks + 30 days, got %d cells", len(cells))
	}
	for i := 0; i < 3; i++ {
		if cells[i].Day != 0 {
			t.Fatalf("cell %d should be blank", i)
		}
	}
	if cells[3].Day != 1 {
		t.Fatalf("expected day 1 at index 3, got %d", cells[3].Day)
	}
}

func TestCalendarExcludesOtherAssignees(t *testing.T) {
	month := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "1", Title: "theirs", DueDate: model.TimeOf(day), Assignees: []model.TaskAssignee{{AssigneeID: "u2"}}},
	}
	cells := buildCalendarCells(month, tasks, nil, "u1")
	if len(cells[4].Tasks) != 0 {
		t.Fatalf("task assigned to someone else should not appear")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{90, "1h 30m"},
		{135, "2h 15m"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.minutes); got != tc.want {
			t.Fatalf("formatDuration(%d) = %q, want %q", tc.minutes, got, tc.want)
		}
	}
}

func TestCyclePriority(t *testing.T) {
	if got := nextPriority(string(model.PriorityLow)); got != string(model.PriorityMedium) {
		t.Fatalf("expected Medium after Low, got %q", got)
	}
	if got := nextPriority(string(model.PriorityHigh)); got != string(model.PriorityLow) {
		t.Fatalf("expected wrap to Low, got %q", got)
	}
	if got := prevPriority(string(model.PriorityLow)); got != string(model.PriorityHigh) {
		t.Fatalf("expected wrap to High, got %q", got)
	}
}

func TestParseLogFields(t *testing.T) {
	fields := buildLogFields(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	fields[logFieldDescription].Value = "code review"
	fields[logFieldStart].Value = "09:00"
	fields[logFieldEnd].Value = "10:30"

	input, err := parseLogFields(fields)
	if err != nil {
		t.Fatalf("parse log fields: %v", err)
	}
	if input.StartTime == nil || input.EndTime == nil {
		t.Fatalf("expected both clocks set")
	}
	if got := input.EndTime.Sub(input.StartTime.Time); got != 90*time.Minute {
		t.Fatalf("expected 90m span, got %v", got)
	}
	if input.Date.Format("2006-01-02") != "2026-03-10" {
		t.Fatalf("unexpected date %v", input.Date)
	}
}

func TestParseLogFieldsRejectsHalfSetClocks(t *testing.T) {
	fields := buildLogFields(time.Now())
	fields[logFieldDescription].Value = "standup"
	fields[logFieldStart].Value = "09:00"

	if _, err := parseLogFields(fields); err == nil {
		t.Fatalf("expected error when only start is set")
	}
}

func TestParseTaskFieldsRequiresTitle(t *testing.T) {
	fields := buildTaskFields()
	if _, err := parseTaskFields(fields, nil); err == nil {
		t.Fatalf("expected error for empty title")
	}

	fields[taskFieldTitle].Value = "Ship release"
	fields[taskFieldDue].Value = "2026-04-01"
	input, err := parseTaskFields(fields, []string{"u1"})
	if err != nil {
		t.Fatalf("parse task fields: %v", err)
	}
	if input.Priority != model.PriorityMedium {
		t.Fatalf("expected default Medium priority, got %q", input.Priority)
	}
	if input.DueDate == nil {
		t.Fatalf("expected due date set")
	}
	if len(input.AssigneeIDs) != 1 {
		t.Fatalf("expected assignee carried through")
	}
}

func TestClip(t *testing.T) {
	if got := clip("hello world", 8); got != "hello w…" {
		t.Fatalf("unexpected clip result %q", got)
	}
	if got := clip("short", 10); got != "short" {
		t.Fatalf("clip should not touch short strings, got %q", got)
	}
}
