package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"taskdeck/internal/model"
)

type taskStats struct {
	Total      int
	ToDo       int
	InProgress int
	Done       int
	Overdue    int
}

func calculateTaskStats(tasks []model.Task, now time.Time) taskStats {
	stats := taskStats{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case model.StatusToDo:
			stats.ToDo++
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusDone:
			stats.Done++
		}
		if task.OverdueAt(now) {
			stats.Overdue++
		}
	}
	return stats
}

type kanbanColumns struct {
	ToDo       []model.Task
	InProgress []model.Task
	Done       []model.Task

	// Tasks whose status matches no column. They stay in the cache and
	// are surfaced as a count instead of being silently dropped.
	Unclassified int
}

func groupTasksByStatus(tasks []model.Task) kanbanColumns {
	var columns kanbanColumns
	for _, task := range tasks {
		switch task.Status {
		case model.StatusToDo:
			columns.ToDo = append(columns.ToDo, task)
		case model.StatusInProgress:
			columns.InProgress = append(columns.InProgress, task)
		case model.StatusDone:
			columns.Done = append(columns.Done, task)
		default:
			columns.Unclassified++
		}
	}
	return columns
}

type taskFilter string

const (
	filterAll          taskFilter = "all"
	filterMyTasks      taskFilter = "my-tasks"
	filterAssignedByMe taskFilter = "assigned-by-me"
)

func (f taskFilter) Label() string {
	switch f {
	case filterMyTasks:
		return "My Tasks"
	case filterAssignedByMe:
		return "Assigned By Me"
	default:
		return "All Tasks"
	}
}

// nextTaskFilter cycles the kanban filter. Viewers who cannot assign tasks
// skip the assigned-by-me bucket.
func nextTaskFilter(current taskFilter, canAssign bool) taskFilter {
	switch current {
	case filterAll:
		return filterMyTasks
	case filterMyTasks:
		if canAssign {
			return filterAssignedByMe
		}
		return filterAll
	default:
		return filterAll
	}
}

func filterTasks(tasks []model.Task, filter taskFilter, userID string) []model.Task {
	if filter == filterAll || userID == "" {
		return tasks
	}
	result := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		switch filter {
		case filterMyTasks:
			if task.AssignedTo(userID) {
				result = append(result, task)
			}
		case filterAssignedByMe:
			if task.AssignerID == userID {
				result = append(result, task)
			}
		}
	}
	return result
}

// recentTasks returns up to five tasks for the dashboard, preserving server
// order.
func recentTasks(tasks []model.Task) []model.Task {
	if len(tasks) > 5 {
		return tasks[:5]
	}
	return tasks
}

func recentLogs(logs []model.TaskLog) []model.TaskLog {
	if len(logs) > 5 {
		return logs[:5]
	}
	return logs
}

func tasksForDate(tasks []model.Task, date time.Time, assigneeID string) []model.Task {
	result := make([]model.Task, 0, 4)
	for _, task := range tasks {
		if task.DueDate == nil || !model.SameDay(task.DueDate.Time, date) {
			continue
		}
		if assigneeID != "" && !task.AssignedTo(assigneeID) {
			continue
		}
		result = append(result, task)
	}
	return result
}

func logsForDate(logs []model.TaskLog, date time.Time) []model.TaskLog {
	result := make([]model.TaskLog, 0, 4)
	for _, log := range logs {
		if model.SameDay(log.Date.Time, date) {
			result = append(result, log)
		}
	}
	return result
}

type calendarCell struct {
	Day      int
	Date     time.Time
	Tasks    []model.Task
	Logs     []model.TaskLog
	Overflow int
}

// buildCalendarCells lays the month out Sunday-first, with empty cells
// padding the first week. Each day previews at most one task and two logs;
// the rest collapse into the overflow count.
func buildCalendarCells(month time.Time, tasks []model.Task, logs []model.TaskLog, assigneeID string) []calendarCell {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()

	cells := make([]calendarCell, 0, daysInMonth+6)
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, calendarCell{})
	}

	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, month.Location())
		dayTasks := tasksForDate(tasks, date, assigneeID)
		dayLogs := logsForDate(logs, date)

		cell := calendarCell{Day: day, Date: date}
		total := len(dayTasks) + len(dayLogs)
		if len(dayTasks) > 1 {
			dayTasks = dayTasks[:1]
		}
		if len(dayLogs) > 2 {
			dayLogs = dayLogs[:2]
		}
		cell.Tasks = dayTasks
		cell.Logs = dayLogs
		if total > 3 {
			cell.Overflow = total - 3
		}
		cells = append(cells, cell)
	}
	return cells
}

func overflowLabel(count int) string {
	if count <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", count)
}

func formatDuration(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	hours := minutes / 60
	rest := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", rest)
	}
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

func formatAssignees(assignees []model.TaskAssignee) string {
	if len(assignees) == 0 {
		return "unassigned"
	}
	names := make([]string, 0, len(assignees))
	for _, assignee := range assignees {
		names = append(names, assignee.AssigneeName)
	}
	return strings.Join(names, ", ")
}

func formatTaskSummary(task model.Task) string {
	due := "no due date"
	if task.DueDate != nil {
		due = task.DueDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s | %s | %s | due %s", task.Title, task.Status, task.Priority, due)
}

func formatLogSummary(log model.TaskLog) string {
	return fmt.Sprintf("%s | %s | %s", log.Date.Format("2006-01-02"), formatDuration(log.DurationMinutes), log.Description)
}

// sortedUsers orders the employee selector by name for a stable cycle.
func sortedUsers(users []model.User) []model.User {
	result := make([]model.User, len(users))
	copy(result, users)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
