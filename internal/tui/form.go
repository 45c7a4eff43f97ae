package tui

import (
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
)

type formField struct {
	Label  string
	Value  string
	Masked bool
}

const (
	loginFieldEmail = iota
	loginFieldPassword
)

func buildLoginFields() []formField {
	return []formField{
		{Label: "Email"},
		{Label: "Password", Masked: true},
	}
}

func parseLoginFields(fields []formField) (string, string, error) {
	email := strings.TrimSpace(fields[loginFieldEmail].Value)
	password := fields[loginFieldPassword].Value
	if email == "" || password == "" {
		return "", "", fmt.Errorf("email and password are required")
	}
	return email, password, nil
}

const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldPriority
	taskFieldDue
	taskFieldAssignees
)

func buildTaskFields() []formField {
	return []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Priority (space/←→)", Value: string(model.PriorityMedium)},
		{Label: "Due (YYYY-MM-DD)"},
		{Label: "Assignees (space/←→)"},
	}
}

func parseTaskFields(fields []formField, assigneeIDs []string) (api.TaskInput, error) {
	title := strings.TrimSpace(fields[taskFieldTitle].Value)
	if title == "" {
		return api.TaskInput{}, fmt.Errorf("title is required")
	}

	dueDate, err := parseDue(fields[taskFieldDue].Value)
	if err != nil {
		return api.TaskInput{}, err
	}

	return api.TaskInput{
		Title:       title,
		Description: strings.TrimSpace(fields[taskFieldDescription].Value),
		Priority:    model.TaskPriority(strings.TrimSpace(fields[taskFieldPriority].Value)),
		DueDate:     dueDate,
		AssigneeIDs: assigneeIDs,
	}, nil
}

const (
	logFieldDescription = iota
	logFieldDate
	logFieldStart
	logFieldEnd
)

func buildLogFields(date time.Time) []formField {
	return []formField{
		{Label: "Description"},
		{Label: "Date (YYYY-MM-DD)", Value: date.Format("2006-01-02")},
		{Label: "Start (HH:MM)"},
		{Label: "End (HH:MM)"},
	}
}

func parseLogFields(fields []formField) (api.TaskLogInput, error) {
	description := strings.TrimSpace(fields[logFieldDescription].Value)
	if description == "" {
		return api.TaskLogInput{}, fmt.Errorf("description is required")
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(fields[logFieldDate].Value))
	if err != nil {
		return api.TaskLogInput{}, fmt.Errorf("invalid date")
	}

	start, err := parseClock(fields[logFieldStart].Value, date)
	if err != nil {
		return api.TaskLogInput{}, fmt.Errorf("invalid start time")
	}
	end, err := parseClock(fields[logFieldEnd].Value, date)
	if err != nil {
		return api.TaskLogInput{}, fmt.Errorf("invalid end time")
	}
	if (start == nil) != (end == nil) {
		return api.TaskLogInput{}, fmt.Errorf("start and end must both be set")
	}

	return api.TaskLogInput{
		Description: description,
		Date:        model.DateOf(date),
		StartTime:   start,
		EndTime:     end,
	}, nil
}

func parseDue(value string) (*model.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid due date")
	}
	return model.TimeOf(parsed), nil
}

// parseClock combines an HH:MM value with the log's date. Empty is allowed;
// the backend accepts logs without start and end clocks.
func parseClock(value string, date time.Time) (*model.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse("15:04", trimmed)
	if err != nil {
		return nil, err
	}
	combined := time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, date.Location())
	return model.TimeOf(combined), nil
}

func nextPriority(current string) string {
	return cyclePriority(current, 1)
}

func prevPriority(current string) string {
	return cyclePriority(current, -1)
}

func cyclePriority(current string, delta int) string {
	order := []model.TaskPriority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
	value := model.TaskPriority(strings.TrimSpace(current))
	index := 1
	for i, priority := range order {
		if priority == value {
			index = i
			break
		}
	}
	index = (index + delta + len(order)) % len(order)
	return string(order[index])
}
