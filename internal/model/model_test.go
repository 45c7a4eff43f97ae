package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeUnmarshalAcceptsZonelessTimestamps(t *testing.T) {
	cases := []string{
		`"2026-03-10T09:00:00Z"`,
		`"2026-03-10T09:00:00"`,
		`"2026-03-10T09:00:00.123456"`,
	}
	for _, raw := range cases {
		var value Time
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if value.Hour() != 9 {
			t.Fatalf("unmarshal %s: expected hour 9, got %d", raw, value.Hour())
		}
	}
}

func TestTimeUnmarshalRejectsGarbage(t *testing.T) {
	var value Time
	if err := json.Unmarshal([]byte(`"yesterday"`), &value); err == nil {
		t.Fatalf("expected error for unparseable timestamp")
	}
}

func TestDateRoundTrip(t *testing.T) {
	var date Date
	if err := json.Unmarshal([]byte(`"2026-03-10"`), &date); err != nil {
		t.Fatalf("unmarshal date: %v", err)
	}
	out, err := json.Marshal(date)
	if err != nil {
		t.Fatalf("marshal date: %v", err)
	}
	if string(out) != `"2026-03-10"` {
		t.Fatalf("unexpected wire form %s", out)
	}
}

func TestSameDayIgnoresClock(t *testing.T) {
	morning := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	night := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	next := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	if !SameDay(morning, night) {
		t.Fatalf("same calendar day should match")
	}
	if SameDay(night, next) {
		t.Fatalf("adjacent days should not match")
	}
}

func TestTaskOverdueAt(t *testing.T) {
	due := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	task := Task{ID: "1", Title: "a", Status: StatusToDo, DueDate: TimeOf(due)}

	if task.OverdueAt(due) {
		t.Fatalf("not overdue at the exact due instant")
	}
	if !task.OverdueAt(due.Add(time.Minute)) {
		t.Fatalf("overdue past the due instant")
	}

	task.Status = StatusDone
	if task.OverdueAt(due.Add(time.Hour)) {
		t.Fatalf("done tasks are never overdue")
	}

	task.DueDate = nil
	task.Status = StatusToDo
	if task.OverdueAt(due) {
		t.Fatalf("tasks without a due date are never overdue")
	}
}

func TestUserValidate(t *testing.T) {
	user := User{ID: "u1", Name: "Dana", Role: RoleEmployee}
	if err := user.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}

	user.Role = "Contractor"
	if err := user.Validate(); err == nil {
		t.Fatalf("unknown role should be rejected")
	}

	user = User{Name: "Dana", Role: RoleEmployee}
	if err := user.Validate(); err == nil {
		t.Fatalf("missing id should be rejected")
	}
}

func TestTaskValidateToleratesUnknownStatus(t *testing.T) {
	task := Task{ID: "1", Title: "a", Status: "Blocked"}
	if err := task.Validate(); err != nil {
		t.Fatalf("unknown status is not a structural error: %v", err)
	}
	if task.Status.Known() {
		t.Fatalf("Blocked should not be a known status")
	}
}

func TestAssignedTo(t *testing.T) {
	task := Task{ID: "1", Title: "a", Assignees: []TaskAssignee{{AssigneeID: "u1", AssigneeName: "Dana"}}}
	if !task.AssignedTo("u1") {
		t.Fatalf("expected u1 assigned")
	}
	if task.AssignedTo("u2") {
		t.Fatalf("u2 is not assigned")
	}
}
