package model

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// timeLayouts covers the backend's two datetime spellings: RFC 3339 with a
// zone offset, and a bare ISO timestamp without one.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
}

// Date is a calendar day on the wire ("YYYY-MM-DD").
type Date struct {
	time.Time
}

func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", value, err)
	}
	d.Time = parsed
	return nil
}

// SameDay reports whether the date falls on the same calendar day as t.
func (d Date) SameDay(t time.Time) bool {
	return SameDay(d.Time, t)
}

// Time is a point in time on the wire, tolerant of a missing zone offset.
type Time struct {
	time.Time
}

func TimeOf(t time.Time) *Time {
	return &Time{t}
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("parse time %q", value)
}

func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
