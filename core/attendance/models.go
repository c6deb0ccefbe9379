package attendance

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ISODate is the canonical layout of a Date.
const ISODate = "2006-01-02"

// DisplayDate is the default presentation layout (dd/mm/yyyy).
const DisplayDate = "02/01/2006"

// Status of an attendance record. The wire literals are the ones used by the attendance backend.
type Status string

const (
	StatusPresent Status = "presente"
	StatusAbsent  Status = "falta"
)

var statusAliases = map[string]Status{
	"presente": StatusPresent,
	"present":  StatusPresent,
	"falta":    StatusAbsent,
	"absent":   StatusAbsent,
	"ausente":  StatusAbsent,
}

// ParseStatus normalizes s into a known Status. ok is false for unknown values.
func ParseStatus(s string) (st Status, ok bool) {
	st, ok = statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if st, ok := ParseStatus(raw); ok {
		*s = st
	} else {
		*s = Status(raw)
	}
	return nil
}

func (s *Status) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("attendance.Status: cannot scan %T", src)
	}
	if st, ok := ParseStatus(raw); ok {
		*s = st
	} else {
		*s = Status(raw)
	}
	return nil
}

// Date is a calendar date without time of day.
// The zero Date, and any Date built from text that could not be parsed, is invalid.
type Date struct {
	t   time.Time
	raw string
}

var dateLayouts = []string{
	ISODate,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t, as seen in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate reads an ISO date or an ISO date-time (the time of day is dropped).
// It never fails: unparseable text gives an invalid Date that remembers the text.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t)
		}
	}
	return Date{raw: s}
}

func (d Date) Valid() bool { return !d.t.IsZero() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.Valid() && o.Valid() && d.t.Equal(o.t) }

func (d Date) AddDays(n int) Date {
	if !d.Valid() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// String returns the ISO form of d, or the original text when d is invalid.
func (d Date) String() string {
	if !d.Valid() {
		return d.raw
	}
	return d.t.Format(ISODate)
}

// Display formats d for humans. Invalid dates render as their original text.
func (d Date) Display(layout string) string {
	if !d.Valid() {
		return d.raw
	}
	if layout == "" {
		layout = DisplayDate
	}
	return d.t.Format(layout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() && d.raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON never rejects a bad date; it yields an invalid Date instead.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = Date{raw: string(b)}
		return nil
	}
	*d = ParseDate(s)
	return nil
}

func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v)
	case string:
		*d = ParseDate(v)
	case []byte:
		*d = ParseDate(string(v))
	default:
		return fmt.Errorf("attendance.Date: cannot scan %T", src)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, nil
	}
	return d.String(), nil
}

// Record is one attendance observation: a student, a date and a status.
type Record struct {
	ID          string `json:"id" db:"id"`
	StudentID   string `json:"student_id" db:"student_id"`
	StudentName string `json:"student_name" db:"student_name"`
	GroupName   string `json:"student_group_name,omitempty" db:"student_group_name"`
	Date        Date   `json:"attendance_date" db:"attendance_date"`
	Status      Status `json:"status" db:"status"`
	Notes       string `json:"notes,omitempty" db:"notes"`
}

// UnmarshalJSON also accepts "date" for the attendance date, as returned by single-record endpoints.
func (r *Record) UnmarshalJSON(b []byte) error {
	type alias Record
	aux := struct {
		*alias
		LegacyDate *Date `json:"date"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if !r.Date.Valid() && r.Date.raw == "" && aux.LegacyDate != nil {
		r.Date = *aux.LegacyDate
	}
	return nil
}

// RosterEntry is a distinct student, with the first-seen name and group.
type RosterEntry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	GroupName   string `json:"student_group_name,omitempty"`
}

// Label is the roster display text: "Name (Group)" or "Name".
func (e RosterEntry) Label() string {
	if e.GroupName == "" {
		return e.StudentName
	}
	return e.StudentName + " (" + e.GroupName + ")"
}

type DayBucket struct {
	Date         Date `json:"date"`
	PresentCount int  `json:"present"`
	AbsentCount  int  `json:"absent"`
}

type SummaryStats struct {
	TotalPresent        int `json:"total_present"`
	TotalAbsent         int `json:"total_absent"`
	PresenceRatePercent int `json:"presence_rate_percent"`
	TrendDelta          int `json:"trend_delta"`
}

type Summary struct {
	Buckets []DayBucket  `json:"buckets"`
	Stats   SummaryStats `json:"stats"`
}
