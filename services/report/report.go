// Package report renders attendance dashboards for humans: text charts, spreadsheets and emails.
package report

import (
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const SummaryTemplate = "attendance_summary"

type (
	DayRow struct {
		Date    string
		Present int
		Absent  int
	}

	AbsenceRow struct {
		Date    string
		Student string
		Group   string
		Notes   string
	}

	// SummaryData is a Dashboard with every date formatted for display.
	SummaryData struct {
		Student     string
		WindowStart string
		WindowEnd   string
		Stats       attendance.SummaryStats
		Days        []DayRow
		Absences    []AbsenceRow
	}
)

// NewSummaryData formats d with layout. student is the display label of the selected student, if any.
func NewSummaryData(d attendance.Dashboard, layout, student string) SummaryData {
	data := SummaryData{
		Student:     student,
		WindowStart: d.WindowStart.Display(layout),
		WindowEnd:   d.WindowEnd.Display(layout),
		Stats:       d.Summary.Stats,
		Days:        make([]DayRow, 0, len(d.Summary.Buckets)),
		Absences:    make([]AbsenceRow, 0, len(d.Absences)),
	}
	for _, b := range d.Summary.Buckets {
		data.Days = append(data.Days, DayRow{Date: b.Date.Display(layout), Present: b.PresentCount, Absent: b.AbsentCount})
	}
	for _, r := range d.Absences {
		data.Absences = append(data.Absences, AbsenceRow{
			Date:    r.Date.Display(layout),
			Student: r.StudentName,
			Group:   r.GroupName,
			Notes:   r.Notes,
		})
	}
	return data
}

// SummaryEmail returns the templated summary email for to.
func SummaryEmail(to []mail.Address, data SummaryData) *core.EmailMessage {
	subject := "Attendance summary " + data.WindowStart + " - " + data.WindowEnd
	if data.Student != "" {
		subject += " (" + data.Student + ")"
	}
	return &core.EmailMessage{
		To:           to,
		Subject:      subject,
		TemplateName: SummaryTemplate,
		TemplateData: data,
	}
}

// ParseRecipients reads a comma or whitespace separated list of addresses.
func ParseRecipients(lists ...string) ([]mail.Address, error) {
	addrs := make([]mail.Address, 0)
	for _, list := range lists {
		fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
		for _, f := range fields {
			addr, err := mail.ParseAddress(f)
			if err != nil {
				return nil, fmt.Errorf("invalid recipient %q: %v", f, err)
			}
			addrs = append(addrs, *addr)
		}
	}
	return addrs, nil
}

// WriteStats writes the summary stats as aligned text.
func WriteStats(w io.Writer, data SummaryData) error {
	title := "Attendance"
	if data.Student != "" {
		title += " of " + data.Student
	}
	_, err := fmt.Fprintf(w,
		"%s, %s - %s\n  present: %d\n  absent: %d\n  presence rate: %d%%\n  trend: %+d\n",
		title, data.WindowStart, data.WindowEnd,
		data.Stats.TotalPresent, data.Stats.TotalAbsent, data.Stats.PresenceRatePercent, data.Stats.TrendDelta,
	)
	return err
}
