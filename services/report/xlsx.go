package report

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	SheetSummary  = "Summary"
	SheetDays     = "Days"
	SheetAbsences = "Absences"
	SheetRecords  = "Records"
)

type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (sw *sheetWriter) rows(sheet string, header []interface{}, rows [][]interface{}) {
	if sw.err != nil {
		return
	}
	if sheet != SheetSummary {
		if _, sw.err = sw.f.NewSheet(sheet); sw.err != nil {
			return
		}
	}
	all := append([][]interface{}{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			sw.err = err
			return
		}
		if sw.err = sw.f.SetSheetRow(sheet, cell, &row); sw.err != nil {
			return
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		sw.err = err
		return
	}
	if sw.err = sw.f.SetCellStyle(sheet, "A1", last+"1", sw.header); sw.err != nil {
		return
	}
	sw.err = sw.f.SetColWidth(sheet, "A", last, 18)
}

// WriteXLSX writes a workbook with the dashboard summary, its daily buckets, its absences and the raw records.
func WriteXLSX(w io.Writer, data SummaryData, records []attendance.Record, layout string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return errors.Wrap(err, "naming summary sheet")
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	sw := &sheetWriter{f: f, header: header}

	student := data.Student
	if student == "" {
		student = "all"
	}
	sw.rows(SheetSummary, []interface{}{"Field", "Value"}, [][]interface{}{
		{"Student", student},
		{"From", data.WindowStart},
		{"To", data.WindowEnd},
		{"Present", data.Stats.TotalPresent},
		{"Absent", data.Stats.TotalAbsent},
		{"Presence rate (%)", data.Stats.PresenceRatePercent},
		{"Trend", data.Stats.TrendDelta},
	})

	days := make([][]interface{}, 0, len(data.Days))
	for _, d := range data.Days {
		days = append(days, []interface{}{d.Date, d.Present, d.Absent})
	}
	sw.rows(SheetDays, []interface{}{"Date", "Present", "Absent"}, days)

	absences := make([][]interface{}, 0, len(data.Absences))
	for _, a := range data.Absences {
		absences = append(absences, []interface{}{a.Date, a.Student, a.Group, a.Notes})
	}
	sw.rows(SheetAbsences, []interface{}{"Date", "Student", "Group", "Notes"}, absences)

	recs := make([][]interface{}, 0, len(records))
	for _, r := range records {
		recs = append(recs, []interface{}{r.ID, r.Date.Display(layout), r.StudentID, r.StudentName, r.GroupName, string(r.Status), r.Notes})
	}
	sw.rows(SheetRecords, []interface{}{"ID", "Date", "Student ID", "Student", "Group", "Status", "Notes"}, recs)

	if sw.err != nil {
		return errors.Wrap(sw.err, "filling workbook")
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}
