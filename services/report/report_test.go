package report

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core/attendance"
)

func testRecords() []attendance.Record {
	return []attendance.Record{
		{ID: "1", StudentID: "s1", StudentName: "Ana", GroupName: "5A", Date: attendance.NewDate(2024, 3, 1), Status: attendance.StatusPresent},
		{ID: "2", StudentID: "s2", StudentName: "Bruno", Date: attendance.NewDate(2024, 3, 1), Status: attendance.StatusAbsent, Notes: "sick"},
		{ID: "3", StudentID: "s1", StudentName: "Ana", GroupName: "5A", Date: attendance.NewDate(2024, 3, 2), Status: attendance.StatusAbsent},
		{ID: "4", StudentID: "s2", StudentName: "Bruno", Date: attendance.NewDate(2024, 3, 2), Status: attendance.StatusPresent},
		{ID: "5", StudentID: "s2", StudentName: "Bruno", Date: attendance.NewDate(2024, 3, 2), Status: attendance.StatusPresent},
	}
}

func testDashboard() attendance.Dashboard {
	recs := testRecords()
	ref := attendance.NewDate(2024, 3, 2).Time()
	start, end := attendance.Window(30, ref)
	filtered := attendance.FilterAttendance(recs, 30, nil, ref)
	return attendance.Dashboard{
		WindowDays:  30,
		WindowStart: start,
		WindowEnd:   end,
		Summary:     attendance.Aggregate(filtered),
		Absences:    attendance.Absences(filtered),
	}
}

func TestNewSummaryData(t *testing.T) {
	data := NewSummaryData(testDashboard(), "02/01/2006", "")

	assert.Equal(t, "01/02/2024", data.WindowStart)
	assert.Equal(t, "02/03/2024", data.WindowEnd)
	assert.Equal(t, attendance.SummaryStats{TotalPresent: 3, TotalAbsent: 2, PresenceRatePercent: 60, TrendDelta: 1}, data.Stats)
	assert.Equal(t, []DayRow{
		{Date: "01/03/2024", Present: 1, Absent: 1},
		{Date: "02/03/2024", Present: 2, Absent: 1},
	}, data.Days)
	assert.Equal(t, []AbsenceRow{
		{Date: "01/03/2024", Student: "Bruno", Notes: "sick"},
		{Date: "02/03/2024", Student: "Ana", Group: "5A"},
	}, data.Absences)
}

func TestSummaryEmail(t *testing.T) {
	to := []mail.Address{{Address: "head@school.test"}}

	tests := []struct {
		name        string
		student     string
		wantSubject string
		wantText    []string
	}{
		{
			name:        "all students",
			wantSubject: "Attendance summary 2024-02-01 - 2024-03-02",
			wantText:    []string{"Present: 3", "Absent: 2", "Presence rate: 60%", "2024-03-01  Bruno - sick", "2024-03-02  Ana (5A)"},
		},
		{
			name:        "one student",
			student:     "Ana (5A)",
			wantSubject: "Attendance summary 2024-02-01 - 2024-03-02 (Ana (5A))",
			wantText:    []string{"Attendance summary for Ana (5A)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := SummaryEmail(to, NewSummaryData(testDashboard(), attendance.ISODate, tt.student))
			assert.Equal(t, tt.wantSubject, msg.Subject)
			assert.Equal(t, SummaryTemplate, msg.TemplateName)
			assert.Equal(t, to, msg.To)

			require.NoError(t, msg.Render("Mahudhurio"))
			for _, want := range tt.wantText {
				assert.Contains(t, msg.TextContent, want)
			}
			assert.Contains(t, msg.HTMLContent, "<table")
		})
	}
}

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		name    string
		lists   []string
		want    []string
		wantErr bool
	}{
		{name: "empty", lists: []string{""}, want: []string{}},
		{name: "comma separated", lists: []string{"a@x.test, b@x.test"}, want: []string{"a@x.test", "b@x.test"}},
		{name: "several lists", lists: []string{"a@x.test", "b@x.test;c@x.test"}, want: []string{"a@x.test", "b@x.test", "c@x.test"}},
		{name: "invalid", lists: []string{"a@x.test,nope"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecipients(tt.lists...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			addrs := make([]string, 0, len(got))
			for _, a := range got {
				addrs = append(addrs, a.Address)
			}
			assert.Equal(t, tt.want, addrs)
		})
	}
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStats(&buf, NewSummaryData(testDashboard(), attendance.ISODate, "Ana")))
	assert.Equal(t,
		"Attendance of Ana, 2024-02-01 - 2024-03-02\n  present: 3\n  absent: 2\n  presence rate: 60%\n  trend: +1\n",
		buf.String(),
	)
}

func TestWriteChart(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteChart(&buf, nil, 80))
		assert.Equal(t, "no records in this period\n", buf.String())
	})

	t.Run("bars", func(t *testing.T) {
		days := []DayRow{
			{Date: "2024-03-01", Present: 1, Absent: 1},
			{Date: "2024-03-02", Present: 3, Absent: 1},
			{Date: "2024-03-03", Present: 0, Absent: 0},
		}
		var buf bytes.Buffer
		// 10 (date) + 2*1 (counts) + 4 = 16 columns of chrome, leaving 24 for the bar
		require.NoError(t, WriteChart(&buf, days, 40))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "2024-03-01 |"+"######xxxxxx"+strings.Repeat(" ", 12)+" 1/1", lines[0])
		assert.Equal(t, "2024-03-02 |"+strings.Repeat("#", 18)+"xxxxxx"+" 3/1", lines[1])
		assert.Equal(t, "2024-03-03 |"+strings.Repeat(" ", 24)+" 0/0", lines[2])
		assert.Equal(t, "# present  x absent", lines[3])
		for _, l := range lines[:3] {
			assert.Len(t, l, 40)
		}
	})

	t.Run("narrow terminal", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteChart(&buf, []DayRow{{Date: "2024-03-01", Present: 100, Absent: 1}}, 5))
		assert.Equal(t, "2024-03-01 |"+strings.Repeat("#", 9)+"x"+" 100/1  \n", strings.SplitAfter(buf.String(), "\n")[0])
	})
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	data := NewSummaryData(testDashboard(), attendance.ISODate, "")
	require.NoError(t, WriteXLSX(&buf, data, testRecords()[:2], attendance.ISODate))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetSummary, SheetDays, SheetAbsences, SheetRecords}, f.GetSheetList())

	tests := []struct {
		sheet string
		want  [][]string
	}{
		{
			sheet: SheetSummary,
			want: [][]string{
				{"Field", "Value"},
				{"Student", "all"},
				{"From", "2024-02-01"},
				{"To", "2024-03-02"},
				{"Present", "3"},
				{"Absent", "2"},
				{"Presence rate (%)", "60"},
				{"Trend", "1"},
			},
		},
		{
			sheet: SheetDays,
			want: [][]string{
				{"Date", "Present", "Absent"},
				{"2024-03-01", "1", "1"},
				{"2024-03-02", "2", "1"},
			},
		},
		{
			sheet: SheetAbsences,
			want: [][]string{
				{"Date", "Student", "Group", "Notes"},
				{"2024-03-01", "Bruno", "", "sick"},
				{"2024-03-02", "Ana", "5A"},
			},
		},
		{
			sheet: SheetRecords,
			want: [][]string{
				{"ID", "Date", "Student ID", "Student", "Group", "Status", "Notes"},
				{"1", "2024-03-01", "s1", "Ana", "5A", "presente"},
				{"2", "2024-03-01", "s2", "Bruno", "", "falta", "sick"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			rows, err := f.GetRows(tt.sheet)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}
