package report

import (
	"fmt"
	"io"
	"strings"
)

const (
	presentMark = '#'
	absentMark  = 'x'
	minBarWidth = 10
)

// WriteChart draws one horizontal bar per day, present then absent, scaled to fit width columns.
func WriteChart(w io.Writer, days []DayRow, width int) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "no records in this period")
		return err
	}

	var maxTotal, labelWidth, countWidth int
	for _, d := range days {
		if t := d.Present + d.Absent; t > maxTotal {
			maxTotal = t
		}
		if len(d.Date) > labelWidth {
			labelWidth = len(d.Date)
		}
	}
	countWidth = len(fmt.Sprint(maxTotal))

	// "<date> |<bar> <present>/<absent>"
	barWidth := width - labelWidth - 2*countWidth - 4
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	for _, d := range days {
		present, absent := scale(d.Present, maxTotal, barWidth), scale(d.Absent, maxTotal, barWidth)
		bar := strings.Repeat(string(presentMark), present) + strings.Repeat(string(absentMark), absent)
		if _, err := fmt.Fprintf(w, "%-*s |%-*s %*d/%-*d\n",
			labelWidth, d.Date, barWidth, bar, countWidth, d.Present, countWidth, d.Absent); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s present  %s absent\n", string(presentMark), string(absentMark))
	return err
}

// scale maps n out of max onto width columns. Non-zero counts always get at least one column.
func scale(n, max, width int) int {
	if n == 0 || max == 0 {
		return 0
	}
	cols := n * width / max
	if cols == 0 {
		cols = 1
	}
	return cols
}
