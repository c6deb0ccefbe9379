package attendance

import "time"

const (
	// DefaultWindowDays is the dashboard look-back used when callers have no preference.
	DefaultWindowDays = 30

	// maxWindowDays reaches back before year 1, so longer windows select the same records.
	maxWindowDays = 3_000_000
)

// Window returns the inclusive [start, end] dates covered by a look-back of windowDays from reference.
func Window(windowDays int, reference time.Time) (start, end Date) {
	switch {
	case windowDays > maxWindowDays:
		windowDays = maxWindowDays
	case windowDays < -maxWindowDays:
		windowDays = -maxWindowDays
	}
	end = DateOf(reference)
	return end.AddDays(-windowDays), end
}

// FilterAttendance keeps the records dated within windowDays before reference (both ends inclusive)
// and, when selectedStudentID is set, belonging to that student.
// Records with an invalid date are never in the window.
func FilterAttendance(records []Record, windowDays int, selectedStudentID *string, reference time.Time) []Record {
	start, end := Window(windowDays, reference)

	filtered := make([]Record, 0)
	for _, r := range records {
		if !r.Date.Valid() || r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		if selectedStudentID != nil && r.StudentID != *selectedStudentID {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// FilterByStudent keeps the records of studentID, whatever their date. A nil studentID keeps everything.
func FilterByStudent(records []Record, studentID *string) []Record {
	if studentID == nil {
		return records
	}
	filtered := make([]Record, 0)
	for _, r := range records {
		if r.StudentID == *studentID {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
