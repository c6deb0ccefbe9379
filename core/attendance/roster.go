package attendance

import (
	"strings"

	"golang.org/x/text/cases"
)

// DeriveRoster returns one entry per distinct StudentID, in order of first appearance.
// Records without a StudentID are grouped under the empty ID.
func DeriveRoster(records []Record) []RosterEntry {
	roster := make([]RosterEntry, 0)
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.StudentID]; ok {
			continue
		}
		seen[r.StudentID] = struct{}{}
		roster = append(roster, RosterEntry{
			StudentID:   r.StudentID,
			StudentName: r.StudentName,
			GroupName:   r.GroupName,
		})
	}
	return roster
}

// FilterRoster keeps the entries whose StudentName contains query, ignoring case.
// An empty query returns roster as is; query is not trimmed.
func FilterRoster(roster []RosterEntry, query string) []RosterEntry {
	if query == "" {
		return roster
	}
	fold := cases.Fold()
	q := fold.String(query)

	filtered := make([]RosterEntry, 0, len(roster))
	for _, e := range roster {
		if strings.Contains(fold.String(e.StudentName), q) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
