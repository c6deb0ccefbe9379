package attendance

import (
	"math"
	"sort"
)

// Aggregate buckets records per calendar day, in ascending date order, and computes the summary stats.
// Days without records get no bucket. Records with an invalid date or an unknown status are skipped,
// so the totals always equal the bucket sums.
func Aggregate(records []Record) Summary {
	byDay := make(map[string]*DayBucket)
	for _, r := range records {
		if !r.Date.Valid() || !r.Status.Valid() {
			continue
		}
		key := r.Date.String()
		b, ok := byDay[key]
		if !ok {
			b = &DayBucket{Date: DateOf(r.Date.Time())}
			byDay[key] = b
		}
		switch r.Status {
		case StatusPresent:
			b.PresentCount++
		case StatusAbsent:
			b.AbsentCount++
		}
	}

	buckets := make([]DayBucket, 0, len(byDay))
	for _, b := range byDay {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date.Before(buckets[j].Date) })

	return Summary{Buckets: buckets, Stats: computeStats(buckets)}
}

func computeStats(buckets []DayBucket) SummaryStats {
	var stats SummaryStats
	for _, b := range buckets {
		stats.TotalPresent += b.PresentCount
		stats.TotalAbsent += b.AbsentCount
	}
	stats.PresenceRatePercent = PresenceRate(stats.TotalPresent, stats.TotalAbsent)
	if len(buckets) > 1 {
		stats.TrendDelta = buckets[len(buckets)-1].PresentCount - buckets[0].PresentCount
	}
	return stats
}

// PresenceRate is round(present / (present+absent) * 100), or 0 when there is nothing to count.
func PresenceRate(present, absent int) int {
	total := present + absent
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

// Absences returns the absent records in chronological order. Records sharing a date keep their input order.
func Absences(records []Record) []Record {
	absences := make([]Record, 0)
	for _, r := range records {
		if r.Status == StatusAbsent && r.Date.Valid() {
			absences = append(absences, r)
		}
	}
	sort.SliceStable(absences, func(i, j int) bool { return absences[i].Date.Before(absences[j].Date) })
	return absences
}

// StudentRecords returns the records of studentID, most recent first.
func StudentRecords(records []Record, studentID string) []Record {
	recs := FilterByStudent(records, &studentID)
	out := make([]Record, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
