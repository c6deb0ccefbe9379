package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateGroup(_ context.Context, name string) (attendance.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grp := attendance.Group{ID: uuid.NewString(), Name: name}
	repo.db.groups[grp.ID] = &grp
	return grp, nil
}

func (repo *attendanceRepository) GetGroupByName(_ context.Context, name string) (attendance.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, grp := range repo.db.groups {
		if strings.EqualFold(grp.Name, name) {
			return *grp, nil
		}
	}
	return attendance.Group{}, attendance.ErrGroupNotFound
}

func (repo *attendanceRepository) CreateStudent(_ context.Context, name, groupID string) (attendance.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	std := attendance.Student{ID: uuid.NewString(), Name: name}
	if groupID != "" {
		grp, ok := repo.db.groups[groupID]
		if !ok {
			return attendance.Student{}, attendance.ErrGroupNotFound
		}
		std.GroupID = grp.ID
		std.GroupName = grp.Name
	}
	repo.db.students[std.ID] = &std
	return std, nil
}

func (repo *attendanceRepository) GetStudent(_ context.Context, id string) (attendance.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return *std, nil
	}
	return attendance.Student{}, attendance.ErrStudentNotFound
}

func (repo *attendanceRepository) QueryStudents(_ context.Context) ([]attendance.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]attendance.Student, 0, len(repo.db.students))
	for _, std := range repo.db.students {
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

func (repo *attendanceRepository) CreateAttendance(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[rec.StudentID]; !ok {
		return attendance.Record{}, attendance.ErrStudentNotFound
	}
	repo.db.seq++
	row := &attendanceRow{
		seq:       repo.db.seq,
		id:        uuid.NewString(),
		studentID: rec.StudentID,
		date:      rec.Date,
		status:    rec.Status,
		notes:     rec.Notes,
	}
	repo.db.attendances[row.id] = row
	return repo.record(row), nil
}

func (repo *attendanceRepository) GetAttendance(_ context.Context, id string) (attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if row, ok := repo.db.attendances[id]; ok {
		return repo.record(row), nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) ListAttendances(_ context.Context) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(nil), nil
}

func (repo *attendanceRepository) QueryAttendances(_ context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := repo.query(filter.Orderings)
	if filter.StudentID != "" {
		recs = attendance.FilterByStudent(recs, &filter.StudentID)
	}

	start := filter.Offset()
	if start >= len(recs) {
		return []attendance.Record{}, nil
	}
	end := start + filter.Limit
	if end > len(recs) {
		end = len(recs)
	}
	return recs[start:end], nil
}

func (repo *attendanceRepository) UpdateAttendance(_ context.Context, id string, ua attendance.UpdateAttendance) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.attendances[id]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	if ua.StudentID != nil {
		if _, ok = repo.db.students[*ua.StudentID]; !ok {
			return attendance.Record{}, attendance.ErrStudentNotFound
		}
		row.studentID = *ua.StudentID
	}
	if ua.Date != nil {
		row.date = attendance.ParseDate(*ua.Date)
	}
	if ua.Status != nil {
		row.status = attendance.Status(*ua.Status)
	}
	if ua.Notes != nil {
		row.notes = *ua.Notes
	}
	return repo.record(row), nil
}

func (repo *attendanceRepository) DeleteAttendance(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.attendances[id]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.attendances, id)
	return nil
}

func (repo *attendanceRepository) record(row *attendanceRow) attendance.Record {
	rec := attendance.Record{
		ID:        row.id,
		StudentID: row.studentID,
		Date:      row.date,
		Status:    row.status,
		Notes:     row.notes,
	}
	if std, ok := repo.db.students[row.studentID]; ok {
		rec.StudentName = std.Name
		rec.GroupName = std.GroupName
	}
	return rec
}

// query returns every record, by date (most recent first) unless orderings say otherwise.
// Ties keep insertion order.
func (repo *attendanceRepository) query(orderings []core.DBOrdering) []attendance.Record {
	rows := make([]*attendanceRow, 0, len(repo.db.attendances))
	for _, row := range repo.db.attendances {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.record(row))
	}

	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "date"}}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareField(recs[i], recs[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return recs
}

func compareField(a, b attendance.Record, field string) int {
	switch field {
	case "date":
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
	case "student_name":
		return strings.Compare(a.StudentName, b.StudentName)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	}
	return 0
}
