package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/attendance"
)

const selectAttendances = `
	SELECT
		a.id,
		a.student_id,
		s.name AS student_name,
		g.name AS student_group_name,
		a.date AS attendance_date,
		a.status,
		a.notes
	FROM attendances a
	JOIN students s ON a.student_id = s.id
	LEFT JOIN groups g ON s.group_id = g.id`

const selectStudents = `
	SELECT s.id, s.name, s.group_id, g.name AS group_name
	FROM students s
	LEFT JOIN groups g ON s.group_id = g.id`

type (
	attendanceRow struct {
		ID               string            `db:"id"`
		StudentID        string            `db:"student_id"`
		StudentName      string            `db:"student_name"`
		StudentGroupName null.String       `db:"student_group_name"`
		AttendanceDate   attendance.Date   `db:"attendance_date"`
		Status           attendance.Status `db:"status"`
		Notes            null.String       `db:"notes"`
	}

	studentRow struct {
		ID        string      `db:"id"`
		Name      string      `db:"name"`
		GroupID   null.String `db:"group_id"`
		GroupName null.String `db:"group_name"`
	}
)

func (row attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:          row.ID,
		StudentID:   row.StudentID,
		StudentName: row.StudentName,
		GroupName:   row.StudentGroupName.String,
		Date:        row.AttendanceDate,
		Status:      row.Status,
		Notes:       row.Notes.String,
	}
}

func (row studentRow) student() attendance.Student {
	return attendance.Student{
		ID:        row.ID,
		Name:      row.Name,
		GroupID:   row.GroupID.String,
		GroupName: row.GroupName.String,
	}
}

type AttendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*AttendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (repo *AttendanceRepository) CreateGroup(ctx context.Context, name string) (attendance.Group, error) {
	grp := attendance.Group{ID: uuid.NewString(), Name: name}
	q := repo.db.Rebind(`INSERT INTO groups (id, name) VALUES (?, ?)`)
	if _, err := repo.db.ExecContext(ctx, q, grp.ID, grp.Name); err != nil {
		return attendance.Group{}, errors.Wrap(err, "inserting group")
	}
	return grp, nil
}

func (repo *AttendanceRepository) GetGroupByName(ctx context.Context, name string) (attendance.Group, error) {
	var grp attendance.Group
	q := repo.db.Rebind(`SELECT id, name FROM groups WHERE LOWER(name) = LOWER(?)`)
	if err := repo.db.GetContext(ctx, &grp, q, name); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Group{}, attendance.ErrGroupNotFound
		}
		return attendance.Group{}, errors.Wrap(err, "selecting group")
	}
	return grp, nil
}

func (repo *AttendanceRepository) CreateStudent(ctx context.Context, name, groupID string) (attendance.Student, error) {
	id := uuid.NewString()
	q := repo.db.Rebind(`INSERT INTO students (id, name, group_id) VALUES (?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, q, id, name, null.NewString(groupID, groupID != "")); err != nil {
		return attendance.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.GetStudent(ctx, id)
}

func (repo *AttendanceRepository) GetStudent(ctx context.Context, id string) (attendance.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(selectStudents+` WHERE s.id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Student{}, attendance.ErrStudentNotFound
		}
		return attendance.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.student(), nil
}

func (repo *AttendanceRepository) QueryStudents(ctx context.Context) ([]attendance.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, selectStudents+` ORDER BY s.name`); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	students := make([]attendance.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo *AttendanceRepository) studentExists(ctx context.Context, id string) error {
	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(`SELECT COUNT(*) FROM students WHERE id = ?`), id); err != nil {
		return errors.Wrap(err, "checking student")
	}
	if n == 0 {
		return attendance.ErrStudentNotFound
	}
	return nil
}

func (repo *AttendanceRepository) CreateAttendance(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if err := repo.studentExists(ctx, rec.StudentID); err != nil {
		return attendance.Record{}, err
	}

	id := uuid.NewString()
	q := repo.db.Rebind(`INSERT INTO attendances (id, student_id, date, status, notes) VALUES (?, ?, ?, ?, ?)`)
	if _, err := repo.db.ExecContext(ctx, q, id, rec.StudentID, rec.Date, string(rec.Status), null.NewString(rec.Notes, rec.Notes != "")); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance")
	}
	return repo.GetAttendance(ctx, id)
}

func (repo *AttendanceRepository) GetAttendance(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(selectAttendances+` WHERE a.id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "selecting attendance")
	}
	return row.record(), nil
}

func (repo *AttendanceRepository) ListAttendances(ctx context.Context) ([]attendance.Record, error) {
	return repo.selectRecords(ctx, selectAttendances+` ORDER BY a.date DESC, a.created_at, a.id`)
}

func (repo *AttendanceRepository) QueryAttendances(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(selectAttendances)
	if filter.StudentID != "" {
		sb.WriteString(` WHERE a.student_id = ?`)
		args = append(args, filter.StudentID)
	}

	orderings := make([]string, 0, len(filter.Orderings)+2)
	for _, ord := range filter.Orderings {
		if col, ok := attendance.OrderingFields[ord.Field]; ok {
			ord.Field = col
			orderings = append(orderings, ord.String())
		}
	}
	if len(orderings) == 0 {
		orderings = append(orderings, "a.date DESC")
	}
	orderings = append(orderings, "a.created_at", "a.id")
	sb.WriteString(` ORDER BY ` + strings.Join(orderings, ", "))

	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, filter.Limit, filter.Offset())

	return repo.selectRecords(ctx, repo.db.Rebind(sb.String()), args...)
}

func (repo *AttendanceRepository) UpdateAttendance(ctx context.Context, id string, ua attendance.UpdateAttendance) (attendance.Record, error) {
	if ua.StudentID != nil {
		if err := repo.studentExists(ctx, *ua.StudentID); err != nil {
			return attendance.Record{}, err
		}
	}

	var date interface{}
	if ua.Date != nil {
		date = attendance.ParseDate(*ua.Date)
	}
	q := repo.db.Rebind(`
		UPDATE attendances
		SET student_id = COALESCE(?, student_id),
			date = COALESCE(?, date),
			status = COALESCE(?, status),
			notes = COALESCE(?, notes)
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		null.StringFromPtr(ua.StudentID), date, null.StringFromPtr(ua.Status), null.StringFromPtr(ua.Notes), id)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return repo.GetAttendance(ctx, id)
}

func (repo *AttendanceRepository) DeleteAttendance(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(`DELETE FROM attendances WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	if n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo *AttendanceRepository) selectRecords(ctx context.Context, q string, args ...interface{}) ([]attendance.Record, error) {
	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendances")
	}
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.record())
	}
	return recs, nil
}
