package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrNotFound        = errors.New("attendance not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrReadOnly        = errors.New("attendance source is read-only")

	NowFunc = time.Now // mockable
)

type (
	// Source provides a snapshot of every known attendance record.
	Source interface {
		ListAttendances(ctx context.Context) ([]Record, error)
	}

	Repository interface {
		Source

		CreateGroup(ctx context.Context, name string) (Group, error)
		GetGroupByName(ctx context.Context, name string) (Group, error)
		CreateStudent(ctx context.Context, name, groupID string) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context) ([]Student, error)

		CreateAttendance(ctx context.Context, rec Record) (Record, error)
		GetAttendance(ctx context.Context, id string) (Record, error)
		// QueryAttendances returns one page of attendances, ordered by QueryFilter.Orderings
		// or by date (most recent first).
		QueryAttendances(ctx context.Context, filter QueryFilter) ([]Record, error)
		UpdateAttendance(ctx context.Context, id string, ua UpdateAttendance) (Record, error)
		DeleteAttendance(ctx context.Context, id string) error
	}

	// Dashboard is the summary of the attendances in a window, optionally for one student.
	Dashboard struct {
		WindowDays  int      `json:"window_days"`
		WindowStart Date     `json:"window_start"`
		WindowEnd   Date     `json:"window_end"`
		StudentID   *string  `json:"student_id,omitempty"`
		Summary     Summary  `json:"summary"`
		Absences    []Record `json:"absences"`
	}

	Service struct {
		source     Source
		repo       Repository // nil for read-only sources
		windowDays int
	}
)

// NewService returns a Service reading from source. repo may be nil, in which case writes fail with ErrReadOnly.
func NewService(conf *core.Config, source Source, repo Repository) *Service {
	windowDays := conf.Attendance.WindowDays
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Service{source: source, repo: repo, windowDays: windowDays}
}

func (svc *Service) ReadOnly() bool { return svc.repo == nil }

func (svc *Service) WindowDays() int { return svc.windowDays }

// Snapshot returns every record known to the source.
func (svc *Service) Snapshot(ctx context.Context) ([]Record, error) {
	recs, err := svc.source.ListAttendances(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing attendances")
	}
	return recs, nil
}

// Dashboard computes the summary and the absences of the records matching dq.
func (svc *Service) Dashboard(ctx context.Context, dq DashboardQuery) (Dashboard, error) {
	recs, err := svc.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	d, _ := svc.DashboardOf(recs, dq)
	return d, nil
}

// DashboardOf computes the Dashboard of a snapshot taken earlier with Snapshot.
// It also returns the records the Dashboard was computed on, most recent first.
func (svc *Service) DashboardOf(recs []Record, dq DashboardQuery) (Dashboard, []Record) {
	windowDays := svc.windowDays
	if dq.WindowDays != nil {
		windowDays = *dq.WindowDays
	}
	reference := NowFunc()
	if d := ParseDate(dq.ReferenceDate); d.Valid() {
		reference = d.Time()
	}

	filtered := FilterAttendance(recs, windowDays, dq.StudentID, reference)
	start, end := Window(windowDays, reference)
	d := Dashboard{
		WindowDays:  windowDays,
		WindowStart: start,
		WindowEnd:   end,
		StudentID:   dq.StudentID,
		Summary:     Aggregate(filtered),
		Absences:    Absences(filtered),
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Date.After(filtered[j].Date) })
	return d, filtered
}

// Roster returns the distinct students of the source whose name matches search.
func (svc *Service) Roster(ctx context.Context, search string) ([]RosterEntry, error) {
	recs, err := svc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRoster(DeriveRoster(recs), search), nil
}

// StudentRecords returns every record of studentID, most recent first.
func (svc *Service) StudentRecords(ctx context.Context, studentID string) ([]Record, error) {
	recs, err := svc.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return StudentRecords(recs, studentID), nil
}

// AddStudent registers a student, creating their group when needed.
func (svc *Service) AddStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if svc.repo == nil {
		return Student{}, ErrReadOnly
	}

	var groupID string
	if ns.GroupName != "" {
		grp, err := svc.repo.GetGroupByName(ctx, ns.GroupName)
		if err != nil {
			if errors.Cause(err) != ErrGroupNotFound {
				return Student{}, errors.Wrap(err, "getting group")
			}
			if grp, err = svc.repo.CreateGroup(ctx, ns.GroupName); err != nil {
				return Student{}, errors.Wrap(err, "creating group")
			}
		}
		groupID = grp.ID
	}
	return svc.repo.CreateStudent(ctx, ns.Name, groupID)
}

func (svc *Service) QueryStudents(ctx context.Context) ([]Student, error) {
	if svc.repo == nil {
		return nil, ErrReadOnly
	}
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) Create(ctx context.Context, na NewAttendance) (Record, error) {
	if svc.repo == nil {
		return Record{}, ErrReadOnly
	}
	rec, err := svc.repo.CreateAttendance(ctx, na.Record())
	if err != nil {
		return Record{}, studentFieldError(err)
	}
	return rec, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Record, error) {
	if svc.repo == nil {
		return Record{}, ErrReadOnly
	}
	return svc.repo.GetAttendance(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	if svc.repo == nil {
		return nil, ErrReadOnly
	}
	filter.Clean()
	return svc.repo.QueryAttendances(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAttendance) (Record, error) {
	if svc.repo == nil {
		return Record{}, ErrReadOnly
	}
	if ua.IsEmpty() {
		return svc.repo.GetAttendance(ctx, id)
	}
	rec, err := svc.repo.UpdateAttendance(ctx, id, ua)
	if err != nil {
		return Record{}, studentFieldError(err)
	}
	return rec, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if svc.repo == nil {
		return ErrReadOnly
	}
	return svc.repo.DeleteAttendance(ctx, id)
}

func studentFieldError(err error) error {
	if errors.Cause(err) == ErrStudentNotFound {
		return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: ErrStudentNotFound.Error()})
	}
	return err
}
