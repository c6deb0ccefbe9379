package attendance

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

const (
	defaultPageLimit = 10
	defaultPage      = 1
)

type Group struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Student struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	GroupID   string `json:"group_id,omitempty" db:"group_id"`
	GroupName string `json:"group_name,omitempty" db:"group_name"`
}

// NewStudent defines what information may be provided to register a Student.
// The group is created on the fly when it does not exist yet.
type NewStudent struct {
	Name      string `json:"name" validate:"required"`
	GroupName string `json:"group_name"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.GroupName = core.CleanString(ns.GroupName)
	return validate.Struct(ns)
}

// NewAttendance defines what information may be provided to record an attendance.
type NewAttendance struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,isodate"`
	Status    string `json:"status" validate:"required,attstatus"`
	Notes     string `json:"notes"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.StudentID = core.CleanString(na.StudentID, true /* lower */)
	na.Date = core.CleanString(na.Date)
	na.Notes = core.CleanString(na.Notes)

	if err := validate.Struct(na); err != nil {
		return err
	}
	st, _ := ParseStatus(na.Status)
	na.Status = string(st)
	return nil
}

// Record returns the attendance described by na. na must be valid.
func (na NewAttendance) Record() Record {
	st, _ := ParseStatus(na.Status)
	return Record{
		StudentID: na.StudentID,
		Date:      ParseDate(na.Date),
		Status:    st,
		Notes:     na.Notes,
	}
}

// UpdateAttendance defines what information may be provided to modify an attendance.
// nil fields are left untouched.
type UpdateAttendance struct {
	StudentID *string `json:"student_id" validate:"omitempty,uuid"`
	Date      *string `json:"date" validate:"omitempty,isodate"`
	Status    *string `json:"status" validate:"omitempty,attstatus"`
	Notes     *string `json:"notes"`
}

func (ua *UpdateAttendance) Validate(validate *validator.Validate) error {
	if ua.StudentID != nil {
		id := core.CleanString(*ua.StudentID, true /* lower */)
		ua.StudentID = &id
	}
	if ua.Date != nil {
		d := core.CleanString(*ua.Date)
		ua.Date = &d
	}
	if ua.Notes != nil {
		n := core.CleanString(*ua.Notes)
		ua.Notes = &n
	}

	if err := validate.Struct(ua); err != nil {
		return err
	}
	if ua.Status != nil {
		st, _ := ParseStatus(*ua.Status)
		s := string(st)
		ua.Status = &s
	}
	return nil
}

func (ua UpdateAttendance) IsEmpty() bool {
	return ua.StudentID == nil && ua.Date == nil && ua.Status == nil && ua.Notes == nil
}

// QueryFilter pages through stored attendances, most recent first by default.
type QueryFilter struct {
	Limit     int    `query:"limit"`
	Page      int    `query:"page"`
	StudentID string `query:"student_id"`
	Orderings []core.DBOrdering
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID, true /* lower */)
	if qf.Limit <= 0 {
		qf.Limit = defaultPageLimit
	}
	if qf.Page <= 0 {
		qf.Page = defaultPage
	}
	valid := qf.Orderings[:0]
	for _, ord := range qf.Orderings {
		if _, ok := OrderingFields[ord.Field]; ok {
			valid = append(valid, ord)
		}
	}
	qf.Orderings = valid
}

func (qf QueryFilter) Offset() int {
	return (qf.Page - 1) * qf.Limit
}

// OrderingFields maps the public ordering names to their column.
var OrderingFields = map[string]string{
	"date":         "a.date",
	"student_name": "s.name",
	"status":       "a.status",
}

// DashboardQuery selects the records a Dashboard is computed on.
type DashboardQuery struct {
	WindowDays    *int    `query:"window_days"`
	StudentID     *string `query:"student_id"`
	ReferenceDate string  `query:"reference_date"`
}

func (dq *DashboardQuery) Validate() error {
	var flds []core.FieldError
	if dq.WindowDays != nil && *dq.WindowDays < 0 {
		flds = append(flds, core.FieldError{Field: "window_days", Error: "must not be negative"})
	}
	if dq.ReferenceDate != "" && !ParseDate(dq.ReferenceDate).Valid() {
		flds = append(flds, core.FieldError{Field: "reference_date", Error: "must be a valid date (YYYY-MM-DD)"})
	}
	if dq.StudentID != nil && strings.TrimSpace(*dq.StudentID) == "" {
		dq.StudentID = nil
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}
