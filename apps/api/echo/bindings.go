package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	ord.Orderings = core.ParseOrderings(val[0])
}

func bindQueryFilter(ctx echo.Context) (attendance.QueryFilter, error) {
	var filter attendance.QueryFilter
	errs := echo.QueryParamsBinder(ctx).
		FailFast(false).
		Int("limit", &filter.Limit).
		Int("page", &filter.Page).
		String("student_id", &filter.StudentID).
		BindErrors()
	if err := bindingError(errs); err != nil {
		return filter, err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Orderings = ordering.Orderings
	return filter, nil
}

// bindDashboardQuery leaves the optional parameters nil when absent from the query string.
func bindDashboardQuery(ctx echo.Context) (attendance.DashboardQuery, error) {
	var dq attendance.DashboardQuery
	params := ctx.QueryParams()

	b := echo.QueryParamsBinder(ctx).FailFast(false)
	if params.Get("window_days") != "" {
		dq.WindowDays = new(int)
		b.Int("window_days", dq.WindowDays)
	}
	if params.Has("student_id") {
		dq.StudentID = new(string)
		b.String("student_id", dq.StudentID)
	}
	b.String("reference_date", &dq.ReferenceDate)

	if err := bindingError(b.BindErrors()); err != nil {
		return dq, err
	}
	if err := dq.Validate(); err != nil {
		return dq, err
	}
	return dq, nil
}

func bindingError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	flds := make([]core.FieldError, 0, len(errs))
	for _, err := range errs {
		if bErr, ok := err.(*echo.BindingError); ok {
			flds = append(flds, core.FieldError{Field: bErr.Field, Error: "must be a number"})
		}
	}
	return core.NewValidationError(nil, flds...)
}
