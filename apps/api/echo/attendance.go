package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

const statusSuccess = "success"

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/attendances")

	// read endpoints, available on every source
	ag.GET("/roster", api.roster)
	ag.GET("/summary", api.summary)
	ag.GET("/absences", api.absences)

	if svc.ReadOnly() {
		ag.GET("", api.snapshot)
		return
	}

	ag.GET("", api.query)
	ag.POST("", api.create)

	// detail endpoints
	dg := ag.Group("/:id", attendanceObjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *attendanceApi) roster(ctx echo.Context) error {
	entries, err := api.svc.Roster(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "deriving roster")
	}
	return ctx.JSON(http.StatusOK, RosterResponse{Status: statusSuccess, Roster: entries})
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	dq, err := bindDashboardQuery(ctx)
	if err != nil {
		return err
	}
	dash, err := api.svc.Dashboard(ctx.Request().Context(), dq)
	if err != nil {
		return errors.Wrap(err, "computing dashboard")
	}
	return ctx.JSON(http.StatusOK, SummaryResponse{Status: statusSuccess, Dashboard: dash})
}

func (api *attendanceApi) absences(ctx echo.Context) error {
	dq, err := bindDashboardQuery(ctx)
	if err != nil {
		return err
	}
	dash, err := api.svc.Dashboard(ctx.Request().Context(), dq)
	if err != nil {
		return errors.Wrap(err, "computing dashboard")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Status: statusSuccess, Attendances: dash.Absences})
}

// snapshot lists everything a read-only source knows, most recent first.
func (api *attendanceApi) snapshot(ctx echo.Context) error {
	recs, err := api.svc.Snapshot(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing attendances")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Status: statusSuccess, Attendances: recs})
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter, err := bindQueryFilter(ctx)
	if err != nil {
		return err
	}

	recs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendances")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, ListResponse{Status: statusSuccess, Attendances: recs})
}

func (api *attendanceApi) create(ctx echo.Context) error {
	var data attendance.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating attendance")
	}
	return ctx.JSON(http.StatusCreated, ObjectResponse{Status: statusSuccess, Attendance: rec})
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	rec, ok := ctx.Get("object").(attendance.Record)
	if !ok {
		return errors.Wrap(errRecNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, ObjectResponse{Status: statusSuccess, Attendance: rec})
}

func (api *attendanceApi) update(ctx echo.Context) error {
	rec, ok := ctx.Get("object").(attendance.Record)
	if !ok {
		return errors.Wrap(errRecNotFoundInCtx, "retrieving object from context")
	}

	var data attendance.UpdateAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Update(ctx.Request().Context(), rec.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, ObjectResponse{Status: statusSuccess, Attendance: rec})
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	rec, ok := ctx.Get("object").(attendance.Record)
	if !ok {
		return errors.Wrap(errRecNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), rec.ID); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

var errRecNotFoundInCtx = errors.New("attendance object not found in echo.Context")

func attendanceObjectMiddleware(svc *attendance.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			rec, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == attendance.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding attendance by ID")
			}
			ctx.Set("object", rec)
			return next(ctx)
		}
	}
}

type (
	ListResponse struct {
		Status      string              `json:"status"`
		Attendances []attendance.Record `json:"attendances"`
	}

	ObjectResponse struct {
		Status     string            `json:"status"`
		Attendance attendance.Record `json:"attendance"`
	}

	RosterResponse struct {
		Status string                   `json:"status"`
		Roster []attendance.RosterEntry `json:"roster"`
	}

	SummaryResponse struct {
		Status string `json:"status"`
		attendance.Dashboard
	}
)
