package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type studentApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *attendance.Service, validate *validator.Validate) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/students")
	sg.GET("/:id/attendances", api.attendances)

	if !svc.ReadOnly() {
		sg.GET("", api.query)
		sg.POST("", api.create)
	}
}

// attendances lists every record of a student, most recent first, regardless of the window.
func (api *studentApi) attendances(ctx echo.Context) error {
	recs, err := api.svc.StudentRecords(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing student attendances")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Status: statusSuccess, Attendances: recs})
}

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.QueryStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []attendance.Student{}
	}
	return ctx.JSON(http.StatusOK, StudentListResponse{Status: statusSuccess, Students: students})
}

func (api *studentApi) create(ctx echo.Context) error {
	var data attendance.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.AddStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding student")
	}
	return ctx.JSON(http.StatusCreated, StudentResponse{Status: statusSuccess, Student: std})
}

type (
	StudentListResponse struct {
		Status   string               `json:"status"`
		Students []attendance.Student `json:"students"`
	}

	StudentResponse struct {
		Status  string             `json:"status"`
		Student attendance.Student `json:"student"`
	}
)
