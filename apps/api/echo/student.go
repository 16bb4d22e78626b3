package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students")

	sg.POST("/enroll", api.enroll)
	sg.GET("/fees/preview", api.previewFees)
	sg.GET("/aadhar/:number", api.checkAadhar)
	sg.PUT("/enrollments/:id", api.updateEnrollment)

	sg.GET("/:id", api.retrieve)
	sg.GET("/:id/payments", api.payments)
	sg.PATCH("/:id/login", api.setLogin)
}

// Handlers

func (api *studentApi) enroll(ctx echo.Context) error {
	var data student.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}

	res, err := api.svc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *studentApi) updateEnrollment(ctx echo.Context) error {
	var data student.UpdateEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnrollment")
	}

	res, err := api.svc.UpdateEnrollment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) previewFees(ctx echo.Context) error {
	courseID := ctx.QueryParam("course_id")
	if courseID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
	}

	opts := student.EnrollmentOptions{
		HostelOpted:    queryBool(ctx, "is_hostel_opted"),
		MessOpted:      queryBool(ctx, "is_mess_opted"),
		IGSTApplicable: queryBool(ctx, "igst_applicable"),
	}
	if v := ctx.QueryParam("extra_discount_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "extra_discount_amount", Error: "must be a valid amount"})
		}
		opts.ExtraDiscountAmount = d
	}

	fees, err := api.svc.CalculateFees(ctx.Request().Context(), courseID, opts)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *studentApi) checkAadhar(ctx echo.Context) error {
	number := ctx.Param("number")
	if err := api.validate.Var(number, "required,aadhar"); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "aadhar_number", Error: "a valid 12-digit Aadhaar number is required"})
	}

	res, err := api.svc.CheckAadhar(ctx.Request().Context(), number)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) payments(ctx echo.Context) error {
	entries, err := api.svc.PaymentHistory(ctx.Request().Context(), ctx.Param("id"), ctx.QueryParam("enrollment_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

type loginToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (api *studentApi) setLogin(ctx echo.Context) error {
	var data loginToggleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginToggleRequest")
	}
	if data.Enabled == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "enabled", Error: "this field is required"})
	}

	if err := api.svc.SetLoginEnabled(ctx.Request().Context(), ctx.Param("id"), *data.Enabled, ""); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"enabled": *data.Enabled})
}

func queryBool(ctx echo.Context, name string) bool {
	v, _ := strconv.ParseBool(ctx.QueryParam(name))
	return v
}
