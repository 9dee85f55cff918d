package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emre/registrar/internal/app/models"
	"github.com/emre/registrar/internal/app/models/dto"
	"github.com/emre/registrar/internal/app/repositories"
	"github.com/emre/registrar/internal/app/services"
	"github.com/emre/registrar/internal/middleware"
	"github.com/emre/registrar/internal/pkg/validation"
)

// StudentController handles the student record lifecycle endpoints
type StudentController struct {
	studentService services.StudentService
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService) *StudentController {
	return &StudentController{
		studentService: studentService,
	}
}

// ListStudents returns all student records, optionally filtered by
// program and admission year query parameters.
func (c *StudentController) ListStudents(ctx *gin.Context) {
	filter := repositories.StudentFilter{
		Program: ctx.Query("program"),
	}
	if yearStr := ctx.Query("admissionYear"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid admission year filter")
			errorDetail = errorDetail.WithDetails("admissionYear must be a valid number")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		filter.AdmissionYear = year
	}

	students, err := c.studentService.ListStudents(ctx, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(students))
}

// CreateStudent validates the submitted record, assigns it a fresh id
// and persists it.
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	student, ok := bindAndValidateStudent(ctx)
	if !ok {
		return
	}

	// The id is system-assigned; whatever the client sent is ignored
	student.ID = 0

	if err := c.studentService.CreateStudent(ctx, student); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(student))
}

// UpdateStudent re-validates the full payload and updates the record
// addressed by the path id in place.
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	id, ok := parseStudentID(ctx)
	if !ok {
		return
	}

	student, ok := bindAndValidateStudent(ctx)
	if !ok {
		return
	}

	// The path addresses the record; the id is immutable
	student.ID = id

	if err := c.studentService.UpdateStudent(ctx, student); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(student))
}

// DeleteStudent removes the record addressed by the path id. No
// payload validation; deletion is permanent and immediate.
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	id, ok := parseStudentID(ctx)
	if !ok {
		return
	}

	if err := c.studentService.DeleteStudent(ctx, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Student deleted successfully"))
}

// parseStudentID reads the :id path parameter. On failure it writes
// the 400 response and returns ok=false.
func parseStudentID(ctx *gin.Context) (int64, bool) {
	idStr := ctx.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student ID")
		errorDetail = errorDetail.WithDetails("Student ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// bindAndValidateStudent decodes the request body and runs the full
// schema validation, collecting every field violation into one 400
// response. Field-level decode problems like a malformed birth date
// are part of that list, not a separate bind failure. On failure it
// writes the response and returns ok=false.
func bindAndValidateStudent(ctx *gin.Context) (*models.Student, bool) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}

	student, fieldErrors, err := validation.DecodeStudent(body)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}

	if len(fieldErrors) > 0 {
		details := make([]dto.ErrorDetail, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, fe.Message)
			details = append(details, *detail.WithField(fe.Field))
		}
		ctx.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(details))
		return nil, false
	}

	return student, true
}
