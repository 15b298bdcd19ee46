package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusdata/sga-enroll-api/internal/models"
	"github.com/campusdata/sga-enroll-api/internal/service"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
	"github.com/campusdata/sga-enroll-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param subject_id query int false "Filter by subject"
// @Param window_id query string false "Filter by enrollment window"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter, err := h.buildFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Create godoc
// @Summary Submit an enrollment for a subject
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID, err := studentScope(c, req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Get godoc
// @Summary Fetch one enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	var scope *int64
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		scope = claims.StudentID
	}
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Drop godoc
// @Summary Withdraw an active enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var studentID int64
	if claims.Role == models.RoleStudent {
		if claims.StudentID == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student"))
			return
		}
		studentID = *claims.StudentID
	} else {
		// Staff drop on behalf of the owning student.
		owned, err := h.enrollments.Get(c.Request.Context(), c.Param("id"), nil)
		if err != nil {
			response.Error(c, err)
			return
		}
		studentID = owned.StudentID
	}

	enrollment, err := h.enrollments.Drop(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Resolve godoc
// @Summary Confirm or reject a pending enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.ResolveEnrollmentRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/resolution [put]
func (h *EnrollmentHandler) Resolve(c *gin.Context) {
	var req service.ResolveEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Resolve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Export godoc
// @Summary Export enrollments as CSV
// @Tags Enrollments
// @Produce text/csv
// @Param student_id query int false "Filter by student"
// @Param window_id query string false "Filter by enrollment window"
// @Param status query string false "Filter by status"
// @Success 200 {string} string "CSV document"
// @Security BearerAuth
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	filter, err := h.buildFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	out, err := h.enrollments.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="enrollments.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}

func (h *EnrollmentHandler) buildFilter(c *gin.Context) (models.EnrollmentFilter, error) {
	var filter models.EnrollmentFilter
	if raw := c.Query("student_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid student_id parameter")
		}
		filter.StudentID = &id
	}
	if raw := c.Query("subject_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid subject_id parameter")
		}
		filter.SubjectID = &id
	}
	filter.WindowID = c.Query("window_id")
	filter.Status = models.EnrollmentStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	// Student tokens only see their own enrollments.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		filter.StudentID = claims.StudentID
	}
	return filter, nil
}
