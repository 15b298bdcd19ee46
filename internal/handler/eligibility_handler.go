package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusdata/sga-enroll-api/internal/service"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
	"github.com/campusdata/sga-enroll-api/pkg/response"
)

// EligibilityHandler exposes the classification endpoint.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
}

// NewEligibilityHandler constructs EligibilityHandler.
func NewEligibilityHandler(eligibility *service.EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility}
}

// Report godoc
// @Summary Classify every catalog subject for a student
// @Tags Eligibility
// @Produce json
// @Param id path int true "Student ID"
// @Param selected query string false "Comma-separated subject IDs tentatively selected this session"
// @Param plan_id query int false "Restrict the catalog to one study plan"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/eligibility [get]
func (h *EligibilityHandler) Report(c *gin.Context) {
	studentID, err := pathInt64(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	selected, err := parseIDList(c.Query("selected"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var planID *int64
	if raw := c.Query("plan_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid plan_id parameter"))
			return
		}
		planID = &id
	}

	report, err := h.eligibility.Report(c.Request.Context(), studentID, planID, selected)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "selected must be a comma-separated list of subject IDs")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
