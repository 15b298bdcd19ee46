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

// WindowHandler exposes enrollment window endpoints.
type WindowHandler struct {
	windows *service.WindowService
}

// NewWindowHandler constructs WindowHandler.
func NewWindowHandler(windows *service.WindowService) *WindowHandler {
	return &WindowHandler{windows: windows}
}

// List godoc
// @Summary List enrollment windows
// @Tags Windows
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Param period query string false "Filter by period restriction"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /windows [get]
func (h *WindowHandler) List(c *gin.Context) {
	var filter models.WindowFilter
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid active parameter"))
			return
		}
		filter.Active = &active
	}
	filter.Period = models.WindowPeriod(strings.ToUpper(c.Query("period")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	windows, pagination, err := h.windows.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, pagination)
}

// Current godoc
// @Summary Fetch the window open right now
// @Tags Windows
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /windows/current [get]
func (h *WindowHandler) Current(c *gin.Context) {
	window, err := h.windows.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Get godoc
// @Summary Fetch one enrollment window
// @Tags Windows
// @Produce json
// @Param id path string true "Window ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /windows/{id} [get]
func (h *WindowHandler) Get(c *gin.Context) {
	window, err := h.windows.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Create godoc
// @Summary Create an enrollment window
// @Tags Windows
// @Accept json
// @Produce json
// @Param payload body service.WindowRequest true "Window payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /windows [post]
func (h *WindowHandler) Create(c *gin.Context) {
	var req service.WindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	window, err := h.windows.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// Update godoc
// @Summary Update an enrollment window
// @Tags Windows
// @Accept json
// @Produce json
// @Param id path string true "Window ID"
// @Param payload body service.WindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /windows/{id} [put]
func (h *WindowHandler) Update(c *gin.Context) {
	var req service.WindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	window, err := h.windows.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Activate godoc
// @Summary Activate a window and deactivate the rest
// @Tags Windows
// @Produce json
// @Param id path string true "Window ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /windows/{id}/activation [put]
func (h *WindowHandler) Activate(c *gin.Context) {
	window, err := h.windows.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}
