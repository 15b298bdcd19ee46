package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusdata/sga-enroll-api/internal/service"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
	"github.com/campusdata/sga-enroll-api/pkg/response"
)

// ImportHandler exposes bulk catalog import endpoints.
type ImportHandler struct {
	imports  *service.ImportService
	enabled  bool
	maxBytes int64
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService, enabled bool, maxBytes int64) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &ImportHandler{imports: imports, enabled: enabled, maxBytes: maxBytes}
}

// Subjects godoc
// @Summary Import catalog subjects from an xlsx document
// @Tags Imports
// @Accept application/octet-stream
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /imports/subjects [post]
func (h *ImportHandler) Subjects(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "imports are disabled"))
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	defer body.Close()

	summary, err := h.imports.ImportSubjects(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
