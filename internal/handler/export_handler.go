package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/service"
	"github.com/noah-isme/complaint-desk/pkg/response"
)

type complaintExporter interface {
	ExportComplaints(ctx context.Context, caller *models.User, format string) (*service.ExportResult, error)
}

// ExportHandler streams the complaint register as a file download.
type ExportHandler struct {
	service complaintExporter
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc complaintExporter) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Complaints godoc
// @Summary Export the complaint register
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/complaints/export [get]
func (h *ExportHandler) Complaints(c *gin.Context) {
	result, err := h.service.ExportComplaints(c.Request.Context(), currentUser(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
