package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/export"
)

// ExportFormat selects the rendering of a complaint register.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type complaintLister interface {
	ListAll(ctx context.Context) ([]models.Complaint, error)
}

type datasetRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered file ready to be streamed to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the complaint register for administrators.
type ExportService struct {
	complaints complaintLister
	renderers  map[ExportFormat]datasetRenderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(complaints complaintLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		complaints: complaints,
		renderers: map[ExportFormat]datasetRenderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// ExportComplaints renders every complaint in the requested format. Admin only.
func (s *ExportService) ExportComplaints(ctx context.Context, caller *models.User, format string) (*ExportResult, error) {
	if err := requireAdmin(caller, "only admins can export complaints"); err != nil {
		return nil, err
	}

	key := ExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if key == "" {
		key = ExportFormatCSV
	}
	renderer, ok := s.renderers[key]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	complaints, err := s.complaints.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to load complaints for export", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to export complaints")
	}

	generatedAt := s.now().UTC()
	content, err := renderer.Render(complaintDataset(complaints, generatedAt))
	if err != nil {
		s.logger.Error("failed to render complaint export", zap.String("format", string(key)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to export complaints")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("complaints_%s.%s", generatedAt.Format("20060102_150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func complaintDataset(complaints []models.Complaint, generatedAt time.Time) export.Dataset {
	rows := make([][]string, 0, len(complaints))
	for _, c := range complaints {
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			c.UserNickname,
			c.ViolatorNickname,
			c.IncidentDate,
			string(c.Status),
			c.Evidence,
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   "Complaint register " + generatedAt.Format("2006-01-02 15:04 UTC"),
		Headers: []string{"ID", "Reporter", "Violator", "Incident date", "Status", "Evidence", "Created", "Updated"},
		Widths:  []float64{1, 2, 2, 1.5, 1, 4, 2, 2},
		Rows:    rows,
	}
}
