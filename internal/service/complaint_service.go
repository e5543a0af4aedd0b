package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/markup"
)

type complaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint) error
	FindByID(ctx context.Context, id int64) (*models.Complaint, error)
	ListAll(ctx context.Context) ([]models.Complaint, error)
	ListByUser(ctx context.Context, userID string) ([]models.Complaint, error)
	Close(ctx context.Context, id int64) (*models.Complaint, error)
}

type complaintMessageRepository interface {
	Create(ctx context.Context, msg *models.ComplaintMessage) error
	ListByComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintMessage, error)
}

type messagePublisher interface {
	Publish(msg models.ComplaintMessage)
}

// ComplaintService owns complaint state transitions and thread authorization.
type ComplaintService struct {
	complaints complaintRepository
	messages   complaintMessageRepository
	events     messagePublisher
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
	policy     models.LifecyclePolicy
}

// ComplaintServiceOptions carries the optional collaborators of ComplaintService.
type ComplaintServiceOptions struct {
	Policy    models.LifecyclePolicy
	Validator *validator.Validate
	Logger    *zap.Logger
	Metrics   *MetricsService
	Events    messagePublisher
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(complaints complaintRepository, messages complaintMessageRepository, opts ComplaintServiceOptions) *ComplaintService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	return &ComplaintService{
		complaints: complaints,
		messages:   messages,
		events:     opts.Events,
		validator:  opts.Validator,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		policy:     opts.Policy,
	}
}

// Create files a new active complaint owned by the caller.
func (s *ComplaintService) Create(ctx context.Context, caller *models.User, req models.CreateComplaintRequest) (*models.Complaint, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}

	req.UserNickname = strings.TrimSpace(req.UserNickname)
	req.ViolatorNickname = strings.TrimSpace(req.ViolatorNickname)
	req.IncidentDate = strings.TrimSpace(req.IncidentDate)
	req.Evidence = strings.TrimSpace(req.Evidence)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "userNickname, violatorNickname, incidentDate (YYYY-MM-DD) and evidence are required")
	}

	complaint := &models.Complaint{
		UserID:           caller.ID,
		UserNickname:     req.UserNickname,
		ViolatorNickname: req.ViolatorNickname,
		IncidentDate:     req.IncidentDate,
		Evidence:         req.Evidence,
		Status:           models.ComplaintActive,
	}

	start := time.Now()
	err := s.complaints.Create(ctx, complaint)
	s.metrics.ObserveDBQuery("complaints.create", time.Since(start))
	if err != nil {
		return nil, s.internal(err, "failed to create complaint")
	}

	s.metrics.ComplaintCreated()
	renderComplaint(complaint)
	return complaint, nil
}

// List returns every complaint to admins and only owned complaints to everyone else.
func (s *ComplaintService) List(ctx context.Context, caller *models.User) ([]models.Complaint, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}

	var (
		complaints []models.Complaint
		err        error
		start      = time.Now()
	)
	if caller.IsAdmin() {
		complaints, err = s.complaints.ListAll(ctx)
		s.metrics.ObserveDBQuery("complaints.list_all", time.Since(start))
	} else {
		complaints, err = s.complaints.ListByUser(ctx, caller.ID)
		s.metrics.ObserveDBQuery("complaints.list_by_user", time.Since(start))
	}
	if err != nil {
		return nil, s.internal(err, "failed to list complaints")
	}

	for i := range complaints {
		renderComplaint(&complaints[i])
	}
	return complaints, nil
}

// Close moves a complaint to closed. Closing a closed complaint succeeds without changes.
func (s *ComplaintService) Close(ctx context.Context, caller *models.User, id int64) (*models.Complaint, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can close complaints")
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsClosed() {
		renderComplaint(current)
		return current, nil
	}

	start := time.Now()
	closed, err := s.complaints.Close(ctx, id)
	s.metrics.ObserveDBQuery("complaints.close", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, s.internal(err, "failed to close complaint")
	}

	s.metrics.ComplaintClosed()
	s.logger.Info("complaint closed", zap.Int64("complaint_id", id), zap.String("closed_by", caller.ID))
	renderComplaint(closed)
	return closed, nil
}

// AuthorizeThread checks that caller may read the thread of complaint id.
// It returns the complaint when a lookup was needed to decide.
func (s *ComplaintService) AuthorizeThread(ctx context.Context, caller *models.User, id int64) (*models.Complaint, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}
	if !s.policy.RestrictThreads {
		return nil, nil
	}

	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && complaint.UserID != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "complaint belongs to another user")
	}
	return complaint, nil
}

// ListMessages returns the complaint thread in posting order.
func (s *ComplaintService) ListMessages(ctx context.Context, caller *models.User, id int64) ([]models.ComplaintMessage, error) {
	if _, err := s.AuthorizeThread(ctx, caller, id); err != nil {
		return nil, err
	}

	start := time.Now()
	messages, err := s.messages.ListByComplaint(ctx, id)
	s.metrics.ObserveDBQuery("complaint_messages.list", time.Since(start))
	if err != nil {
		return nil, s.internal(err, "failed to list messages")
	}

	for i := range messages {
		messages[i].MessageHTML = markup.Render(messages[i].Message)
	}
	return messages, nil
}

// PostMessage appends a trimmed message to the thread. The admin flag is
// captured from the caller's role now and stored with the message.
func (s *ComplaintService) PostMessage(ctx context.Context, caller *models.User, id int64, text string) (*models.ComplaintMessage, error) {
	if caller == nil {
		return nil, errUnauthenticated()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}

	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.policy.RestrictThreads && !caller.IsAdmin() && complaint.UserID != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "complaint belongs to another user")
	}
	if s.policy.RequireActiveForMessages && complaint.IsClosed() {
		return nil, appErrors.Clone(appErrors.ErrComplaintClosed, "complaint is closed")
	}

	msg := &models.ComplaintMessage{
		ComplaintID:    id,
		SenderID:       caller.ID,
		Message:        text,
		IsAdminMessage: caller.IsAdmin(),
	}

	start := time.Now()
	err = s.messages.Create(ctx, msg)
	s.metrics.ObserveDBQuery("complaint_messages.create", time.Since(start))
	if err != nil {
		return nil, s.internal(err, "failed to post message")
	}

	s.metrics.MessagePosted(msg.IsAdminMessage)
	msg.MessageHTML = markup.Render(msg.Message)
	if s.events != nil {
		s.events.Publish(*msg)
	}
	return msg, nil
}

func (s *ComplaintService) find(ctx context.Context, id int64) (*models.Complaint, error) {
	start := time.Now()
	complaint, err := s.complaints.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("complaints.find", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "complaint not found")
		}
		return nil, s.internal(err, "failed to load complaint")
	}
	return complaint, nil
}

func (s *ComplaintService) internal(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Internal(err, message)
}

func renderComplaint(c *models.Complaint) {
	c.EvidenceHTML = markup.Render(c.Evidence)
}

func errUnauthenticated() error {
	return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
}
