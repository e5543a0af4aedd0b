package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/repository"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/jobs"
)

const (
	jobTypePublishMessage = "complaint_message.publish"
	publishTimeout        = 5 * time.Second
)

type messageBus interface {
	Enabled() bool
	Publish(ctx context.Context, complaintID int64, payload []byte) error
	Subscribe(ctx context.Context, complaintID int64) (<-chan []byte, error)
}

// MessageEventService pushes stored thread messages to live subscribers.
// Publication is asynchronous and best effort; the database stays the source of truth.
type MessageEventService struct {
	bus     messageBus
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMessageEventService wires the publication queue to bus. Events that
// exhaust their retries are counted as dropped.
func NewMessageEventService(bus messageBus, metrics *MetricsService, cfg jobs.QueueConfig) *MessageEventService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = publishTimeout
	}
	s := &MessageEventService{bus: bus, metrics: metrics, logger: cfg.Logger}
	cfg.OnDrop = func(jobs.Job, error) { s.metrics.MessageEventDropped() }
	s.queue = jobs.NewQueue("complaint-message-events", s.handle, cfg)
	return s
}

// Start launches the publication workers.
func (s *MessageEventService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *MessageEventService) Stop() {
	s.queue.Stop()
}

// Enabled reports whether live streaming is available.
func (s *MessageEventService) Enabled() bool {
	return s != nil && s.bus != nil && s.bus.Enabled()
}

// Publish schedules msg for delivery to subscribers of its complaint.
func (s *MessageEventService) Publish(msg models.ComplaintMessage) {
	if !s.Enabled() {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: jobTypePublishMessage, Payload: msg}); err != nil {
		s.logger.Warn("failed to enqueue message event", zap.Int64("complaint_id", msg.ComplaintID), zap.Error(err))
		s.metrics.MessageEventDropped()
	}
}

// Subscribe streams newly posted messages of one complaint until ctx ends.
func (s *MessageEventService) Subscribe(ctx context.Context, complaintID int64) (<-chan []byte, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "live message stream is not configured")
	}
	ch, err := s.bus.Subscribe(ctx, complaintID)
	if err != nil {
		if errors.Is(err, repository.ErrBusDisabled) {
			return nil, appErrors.Clone(appErrors.ErrUnavailable, "live message stream is not configured")
		}
		s.logger.Error("failed to subscribe to message events", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "live message stream unavailable")
	}
	return ch, nil
}

func (s *MessageEventService) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(models.ComplaintMessage)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}
	return s.bus.Publish(ctx, msg.ComplaintID, payload)
}
