package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/complaint-desk/internal/models"
)

// MessageRepository provides access to complaint_messages. Messages are append-only.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message and fills in id, created_at and the sender's display name.
func (r *MessageRepository) Create(ctx context.Context, msg *models.ComplaintMessage) error {
	const query = `WITH inserted AS (
		INSERT INTO complaint_messages (complaint_id, sender_id, message, is_admin_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, complaint_id, sender_id, message, is_admin_message, created_at
	)
	SELECT i.id, i.complaint_id, i.sender_id, i.message, i.is_admin_message, i.created_at, u.name AS sender_name
	FROM inserted i JOIN users u ON u.id = i.sender_id`
	if err := r.db.GetContext(ctx, msg, query, msg.ComplaintID, msg.SenderID, msg.Message, msg.IsAdminMessage); err != nil {
		return fmt.Errorf("create complaint message: %w", err)
	}
	return nil
}

// ListByComplaint returns the thread of a complaint in posting order.
func (r *MessageRepository) ListByComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintMessage, error) {
	const query = `SELECT cm.id, cm.complaint_id, cm.sender_id, cm.message, cm.is_admin_message, cm.created_at, u.name AS sender_name
	FROM complaint_messages cm
	JOIN users u ON u.id = cm.sender_id
	WHERE cm.complaint_id = $1
	ORDER BY cm.created_at ASC, cm.id ASC`
	messages := []models.ComplaintMessage{}
	if err := r.db.SelectContext(ctx, &messages, query, complaintID); err != nil {
		return nil, fmt.Errorf("list complaint messages: %w", err)
	}
	return messages, nil
}
