package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/complaint-desk/internal/models"
)

const complaintColumns = `id, user_id, user_nickname, violator_nickname, to_char(incident_date, 'YYYY-MM-DD') AS incident_date, evidence, status, created_at, updated_at`

// ComplaintRepository provides database access for complaints.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository creates a ComplaintRepository.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create inserts a complaint. The database assigns id, status and timestamps.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint) error {
	query := `INSERT INTO complaints (user_id, user_nickname, violator_nickname, incident_date, evidence)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + complaintColumns
	err := r.db.GetContext(ctx, complaint, query,
		complaint.UserID,
		complaint.UserNickname,
		complaint.ViolatorNickname,
		complaint.IncidentDate,
		complaint.Evidence,
	)
	if err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	return nil
}

// FindByID returns a complaint by identifier.
func (r *ComplaintRepository) FindByID(ctx context.Context, id int64) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return &complaint, nil
}

// ListAll returns every complaint, newest first.
func (r *ComplaintRepository) ListAll(ctx context.Context) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints ORDER BY created_at DESC, id DESC`
	complaints := []models.Complaint{}
	if err := r.db.SelectContext(ctx, &complaints, query); err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	return complaints, nil
}

// ListByUser returns the complaints filed by one user, newest first.
func (r *ComplaintRepository) ListByUser(ctx context.Context, userID string) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	complaints := []models.Complaint{}
	if err := r.db.SelectContext(ctx, &complaints, query, userID); err != nil {
		return nil, fmt.Errorf("list complaints by user: %w", err)
	}
	return complaints, nil
}

// Close moves a complaint to the closed state. Closing an already closed
// complaint matches the row but leaves updated_at untouched.
func (r *ComplaintRepository) Close(ctx context.Context, id int64) (*models.Complaint, error) {
	query := `UPDATE complaints
		SET status = 'closed',
			updated_at = CASE WHEN status = 'closed' THEN updated_at ELSE NOW() END
		WHERE id = $1
		RETURNING ` + complaintColumns
	var complaint models.Complaint
	if err := r.db.GetContext(ctx, &complaint, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("close complaint: %w", err)
	}
	return &complaint, nil
}
