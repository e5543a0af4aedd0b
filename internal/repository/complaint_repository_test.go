package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk/internal/models"
)

var complaintRowColumns = []string{"id", "user_id", "user_nickname", "violator_nickname", "incident_date", "evidence", "status", "created_at", "updated_at"}

func TestCreateComplaint(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO complaints").
		WithArgs("u1", "A", "B", "2024-01-01", "screenshot.png").
		WillReturnRows(sqlmock.NewRows(complaintRowColumns).
			AddRow(int64(7), "u1", "A", "B", "2024-01-01", "screenshot.png", "active", now, now))

	complaint := &models.Complaint{UserID: "u1", UserNickname: "A", ViolatorNickname: "B", IncidentDate: "2024-01-01", Evidence: "screenshot.png"}
	require.NoError(t, repo.Create(context.Background(), complaint))
	assert.Equal(t, int64(7), complaint.ID)
	assert.Equal(t, models.ComplaintActive, complaint.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListComplaintsByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE user_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(complaintRowColumns).
			AddRow(int64(2), "u1", "A", "C", "2024-02-01", "e2", "active", now, now).
			AddRow(int64(1), "u1", "A", "B", "2024-01-01", "e1", "closed", now.Add(-time.Minute), now))

	complaints, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, complaints, 2)
	assert.Equal(t, int64(2), complaints[0].ID)
	assert.True(t, complaints[1].IsClosed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAllComplaintsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM complaints ORDER BY created_at DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows(complaintRowColumns))

	complaints, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, complaints)
	assert.Empty(t, complaints)
}

func TestCloseComplaintKeepsUpdatedAtWhenAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("updated_at = CASE WHEN status = 'closed' THEN updated_at ELSE NOW() END")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(complaintRowColumns).
			AddRow(int64(3), "u1", "A", "B", "2024-01-01", "e", "closed", now, now))

	complaint, err := repo.Close(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, complaint.IsClosed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseComplaintNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	mock.ExpectQuery("UPDATE complaints").WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	_, err := repo.Close(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindComplaintByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(complaintRowColumns).
			AddRow(int64(5), "u1", "A", "B", "2024-01-01", "e", "active", now, now))

	complaint, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", complaint.IncidentDate)
}
