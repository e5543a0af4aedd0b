package models

import "time"

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	ComplaintActive ComplaintStatus = "active"
	ComplaintClosed ComplaintStatus = "closed"
)

// Complaint is a grievance filed by a user against another party.
type Complaint struct {
	ID               int64           `db:"id" json:"id"`
	UserID           string          `db:"user_id" json:"user_id"`
	UserNickname     string          `db:"user_nickname" json:"user_nickname"`
	ViolatorNickname string          `db:"violator_nickname" json:"violator_nickname"`
	IncidentDate     string          `db:"incident_date" json:"incident_date"`
	Evidence         string          `db:"evidence" json:"evidence"`
	EvidenceHTML     string          `db:"-" json:"evidence_html,omitempty"`
	Status           ComplaintStatus `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// IsClosed reports whether the complaint reached its terminal state.
func (c *Complaint) IsClosed() bool {
	return c.Status == ComplaintClosed
}

// ComplaintMessage is one entry of a complaint thread. IsAdminMessage records
// the sender's role at write time and is never recomputed.
type ComplaintMessage struct {
	ID             int64     `db:"id" json:"id"`
	ComplaintID    int64     `db:"complaint_id" json:"complaint_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Message        string    `db:"message" json:"message"`
	MessageHTML    string    `db:"-" json:"message_html,omitempty"`
	IsAdminMessage bool      `db:"is_admin_message" json:"is_admin_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	SenderName     string    `db:"sender_name" json:"sender_name,omitempty"`
}

// LifecyclePolicy carries the thread authorization switches.
type LifecyclePolicy struct {
	// RestrictThreads limits reading and posting messages to the complaint owner and admins.
	RestrictThreads bool
	// RequireActiveForMessages rejects new messages once the complaint is closed.
	RequireActiveForMessages bool
}

// DefaultLifecyclePolicy enables both thread restrictions.
func DefaultLifecyclePolicy() LifecyclePolicy {
	return LifecyclePolicy{RestrictThreads: true, RequireActiveForMessages: true}
}

// CreateComplaintRequest is the payload for filing a complaint.
type CreateComplaintRequest struct {
	UserNickname     string `json:"userNickname" validate:"required"`
	ViolatorNickname string `json:"violatorNickname" validate:"required"`
	IncidentDate     string `json:"incidentDate" validate:"required,datetime=2006-01-02"`
	Evidence         string `json:"evidence" validate:"required"`
}

// PostMessageRequest is the payload for appending to a complaint thread.
type PostMessageRequest struct {
	Message string `json:"message"`
}

// SetRoleRequest is the payload for changing a user's role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
