package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/response"
)

type complaintService interface {
	Create(ctx context.Context, caller *models.User, req models.CreateComplaintRequest) (*models.Complaint, error)
	List(ctx context.Context, caller *models.User) ([]models.Complaint, error)
	Close(ctx context.Context, caller *models.User, id int64) (*models.Complaint, error)
	ListMessages(ctx context.Context, caller *models.User, id int64) ([]models.ComplaintMessage, error)
	PostMessage(ctx context.Context, caller *models.User, id int64, text string) (*models.ComplaintMessage, error)
}

// ComplaintHandler exposes the complaint lifecycle over HTTP.
type ComplaintHandler struct {
	service complaintService
}

// NewComplaintHandler constructs a ComplaintHandler.
func NewComplaintHandler(svc complaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

// List godoc
// @Summary List complaints
// @Description Admins see every complaint, other users only their own. Newest first.
// @Tags Complaints
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	complaints, err := h.service.List(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints)
}

// Create godoc
// @Summary File a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Param payload body models.CreateComplaintRequest true "Complaint payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) Create(c *gin.Context) {
	var req models.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}

	complaint, err := h.service.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, complaint)
}

// Close godoc
// @Summary Close a complaint
// @Description Admin only. Closing a closed complaint succeeds without changes.
// @Tags Complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id}/close [post]
func (h *ComplaintHandler) Close(c *gin.Context) {
	id, err := complaintIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	complaint, err := h.service.Close(c.Request.Context(), currentUser(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint)
}

// ListMessages godoc
// @Summary List thread messages
// @Description Oldest first, with the sender's display name
// @Tags Complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id}/messages [get]
func (h *ComplaintHandler) ListMessages(c *gin.Context) {
	id, err := complaintIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), currentUser(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages)
}

// PostMessage godoc
// @Summary Post a thread message
// @Tags Complaints
// @Accept json
// @Produce json
// @Param id path int true "Complaint ID"
// @Param payload body models.PostMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /complaints/{id}/messages [post]
func (h *ComplaintHandler) PostMessage(c *gin.Context) {
	id, err := complaintIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	msg, err := h.service.PostMessage(c.Request.Context(), currentUser(c), id, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}
