package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
}

// UserService handles user administration.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns every user, newest first. Admin only.
func (s *UserService) List(ctx context.Context, caller *models.User) ([]models.User, error) {
	if err := requireAdmin(caller, "only admins can list users"); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list users")
	}
	return users, nil
}

// SetRole changes the role of target. Admins may demote themselves and the last remaining admin.
func (s *UserService) SetRole(ctx context.Context, caller *models.User, targetID string, req models.SetRoleRequest) (*models.User, error) {
	if err := requireAdmin(caller, "only admins can change roles"); err != nil {
		return nil, err
	}

	req.Role = strings.TrimSpace(req.Role)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "role is required")
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "role must be user or admin")
	}

	user, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		s.logger.Error("failed to update user role", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update user role")
	}

	s.logger.Info("user role changed",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role.String()),
		zap.String("changed_by", caller.ID),
	)
	return user, nil
}

func requireAdmin(caller *models.User, message string) error {
	if caller == nil {
		return errUnauthenticated()
	}
	if !caller.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, message)
	}
	return nil
}
