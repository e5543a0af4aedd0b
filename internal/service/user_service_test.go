package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
)

func newUserServiceFixture() (*UserService, *memoryStore) {
	store := newMemoryStore()
	return NewUserService(fakeUserRepo{store}, validator.New(), zap.NewNop()), store
}

func TestUserServiceListRequiresAdmin(t *testing.T) {
	svc, store := newUserServiceFixture()
	user := store.addUser("u1", "User", models.RoleUser)

	_, err := svc.List(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.List(context.Background(), user)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUserServiceListNewestFirst(t *testing.T) {
	svc, store := newUserServiceFixture()
	admin := store.addUser("a1", "Admin", models.RoleAdmin)
	store.addUser("u1", "User", models.RoleUser)

	users, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "a1", users[1].ID)
}

func TestUserServiceSetRole(t *testing.T) {
	svc, store := newUserServiceFixture()
	admin := store.addUser("a1", "Admin", models.RoleAdmin)
	store.addUser("u1", "User", models.RoleUser)

	updated, err := svc.SetRole(context.Background(), admin, "u1", models.SetRoleRequest{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.True(t, store.user("u1").IsAdmin())
}

func TestUserServiceSetRoleErrors(t *testing.T) {
	svc, store := newUserServiceFixture()
	admin := store.addUser("a1", "Admin", models.RoleAdmin)
	user := store.addUser("u1", "User", models.RoleUser)

	_, err := svc.SetRole(context.Background(), user, "a1", models.SetRoleRequest{Role: "user"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.SetRole(context.Background(), admin, "u1", models.SetRoleRequest{Role: "superuser"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.SetRole(context.Background(), admin, "u1", models.SetRoleRequest{Role: " "})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.SetRole(context.Background(), admin, "missing", models.SetRoleRequest{Role: "admin"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	store.failWith = errStoreDown
	_, err = svc.SetRole(context.Background(), admin, "u1", models.SetRoleRequest{Role: "admin"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestUserServiceAllowsDemotingLastAdmin(t *testing.T) {
	svc, store := newUserServiceFixture()
	admin := store.addUser("a1", "Admin", models.RoleAdmin)

	updated, err := svc.SetRole(context.Background(), admin, "a1", models.SetRoleRequest{Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, updated.Role)
}
