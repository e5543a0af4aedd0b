package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("load complaint: %w", Clone(ErrNotFound, "complaint not found"))

	appErr := FromError(err)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "complaint not found", appErr.Message)
}

func TestFromErrorHidesUntypedErrors(t *testing.T) {
	appErr := FromError(errors.New("pq: connection refused"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, ErrInternal.Message, appErr.Message)
	assert.EqualError(t, appErr.Unwrap(), "pq: connection refused")
}

func TestIsComparesByCode(t *testing.T) {
	assert.ErrorIs(t, Clone(ErrForbidden, "admins only"), ErrForbidden)
	assert.ErrorIs(t, Internal(errors.New("boom"), "failed"), ErrInternal)
	assert.NotErrorIs(t, ErrComplaintClosed, ErrConflict)
}

func TestCloneLeavesOriginalUntouched(t *testing.T) {
	clone := Clone(ErrValidation, "evidence is required")

	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, "evidence is required", clone.Message)
	assert.Nil(t, Clone(nil, "x"))
}
