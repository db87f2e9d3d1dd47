package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	appErr := NewInternalError(cause)

	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, "server_error", appErr.Code)
	assert.Equal(t, "Server error occurred", appErr.Message)
	assert.ErrorIs(t, appErr, cause)
}

func TestGetAppError(t *testing.T) {
	appErr := NewForbiddenError("permission_denied", "Permission denied")

	got, ok := GetAppError(appErr)
	require.True(t, ok)
	assert.Equal(t, appErr, got)

	wrapped := fmt.Errorf("handling request: %w", appErr)
	got, ok = GetAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, appErr, got)

	_, ok = GetAppError(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, NewUnauthorizedError("invalid_token", "Invalid token.").StatusCode)
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("user_not_found", "User not found").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, NewTooManyRequestsError("ip_blocked", "IP temporarily blocked").StatusCode)
	assert.Equal(t, http.StatusBadRequest, NewBadRequestError(nil, "bad input").StatusCode)
}
