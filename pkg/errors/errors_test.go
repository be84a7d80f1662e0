package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewNotFound("appointment", nil), http.StatusNotFound},
		{NewNotEligible("appointment", nil), http.StatusNotFound},
		{NewBadRequest("bad", nil), http.StatusBadRequest},
		{NewValidation("date is required"), http.StatusBadRequest},
		{Unauthorized(nil), http.StatusUnauthorized},
		{NewForbidden("denied", nil), http.StatusForbidden},
		{NewConflict("slot taken", nil), http.StatusConflict},
		{NewInternal(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestCodeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("book: %w", NewConflict("slot taken", nil))
	assert.Equal(t, ErrConflict, CodeOf(err))
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "slot taken", appErr.Message)
}

func TestNewValidation_UsesFirstDetailAsMessage(t *testing.T) {
	err := NewValidation("date is required", "time is required")
	assert.Equal(t, "date is required", err.Message)
	assert.Len(t, err.Details, 2)
	assert.Equal(t, "validation failed", NewValidation().Message)
}

func TestAppError_Error(t *testing.T) {
	err := NewNotFound("user", stderrors.New("sql: no rows"))
	assert.Equal(t, "user not found: sql: no rows", err.Error())
	assert.True(t, stderrors.Is(err, err.Err))
}
