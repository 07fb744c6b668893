package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewDatabaseError(t *testing.T) {
	cases := []struct {
		name   string
		cause  error
		status int
	}{
		{"postgres unique", errors.New(`ERROR: duplicate key value violates unique constraint "idx_recipes_name"`), http.StatusConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: recipes.name"), http.StatusConflict},
		{"foreign key", errors.New("FOREIGN KEY constraint failed"), http.StatusBadRequest},
		{"check", errors.New(`violates check constraint "chk_recipes_cooking_time"`), http.StatusBadRequest},
		{"not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"connection", errors.New("failed to connect: connection refused"), http.StatusServiceUnavailable},
		{"other", errors.New("syntax error"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewDatabaseError("create", "recipe", tc.cause)
			assert.Equal(t, tc.status, err.StatusCode)
			assert.Equal(t, tc.cause, err.Cause)
			assert.Equal(t, tc.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("tag 42 not found")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("tx: %w", err)))
	assert.Contains(t, err.Error(), "tag 42 not found")
	assert.False(t, IsNotFound(NewBadRequestError("tag 42 malformed")))
}

func TestNewDatabaseError_PassesApiErrThrough(t *testing.T) {
	original := NewPermissionDeniedError("only the author may change this recipe")
	wrapped := NewDatabaseError("update", "recipe", fmt.Errorf("tx: %w", original))

	assert.Same(t, original, wrapped)
	assert.True(t, IsPermissionDeniedError(wrapped))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(NewSelfSubscriptionError()))
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("wrapped: %w", NewNotFavoritedError())))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
	assert.True(t, IsUniqueViolation(NewDatabaseError("create", "favorite", errors.New("duplicate key"))))
}
