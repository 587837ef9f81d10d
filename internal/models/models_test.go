package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestUser_String(t *testing.T) {
	u := User{ID: 7, Username: "testuser", Email: "test@test.com"}
	assert.Equal(t, "<User #7: testuser, test@test.com>", u.String())
	assert.Equal(t, "<User #7: testuser, test@test.com>", fmt.Sprint(u))
}

func TestUser_ImageFallbacks(t *testing.T) {
	var u User
	assert.Equal(t, DefaultImageURL, u.Avatar())
	assert.Equal(t, DefaultHeaderImageURL, u.Header())

	u.ImageURL = "http://img/x.png"
	u.HeaderImageURL = "http://img/h.png"
	assert.Equal(t, "http://img/x.png", u.Avatar())
	assert.Equal(t, "http://img/h.png", u.Header())
}

func TestMessage_IsAuthoredBy(t *testing.T) {
	m := Message{UserID: 3}
	assert.True(t, m.IsAuthoredBy(3))
	assert.False(t, m.IsAuthoredBy(4))
	assert.False(t, Message{}.IsAuthoredBy(0), "anonymous never authors")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("User", 1), http.StatusNotFound},
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no"), http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no"), http.StatusForbidden},
		{"conflict", NewConflictError("taken", nil), http.StatusConflict},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewNotFoundError("Message", 2)), http.StatusNotFound},
		{"fiber error", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestAppError_UnwrapAndPublicMessage(t *testing.T) {
	cause := errors.New("db down")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Something went wrong.", PublicMessage(err))

	conflict := NewConflictError("Username already taken", cause)
	assert.True(t, IsCode(conflict, CodeConflict))
	assert.Equal(t, "Username already taken", PublicMessage(conflict))
	assert.Contains(t, conflict.Error(), "db down")
}
