package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"coursemarket/backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", &services.Error{Kind: services.KindNotFound, Message: "Course not found"}, fiber.StatusNotFound, "Course not found"},
		{"forbidden", &services.Error{Kind: services.KindForbidden, Message: "nope"}, fiber.StatusForbidden, "nope"},
		{"conflict", &services.Error{Kind: services.KindConflict, Message: "dup"}, fiber.StatusConflict, "dup"},
		{"upstream", &services.Error{Kind: services.KindUpstream, Message: "quota exceeded"}, fiber.StatusBadGateway, "quota exceeded"},
		{"validation", &services.Error{Kind: services.KindValidation, Message: "Validation failed",
			Details: map[string]string{"rating": "must be at least 1"}}, fiber.StatusBadRequest, "Validation failed"},
		{"wrapped", fmt.Errorf("handler: %w", &services.Error{Kind: services.KindNotFound, Message: "gone"}), fiber.StatusNotFound, "gone"},
		{"foreign", errors.New("disk on fire"), fiber.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return HandleError(c, tt.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ValidationError(c, "Validation failed", map[string]string{"comment": "too short"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Validation Error", body.Error)
	assert.Equal(t, "too short", body.Details["comment"])
}
