package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"risk-review-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := map[apperror.Kind]int{
		apperror.KindInvalidInput:        422,
		apperror.KindNotFound:            404,
		apperror.KindGateNotMet:          409,
		apperror.KindUpstreamMalformed:   502,
		apperror.KindUpstreamThrottled:   429,
		apperror.KindUpstreamUnavailable: 503,
		apperror.KindInternal:            500,
	}
	for kind, status := range cases {
		assert.Equal(t, status, StatusFor(kind), string(kind))
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/gate", func(c *fiber.Ctx) error {
		return fmt.Errorf("release: %w", apperror.GateNotMet("score 50 is below 70"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("connection reset by peer")
	})
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusForbidden, "Could not validate credentials")
	})

	tests := []struct {
		path    string
		status  int
		kind    string
		message string
	}{
		{"/gate", 409, "GATE_NOT_MET", "score 50 is below 70"},
		{"/plain", 500, "INTERNAL", "internal server error"},
		{"/forbidden", 403, "FORBIDDEN", "Could not validate credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.kind, body.Detail.Error)
			assert.Equal(t, tt.message, body.Detail.Message)
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 404, StatusOf(apperror.NotFound("x")))
	assert.Equal(t, 403, StatusOf(fiber.NewError(403, "no")))
	assert.Equal(t, 500, StatusOf(errors.New("boom")))
}
