package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (*http.Response, APIResponse) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)

	var body APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestSendSuccess(t *testing.T) {
	resp, body := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "done", fiber.Map{"count": 3})
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	require.Equal(t, "done", body.Message)
	require.NotNil(t, body.Data)
}

func TestSendSuccessDefaultsMessage(t *testing.T) {
	_, body := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccess(c, "", nil)
	})

	require.Equal(t, "success", body.Message)
}

func TestSendSuccessWithStatus(t *testing.T) {
	resp, body := performRequest(t, func(c *fiber.Ctx) error {
		return SendSuccessWithStatus(c, fiber.StatusCreated, "created", nil)
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)
}

func TestSendError(t *testing.T) {
	resp, body := performRequest(t, func(c *fiber.Ctx) error {
		return SendError(c, fiber.StatusConflict, "already running")
	})

	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.False(t, body.Success)
	require.Equal(t, "already running", body.Message)
	require.Nil(t, body.Data)
}
