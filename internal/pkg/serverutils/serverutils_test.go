package serverutils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct {
	status int
	code   string
}

func (e statusErr) Error() string     { return "nope" }
func (e statusErr) StatusCode() int   { return e.status }
func (e statusErr) ErrorCode() string { return e.code }

type plainStatusErr struct{}

func (plainStatusErr) Error() string   { return "bad gateway message" }
func (plainStatusErr) StatusCode() int { return fiber.StatusBadGateway }

type payload struct {
	Target string `json:"target" validate:"required,oneof=english hindi hinglish"`
	Email  string `json:"email" validate:"omitempty,email"`
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func newApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Post("/", h)
	return app
}

func TestErrorHandlerMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"coded", statusErr{status: 403, code: "API_KEY_REQUIRED"}, 403, "API_KEY_REQUIRED"},
		{"status only", plainStatusErr{}, 502, "bad gateway message"},
		{"fiber error", fiber.NewError(404, "not here"), 404, "not here"},
		{"unknown", io.ErrUnexpectedEOF, 500, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(func(c *fiber.Ctx) error { return tt.err })
			resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decode(t, resp.Body)
			assert.Equal(t, tt.wantError, body["error"])
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestValidationFailureShape(t *testing.T) {
	app := newApp(func(c *fiber.Ctx) error {
		var req payload
		if err := ParseAndValidate(c, &req); err != nil {
			return err
		}
		return c.JSON(SuccessResponse("ok", req))
	})

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"target":"klingon","email":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, "validation failed", body["error"])
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields["target"], "one of")
	assert.Equal(t, "must be a valid email", fields["email"])
}

func TestValidationPasses(t *testing.T) {
	assert.NoError(t, ValidateRequest(payload{Target: "hindi"}))
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "s3cret"
	userID := uuid.New()
	token, _, err := IssueToken(secret, userID, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(JwtMiddleware(secret))
	app.Get("/", func(c *fiber.Ctx) error {
		id, err := UserID(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	got, _ := io.ReadAll(resp.Body)
	assert.Equal(t, userID.String(), string(got))

	resp, err = app.Test(httptest.NewRequest("GET", "/?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	other, _, _ := IssueToken("other-secret", userID, time.Hour)
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestExpiredToken(t *testing.T) {
	token, _, err := IssueToken("k", uuid.New(), -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("k", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
