package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notely-be/internal/config"
	"notely-be/internal/dto"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/pkg/serverutils"
	"notely-be/internal/service"
	"notely-be/pkg/llm"
	"notely-be/pkg/llm/factory"
	"notely-be/pkg/stream"
	"notely-be/pkg/variant"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

func bearer(t *testing.T) string {
	t.Helper()
	token, _, err := serverutils.IssueToken(testSecret, uuid.New(), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func newTestApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	register(app.Group("/api"))
	return app
}

func jsonRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t))
	return req
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

// keylessAi behaves like a user who never configured a provider key.
type keylessAi struct {
	service.IAiService
}

func (keylessAi) Transform(ctx context.Context, userId uuid.UUID, req *dto.TransformRequest) (*variant.Variant, error) {
	return nil, service.ErrAPIKeyRequired
}

func (keylessAi) PrepareGeneration(ctx context.Context, userId uuid.UUID) (*service.Generation, error) {
	return nil, service.ErrAPIKeyRequired
}

func TestAiEndpointsRequireKey(t *testing.T) {
	app := newTestApp(NewAiController(keylessAi{}, testSecret, logger.NewNopLogger()).RegisterRoutes)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/ai/v1/transform",
		`{"target":"hindi","section":{"title":"Intro"}}`))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "API_KEY_REQUIRED", decodeBody(t, resp.Body)["error"])

	resp, err = app.Test(jsonRequest(t, "POST", "/api/ai/v1/generate", `{"prompt":"go"}`))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "application/json", strings.Split(resp.Header.Get("Content-Type"), ";")[0])
}

func TestAiValidationAndAuth(t *testing.T) {
	app := newTestApp(NewAiController(keylessAi{}, testSecret, logger.NewNopLogger()).RegisterRoutes)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/ai/v1/transform", `{"target":"klingon","section":{"title":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "validation failed", body["error"])
	assert.Contains(t, body["fields"], "target")

	req := httptest.NewRequest("POST", "/api/ai/v1/transform", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAiTransformToEnglishIsLocal(t *testing.T) {
	svc := localAiService(localProvider{err: errors.New("provider must not be called")})
	app := newTestApp(NewAiController(svc, testSecret, logger.NewNopLogger()).RegisterRoutes)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/ai/v1/transform",
		`{"target":"english","section":{"title":"Intro","summary":"s","bullets":["a"]}}`))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "Intro", body["title"])
	assert.Equal(t, []any{"a"}, body["bullets"])
}

// localProvider streams a canned answer and accepts every probe.
type localProvider struct {
	chunks []string
	err    error
}

func (p localProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "OK", nil
}

func (p localProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "OK", nil
}

func (p localProvider) Stream(ctx context.Context, prompt string, onChunk llm.ChunkHandler, options ...llm.Option) error {
	for _, c := range p.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return p.err
}

func localAiService(p llm.LLMProvider) service.IAiService {
	cfg := config.AIConfig{Provider: factory.ProviderOllama, Models: []string{"llama3"}}
	build := func(s factory.Settings, apiKey string) (llm.LLMProvider, error) { return p, nil }
	return service.NewAiService(nil, cfg, build, nil, 0, logger.NewNopLogger())
}

func readEvents(t *testing.T, r io.Reader) []stream.Event {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	var out []stream.Event
	for _, line := range strings.Split(string(raw), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e stream.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		out = append(out, e)
	}
	return out
}

func TestGenerateStreamsEvents(t *testing.T) {
	svc := localAiService(localProvider{chunks: []string{`{"title":"Go",`, `"summary":"s","sections":[{"title":"A","bullets":["b"]}],"tags":[]}`}})
	app := newTestApp(NewAiController(svc, testSecret, logger.NewNopLogger()).RegisterRoutes)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/ai/v1/generate", `{"prompt":"teach me go"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	events := readEvents(t, resp.Body)
	require.NotEmpty(t, events)
	assert.Equal(t, stream.EventThinking, events[0].Type)
	assert.Equal(t, stream.StepAnalyzing, events[0].Step)
	last := events[len(events)-1]
	require.Equal(t, stream.EventComplete, last.Type)

	var note stream.GeneratedNote
	require.NoError(t, json.Unmarshal(last.Data, &note))
	assert.Equal(t, "Go", note.Title)
}

func TestGenerateReportsProviderFailureInStream(t *testing.T) {
	svc := localAiService(localProvider{chunks: []string{`{"title":`}, err: errors.New("connection reset")})
	app := newTestApp(NewAiController(svc, testSecret, logger.NewNopLogger()).RegisterRoutes)

	resp, err := app.Test(jsonRequest(t, "POST", "/api/ai/v1/generate", `{"prompt":"x"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	events := readEvents(t, resp.Body)
	last := events[len(events)-1]
	assert.Equal(t, stream.EventError, last.Type)
	assert.Equal(t, "connection reset", last.Message)
}
