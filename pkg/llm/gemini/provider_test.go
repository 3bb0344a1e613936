package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notely-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCallsGenerateContent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":"},{"text":"true}"}]}}]}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider("g-key", srv.URL+"/", "gemini-2.5-flash-lite", nil)
	out, err := p.Generate(context.Background(), "hi", llm.WithModel("gemini-2.5-flash"), llm.WithJSON())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	cfg := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.Equal(t, 0.7, cfg["temperature"])
	contents := got["contents"].([]any)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].(map[string]any)["role"])
}

func TestGenerateSendsZeroTemperatureAndTokenCap(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw = body
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"OK"}]}}]}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider("k", srv.URL, "gemini-2.5-flash", nil)
	_, err := p.Generate(context.Background(), "Reply with the single word OK.", llm.WithMaxTokens(256), llm.WithTemperature(0))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"temperature":0`)
	assert.Contains(t, string(raw), `"maxOutputTokens":256`)
	assert.NotContains(t, string(raw), "responseMimeType")
}

func TestChatMapsRoles(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"sure"}]}}]}`)
	}))
	defer srv.Close()

	_, err := NewGeminiProvider("k", srv.URL, "m", nil).Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a"},
		{Role: "user", Content: "q2"},
	})
	require.NoError(t, err)
	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, []string{"user", "model", "user"}, []string{got.Contents[0].Role, got.Contents[1].Role, got.Contents[2].Role})
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		isEmpty bool
	}{
		{
			name:    "non-200 status",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"code":429,"message":"quota exceeded"}}`,
			wantErr: "status 429",
		},
		{
			name:    "error in body",
			status:  http.StatusOK,
			body:    `{"error":{"code":400,"message":"bad model"}}`,
			wantErr: "bad model",
		},
		{
			name:    "no text",
			status:  http.StatusOK,
			body:    `{"candidates":[{"content":{"parts":[]}}]}`,
			isEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewGeminiProvider("k", srv.URL, "m", nil).Generate(context.Background(), "hi")
			require.Error(t, err)
			if tt.isEmpty {
				assert.ErrorIs(t, err, llm.ErrEmptyResponse)
				return
			}
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStreamReadsSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/m:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Hel\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"lo\"}]}}]}\n\n")
	}))
	defer srv.Close()

	var b strings.Builder
	err := NewGeminiProvider("k", srv.URL, "m", nil).Stream(context.Background(), "hi", func(c string) error {
		b.WriteString(c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", b.String())
}

func TestStreamStopsOnHandlerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"b\"}]}}]}\n\n")
	}))
	defer srv.Close()

	stop := errors.New("client gone")
	var chunks int
	err := NewGeminiProvider("k", srv.URL, "m", nil).Stream(context.Background(), "hi", func(c string) error {
		chunks++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, chunks)
}

func TestStreamSurfacesErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"error\":{\"code\":503,\"message\":\"overloaded\"}}\n\n")
	}))
	defer srv.Close()

	err := NewGeminiProvider("k", srv.URL, "m", nil).Stream(context.Background(), "hi", func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}
