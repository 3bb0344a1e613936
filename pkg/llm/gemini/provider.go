package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notely-be/pkg/llm"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

// Ensure GeminiProvider implements LLMProvider
var _ llm.LLMProvider = &GeminiProvider{}

// NewGeminiProvider builds a client bound to one API key. limiter may be nil.
func NewGeminiProvider(apiKey, baseURL, model string, limiter *rate.Limiter) *GeminiProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		limiter: limiter,
	}
}

// --- Request/Response structs ---

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// Temperature is a pointer so an explicit 0 is sent rather than dropped.
type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *generateResponse) text() string {
	var sb strings.Builder
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		// Only the first candidate is used
		break
	}
	return sb.String()
}

func (g *GeminiProvider) buildRequest(history []llm.Message, opts llm.Options) generateRequest {
	req := generateRequest{}
	for _, msg := range history {
		switch msg.Role {
		case "system":
			if req.SystemInstruction == nil {
				req.SystemInstruction = &content{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, part{Text: msg.Content})
		case "assistant", "model":
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
	}

	temperature := opts.Temperature
	cfg := &generationConfig{
		Temperature:     &temperature,
		MaxOutputTokens: opts.MaxTokens,
	}
	if opts.JSONMode {
		cfg.ResponseMimeType = "application/json"
	}
	req.GenerationConfig = cfg
	return req
}

func (g *GeminiProvider) do(ctx context.Context, model, method string, body generateRequest) (*http.Response, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:%s", g.baseURL, model, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		resBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini error: status %d, body: %s", resp.StatusCode, string(resBody))
	}
	return resp, nil
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: g.model, Temperature: 0.7}, opts...)

	resp, err := g.do(ctx, options.Model, "generateContent", g.buildRequest(history, options))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var res generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if res.Error != nil {
		return "", fmt.Errorf("gemini api returned error: %s", res.Error.Message)
	}

	text := res.text()
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return g.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// Stream uses streamGenerateContent with alt=sse; every "data:" line carries a partial response.
func (g *GeminiProvider) Stream(ctx context.Context, prompt string, onChunk llm.ChunkHandler, opts ...llm.Option) error {
	options := llm.Apply(llm.Options{Model: g.model, Temperature: 0.7}, opts...)
	body := g.buildRequest([]llm.Message{{Role: "user", Content: prompt}}, options)

	resp, err := g.do(ctx, options.Model, "streamGenerateContent?alt=sse", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var res generateResponse
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if res.Error != nil {
			return fmt.Errorf("gemini api returned error: %s", res.Error.Message)
		}
		if text := res.text(); text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
