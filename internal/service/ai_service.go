package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"notely-be/internal/config"
	"notely-be/internal/dto"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/repository/specification"
	"notely-be/internal/repository/unitofwork"
	"notely-be/pkg/aijson"
	"notely-be/pkg/llm"
	"notely-be/pkg/llm/factory"
	"notely-be/pkg/stream"
	"notely-be/pkg/variant"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const aiModule = "AiService"

// ProviderBuilder creates a provider bound to one credential.
type ProviderBuilder func(s factory.Settings, apiKey string) (llm.LLMProvider, error)

// EmitFunc writes one event to the client. An error means the client is gone.
type EmitFunc func(stream.Event) error

type IAiService interface {
	Transform(ctx context.Context, userId uuid.UUID, req *dto.TransformRequest) (*variant.Variant, error)
	Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegenerateRequest) (*variant.Variant, error)
	DetectSections(ctx context.Context, userId uuid.UUID, req *dto.DetectSectionsRequest) (*dto.DetectSectionsResponse, error)
	DetectChunkSections(ctx context.Context, userId uuid.UUID, req *dto.ChunkSectionsRequest) (*dto.ChunkSectionsResponse, error)
	Inline(ctx context.Context, userId uuid.UUID, req *dto.InlineRequest) (*dto.InlineResponse, error)
	// PrepareGeneration resolves the caller's provider before any event is
	// written, so credential problems surface as a plain HTTP error.
	PrepareGeneration(ctx context.Context, userId uuid.UUID) (*Generation, error)
	// TransformerFor binds the variant workflow to one user's credential.
	TransformerFor(userId uuid.UUID) variant.Transformer
}

type aiService struct {
	uowFactory    unitofwork.RepositoryFactory
	cfg           config.AIConfig
	settings      factory.Settings
	buildProvider ProviderBuilder
	fallback      *llm.Fallback
	rdb           *redis.Client
	cacheTTL      time.Duration
	logger        logger.ILogger
}

// NewAiService wires the AI workflows. rdb may be nil, which disables the
// transform cache.
func NewAiService(
	uowFactory unitofwork.RepositoryFactory,
	cfg config.AIConfig,
	buildProvider ProviderBuilder,
	rdb *redis.Client,
	cacheTTL time.Duration,
	log logger.ILogger,
) IAiService {
	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), max(cfg.Burst, 1))
	}
	if buildProvider == nil {
		buildProvider = factory.NewLLMProvider
	}
	return &aiService{
		uowFactory: uowFactory,
		cfg:        cfg,
		settings: factory.Settings{
			Provider:           cfg.Provider,
			DefaultModel:       cfg.DefaultModel(),
			GeminiBaseURL:      cfg.GeminiBaseURL,
			OllamaBaseURL:      cfg.OllamaBaseURL,
			HuggingFaceBaseURL: cfg.HuggingFaceBaseURL,
			Limiter:            limiter,
		},
		buildProvider: buildProvider,
		fallback:      llm.NewFallback(cfg.Models),
		rdb:           rdb,
		cacheTTL:      cacheTTL,
		logger:        log,
	}
}

// providerFor picks the credential: the user's own key, else the server key
// when the deployment allows it. The returned scope isolates circuit
// breakers per credential.
func (s *aiService) providerFor(ctx context.Context, userId uuid.UUID) (llm.LLMProvider, string, error) {
	var apiKey, scope string
	if factory.RequiresKey(s.cfg.Provider) {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
		if err != nil {
			return nil, "", err
		}
		if user == nil {
			return nil, "", ErrUserNotFound
		}

		switch {
		case user.HasAiKey():
			apiKey = *user.AiApiKey
			scope = "user:" + userId.String()
		case !s.cfg.RequireUserKey && s.cfg.ServerAPIKey != "":
			apiKey = s.cfg.ServerAPIKey
			scope = "server"
		default:
			return nil, "", ErrAPIKeyRequired
		}
	} else {
		scope = "local"
	}

	provider, err := s.buildProvider(s.settings, apiKey)
	if err != nil {
		return nil, "", err
	}
	return provider, scope, nil
}

// generateJSON runs prompt through the fallback chain and decodes the first
// JSON object of the answer into out.
func (s *aiService) generateJSON(ctx context.Context, userId uuid.UUID, op, prompt string, out any) error {
	provider, scope, err := s.providerFor(ctx, userId)
	if err != nil {
		return err
	}

	start := time.Now()
	model, err := s.fallback.Run(ctx, scope, func(model string) error {
		raw, err := provider.Generate(ctx, prompt, llm.WithModel(model), llm.WithJSON(), llm.WithTemperature(0.4))
		if err != nil {
			return err
		}
		if err := aijson.Decode(raw, out); err != nil {
			s.logger.Warn(aiModule, "Unparseable model output", map[string]interface{}{
				"op": op, "model": model, "error": err.Error(), "preview": preview(raw),
			})
			return &llm.Permanent{Err: ErrInvalidAIResponse}
		}
		return nil
	})
	if err != nil {
		s.logger.Error(aiModule, "AI call failed", map[string]interface{}{
			"op": op, "user_id": userId, "error": err.Error(),
		})
		return providerFailure(err)
	}

	s.logger.Info(aiModule, "AI call completed", map[string]interface{}{
		"op": op, "model": model, "duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (s *aiService) Transform(ctx context.Context, userId uuid.UUID, req *dto.TransformRequest) (*variant.Variant, error) {
	target, err := variant.ParseLanguage(req.Target)
	if err != nil {
		return nil, ErrInvalidTarget
	}
	var tone variant.Tone
	if req.Tone != "" {
		if tone, err = variant.ParseTone(req.Tone); err != nil {
			return nil, ErrInvalidTarget
		}
	}

	v, err := s.transform(ctx, userId, variant.TransformRequest{
		Target:  target,
		Tone:    tone,
		Section: sectionContent(req.Section),
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *aiService) transform(ctx context.Context, userId uuid.UUID, req variant.TransformRequest) (variant.Variant, error) {
	switch req.Target {
	case variant.English:
		return req.Section.Clone(), nil
	case variant.Hinglish:
		if req.Tone == "" {
			req.Tone = variant.Neutral
		}
	default:
		req.Tone = ""
	}

	key := transformCacheKey(req)
	if v, ok := s.cachedVariant(ctx, key); ok {
		return v, nil
	}

	var out variant.Variant
	if err := s.generateJSON(ctx, userId, "transform", transformPrompt(req), &out); err != nil {
		return variant.Variant{}, err
	}
	out = normalizeVariant(out)
	if out.Title == "" && out.Summary == "" && len(out.Bullets) == 0 {
		return variant.Variant{}, ErrInvalidAIResponse
	}

	s.storeVariant(ctx, key, out)
	return out, nil
}

func (s *aiService) Regenerate(ctx context.Context, userId uuid.UUID, req *dto.RegenerateRequest) (*variant.Variant, error) {
	v, err := s.regenerate(ctx, userId, variant.RegenerateRequest{
		Section:    sectionContent(req.Section),
		Transcript: req.Transcript,
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *aiService) regenerate(ctx context.Context, userId uuid.UUID, req variant.RegenerateRequest) (variant.Variant, error) {
	var out variant.Variant
	if err := s.generateJSON(ctx, userId, "regenerate", regeneratePrompt(req), &out); err != nil {
		return variant.Variant{}, err
	}
	out = normalizeVariant(out)
	if out.Title == "" {
		return variant.Variant{}, ErrInvalidAIResponse
	}
	return out, nil
}

type sectionsEnvelope struct {
	Sections []dto.DetectedSection `json:"sections"`
	Summary  string                `json:"summary"`
	Tags     []string              `json:"tags"`
}

func (s *aiService) DetectSections(ctx context.Context, userId uuid.UUID, req *dto.DetectSectionsRequest) (*dto.DetectSectionsResponse, error) {
	var out sectionsEnvelope
	if err := s.generateJSON(ctx, userId, "sections", detectSectionsPrompt(req.Transcript), &out); err != nil {
		return nil, err
	}
	sections := normalizeSections(out.Sections, 0)
	if len(sections) == 0 {
		return nil, ErrInvalidAIResponse
	}
	return &dto.DetectSectionsResponse{Sections: sections}, nil
}

func (s *aiService) DetectChunkSections(ctx context.Context, userId uuid.UUID, req *dto.ChunkSectionsRequest) (*dto.ChunkSectionsResponse, error) {
	var out sectionsEnvelope
	if err := s.generateJSON(ctx, userId, "chunk_sections", chunkSectionsPrompt(req.Chunks), &out); err != nil {
		return nil, err
	}

	last := req.Chunks[len(req.Chunks)-1]
	sections := normalizeSections(out.Sections, last.Start+last.Duration)
	if len(sections) == 0 {
		return nil, ErrInvalidAIResponse
	}
	return &dto.ChunkSectionsResponse{
		Sections: sections,
		Summary:  strings.TrimSpace(out.Summary),
		Tags:     normalizeTags(out.Tags),
	}, nil
}

func (s *aiService) Inline(ctx context.Context, userId uuid.UUID, req *dto.InlineRequest) (*dto.InlineResponse, error) {
	provider, scope, err := s.providerFor(ctx, userId)
	if err != nil {
		return nil, err
	}

	var result string
	_, err = s.fallback.Run(ctx, scope, func(model string) error {
		raw, err := provider.Generate(ctx, inlinePrompt(req.Text, req.Action), llm.WithModel(model), llm.WithTemperature(0.6))
		if err != nil {
			return err
		}
		result = strings.TrimSpace(raw)
		if result == "" {
			return &llm.Permanent{Err: ErrInvalidAIResponse}
		}
		return nil
	})
	if err != nil {
		return nil, providerFailure(err)
	}
	return &dto.InlineResponse{Result: result}, nil
}

func (s *aiService) TransformerFor(userId uuid.UUID) variant.Transformer {
	return &userTransformer{svc: s, userId: userId}
}

type userTransformer struct {
	svc    *aiService
	userId uuid.UUID
}

func (t *userTransformer) Transform(ctx context.Context, req variant.TransformRequest) (variant.Variant, error) {
	return t.svc.transform(ctx, t.userId, req)
}

func (t *userTransformer) Regenerate(ctx context.Context, req variant.RegenerateRequest) (variant.Variant, error) {
	return t.svc.regenerate(ctx, t.userId, req)
}

// Generation is a prepared streaming note generation.
type Generation struct {
	svc      *aiService
	provider llm.LLMProvider
	scope    string
}

func (s *aiService) PrepareGeneration(ctx context.Context, userId uuid.UUID) (*Generation, error) {
	provider, scope, err := s.providerFor(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &Generation{svc: s, provider: provider, scope: scope}, nil
}

// Run streams a note for prompt through emit. Failures after the stream has
// opened are reported as an error event; the returned error is for logging.
func (g *Generation) Run(ctx context.Context, prompt string, emit EmitFunc) error {
	thinking := func(step string) error {
		return emit(stream.Event{Type: stream.EventThinking, Step: step, Message: stream.StepMessage(step)})
	}
	fail := func(err error) error {
		msg := err.Error()
		if errors.Is(err, llm.ErrAllModelsFailed) {
			msg = "No AI model is available right now. Please try again shortly."
		}
		g.svc.logger.Error(aiModule, "Generation failed", map[string]interface{}{"error": err.Error()})
		if ctx.Err() == nil {
			_ = emit(stream.Event{Type: stream.EventError, Message: msg})
		}
		return err
	}

	if err := thinking(stream.StepAnalyzing); err != nil {
		return err
	}
	if err := thinking(stream.StepSelectingModel); err != nil {
		return err
	}
	model, err := g.svc.fallback.Resolve(ctx, g.provider, g.scope)
	if err != nil {
		return fail(err)
	}
	g.svc.logger.Info(aiModule, "Generation model selected", map[string]interface{}{"model": model})

	if err := thinking(stream.StepGenerating); err != nil {
		return err
	}
	var buf strings.Builder
	err = g.provider.Stream(ctx, generateNotePrompt(prompt), func(chunk string) error {
		buf.WriteString(chunk)
		return emit(stream.Event{Type: stream.EventChunk, Content: chunk})
	}, llm.WithModel(model), llm.WithJSON(), llm.WithTemperature(0.7))
	if err != nil {
		return fail(err)
	}

	if err := thinking(stream.StepStructuring); err != nil {
		return err
	}
	var note stream.GeneratedNote
	if err := aijson.Decode(buf.String(), &note); err != nil {
		g.svc.logger.Warn(aiModule, "Unparseable generation output", map[string]interface{}{
			"model": model, "error": err.Error(), "preview": preview(buf.String()),
		})
		return fail(ErrInvalidAIResponse)
	}
	note = normalizeNote(note)
	if note.Title == "" {
		return fail(ErrInvalidAIResponse)
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fail(err)
	}
	return emit(stream.Event{Type: stream.EventComplete, Data: data})
}

func transformCacheKey(req variant.TransformRequest) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(req)
	return "notely:transform:" + hex.EncodeToString(h.Sum(nil))
}

// Cache failures are logged and otherwise ignored.
func (s *aiService) cachedVariant(ctx context.Context, key string) (variant.Variant, bool) {
	if s.rdb == nil {
		return variant.Variant{}, false
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn(aiModule, "Transform cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return variant.Variant{}, false
	}
	var v variant.Variant
	if err := json.Unmarshal(raw, &v); err != nil {
		return variant.Variant{}, false
	}
	return v, true
}

func (s *aiService) storeVariant(ctx context.Context, key string, v variant.Variant) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn(aiModule, "Transform cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func sectionContent(c dto.SectionContent) variant.Variant {
	return variant.Variant{Title: c.Title, Summary: c.Summary, Bullets: append([]string(nil), c.Bullets...)}
}

func normalizeVariant(v variant.Variant) variant.Variant {
	out := variant.Variant{
		Title:   strings.TrimSpace(v.Title),
		Summary: strings.TrimSpace(v.Summary),
		Bullets: make([]string, 0, len(v.Bullets)),
	}
	for _, b := range v.Bullets {
		if b = strings.TrimSpace(b); b != "" {
			out.Bullets = append(out.Bullets, b)
		}
	}
	return out
}

// normalizeSections orders sections by start time and closes gaps: a
// missing end_time becomes the next section's start, and the last one ends
// at totalDuration when known.
func normalizeSections(in []dto.DetectedSection, totalDuration float64) []dto.DetectedSection {
	out := make([]dto.DetectedSection, 0, len(in))
	for _, s := range in {
		v := normalizeVariant(variant.Variant{Title: s.Title, Summary: s.Summary, Bullets: s.Bullets})
		if v.Title == "" {
			continue
		}
		out = append(out, dto.DetectedSection{
			Title:     v.Title,
			Summary:   v.Summary,
			Bullets:   v.Bullets,
			StartTime: max(s.StartTime, 0),
			EndTime:   max(s.EndTime, 0),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })

	for i := range out {
		if out[i].EndTime > out[i].StartTime {
			continue
		}
		switch {
		case i+1 < len(out):
			out[i].EndTime = out[i+1].StartTime
		case totalDuration > out[i].StartTime:
			out[i].EndTime = totalDuration
		default:
			out[i].EndTime = out[i].StartTime
		}
	}
	return out
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t == "" || len(t) > 50 || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == 8 {
			break
		}
	}
	return out
}

func normalizeNote(n stream.GeneratedNote) stream.GeneratedNote {
	out := stream.GeneratedNote{
		Title:    strings.TrimSpace(n.Title),
		Summary:  strings.TrimSpace(n.Summary),
		Sections: make([]variant.Variant, 0, len(n.Sections)),
		Tags:     normalizeTags(n.Tags),
	}
	for _, s := range n.Sections {
		if v := normalizeVariant(s); v.Title != "" {
			out.Sections = append(out.Sections, v)
		}
	}
	return out
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
