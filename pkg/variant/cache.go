package variant

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

type TransformRequest struct {
	Target  Language `json:"target"`
	Tone    Tone     `json:"tone,omitempty"`
	Section Variant  `json:"section"`
}

type RegenerateRequest struct {
	Section    Variant `json:"section"`
	Transcript string  `json:"transcript"`
}

// Transformer produces variants. The HTTP client and the server-side AI service
// both implement it.
type Transformer interface {
	Transform(ctx context.Context, req TransformRequest) (Variant, error)
	Regenerate(ctx context.Context, req RegenerateRequest) (Variant, error)
}

// Cache runs the select/regenerate workflow. Misses for the same section,
// source and target share a single in-flight Transform call.
type Cache struct {
	transformer Transformer
	group       singleflight.Group

	mu       sync.Mutex
	inflight map[string]int
}

func NewCache(t Transformer) *Cache {
	return &Cache{
		transformer: t,
		inflight:    make(map[string]int),
	}
}

// SelectLanguage switches the displayed variant, generating it on a miss.
// Hinglish uses the section's current tone.
func (c *Cache) SelectLanguage(ctx context.Context, s Section, target Language) (Section, error) {
	if _, err := ParseLanguage(string(target)); err != nil {
		return s, err
	}

	if target == English {
		out := s.Clone()
		out.Current = out.Variants.English.Clone()
		out.Language = English
		return out, nil
	}

	tone := s.Tone
	if tone == "" {
		tone = Neutral
	}
	return c.selectVariant(ctx, s, target, tone)
}

// SelectTone switches to Hinglish in the given tone.
func (c *Cache) SelectTone(ctx context.Context, s Section, tone Tone) (Section, error) {
	if _, err := ParseTone(string(tone)); err != nil {
		return s, err
	}
	return c.selectVariant(ctx, s, Hinglish, tone)
}

func (c *Cache) selectVariant(ctx context.Context, s Section, target Language, tone Tone) (Section, error) {
	if v, ok := s.Variants.lookup(target, tone); ok {
		out := s.Clone()
		out.Current = v.Clone()
		out.Language = target
		if target == Hinglish {
			out.Tone = tone
		}
		return out, nil
	}

	v, err := c.fetch(ctx, s, target, tone)
	if err != nil {
		return s, err
	}

	out := s.Clone()
	out.Variants.store(target, tone, v.Clone())
	out.Current = v.Clone()
	out.Language = target
	if target == Hinglish {
		out.Tone = tone
	}
	return out, nil
}

func (c *Cache) fetch(ctx context.Context, s Section, target Language, tone Tone) (Variant, error) {
	key := flightKey(s, target, tone)
	req := TransformRequest{Target: target, Section: s.Source.Clone()}
	if target == Hinglish {
		req.Tone = tone
	}

	// The shared call outlives any single waiter; each waiter still honours its own ctx.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.track(key, 1)
		defer c.track(key, -1)
		return c.transformer.Transform(context.WithoutCancel(ctx), req)
	})

	select {
	case <-ctx.Done():
		return Variant{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Variant{}, res.Err
		}
		return res.Val.(Variant).Clone(), nil
	}
}

// RegenerateSource rebuilds the English source from the transcript. Every
// non-English entry is dropped because it was derived from the old source.
func (c *Cache) RegenerateSource(ctx context.Context, s Section, transcript string) (Section, error) {
	v, err := c.transformer.Regenerate(ctx, RegenerateRequest{
		Section:    s.Source.Clone(),
		Transcript: transcript,
	})
	if err != nil {
		return s, err
	}

	out := s.Clone()
	out.Source = v.Clone()
	out.Variants = Variants{English: v.Clone()}
	out.Current = v.Clone()
	out.Language = English
	return out, nil
}

// EditCurrent applies a manual edit to the displayed variant and to the cache
// entry it came from. Other entries are untouched.
func (c *Cache) EditCurrent(s Section, p Patch) Section {
	out := s.Clone()
	if p.Title != nil {
		out.Current.Title = *p.Title
	}
	if p.Summary != nil {
		out.Current.Summary = *p.Summary
	}
	if p.Bullets != nil {
		out.Current.Bullets = append([]string(nil), p.Bullets...)
	}
	out.Variants.store(out.Language, out.Tone, out.Current.Clone())
	return out
}

// Busy reports whether a Transform for this section and target is in flight.
func (c *Cache) Busy(s Section, target Language, tone Tone) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[flightKey(s, target, tone)] > 0
}

func (c *Cache) track(key string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[key] += delta
	if c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
}

func flightKey(s Section, target Language, tone Tone) string {
	if target != Hinglish {
		tone = ""
	}
	return fmt.Sprintf("%s|%x|%s|%s", s.ID, sourceHash(s.Source), target, tone)
}

func sourceHash(v Variant) uint64 {
	h := fnv.New64a()
	h.Write([]byte(v.Title))
	h.Write([]byte{0})
	h.Write([]byte(v.Summary))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(v.Bullets, "\x1f")))
	return h.Sum64()
}
