// Package variant holds the per-section language/tone variants of a transcript
// section and the cache-or-generate workflow used to switch between them.
package variant

import (
	"errors"
	"fmt"
)

type Language string

const (
	English  Language = "english"
	Hindi    Language = "hindi"
	Hinglish Language = "hinglish"
)

type Tone string

const (
	Neutral   Tone = "neutral"
	Casual    Tone = "casual"
	Interview Tone = "interview"
)

var ErrInvalidTarget = errors.New("invalid language or tone")

func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case English, Hindi, Hinglish:
		return l, nil
	}
	return "", fmt.Errorf("%w: language %q", ErrInvalidTarget, s)
}

func ParseTone(s string) (Tone, error) {
	switch t := Tone(s); t {
	case Neutral, Casual, Interview:
		return t, nil
	}
	return "", fmt.Errorf("%w: tone %q", ErrInvalidTarget, s)
}

// Variant is one rendering of a section.
type Variant struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Bullets []string `json:"bullets"`
}

func (v Variant) Clone() Variant {
	out := v
	if v.Bullets != nil {
		out.Bullets = append([]string(nil), v.Bullets...)
	}
	return out
}

func (v Variant) Equal(o Variant) bool {
	if v.Title != o.Title || v.Summary != o.Summary || len(v.Bullets) != len(o.Bullets) {
		return false
	}
	for i := range v.Bullets {
		if v.Bullets[i] != o.Bullets[i] {
			return false
		}
	}
	return true
}

// Variants is the per-section cache. English is always populated.
type Variants struct {
	English  Variant          `json:"english"`
	Hindi    *Variant         `json:"hindi,omitempty"`
	Hinglish map[Tone]Variant `json:"hinglish,omitempty"`
}

func (c Variants) clone() Variants {
	out := Variants{English: c.English.Clone()}
	if c.Hindi != nil {
		h := c.Hindi.Clone()
		out.Hindi = &h
	}
	if len(c.Hinglish) > 0 {
		out.Hinglish = make(map[Tone]Variant, len(c.Hinglish))
		for k, v := range c.Hinglish {
			out.Hinglish[k] = v.Clone()
		}
	}
	return out
}

func (c Variants) lookup(lang Language, tone Tone) (Variant, bool) {
	switch lang {
	case English:
		return c.English, true
	case Hindi:
		if c.Hindi != nil {
			return *c.Hindi, true
		}
	case Hinglish:
		v, ok := c.Hinglish[tone]
		return v, ok
	}
	return Variant{}, false
}

func (c *Variants) store(lang Language, tone Tone, v Variant) {
	switch lang {
	case English:
		c.English = v
	case Hindi:
		c.Hindi = &v
	case Hinglish:
		if c.Hinglish == nil {
			c.Hinglish = make(map[Tone]Variant)
		}
		c.Hinglish[tone] = v
	}
}

// Section is a transcript section with its cached variants. It is a value:
// operations return an updated copy and never touch the caller's instance.
type Section struct {
	ID        string   `json:"id"`
	StartTime float64  `json:"start_time"`
	EndTime   float64  `json:"end_time"`
	Source    Variant  `json:"source"`
	Variants  Variants `json:"variants"`
	Current   Variant  `json:"current"`
	Language  Language `json:"language"`
	Tone      Tone     `json:"tone"`
}

// NewSection seeds the cache with the English source.
func NewSection(id string, source Variant, start, end float64) Section {
	return Section{
		ID:        id,
		StartTime: start,
		EndTime:   end,
		Source:    source.Clone(),
		Variants:  Variants{English: source.Clone()},
		Current:   source.Clone(),
		Language:  English,
		Tone:      Neutral,
	}
}

// Clone returns a deep copy.
func (s Section) Clone() Section {
	out := s
	out.Source = s.Source.Clone()
	out.Variants = s.Variants.clone()
	out.Current = s.Current.Clone()
	return out
}

// Adopt applies a selection that was computed from an older copy of s. The
// chosen entry is added only when s has no entry for that target yet, so
// manual edits and results stored in the meantime are kept.
func (s Section) Adopt(chosen Section) Section {
	out := s.Clone()
	v, ok := out.Variants.lookup(chosen.Language, chosen.Tone)
	if !ok {
		v = chosen.Current.Clone()
		out.Variants.store(chosen.Language, chosen.Tone, v)
	}
	out.Current = v.Clone()
	out.Language = chosen.Language
	if chosen.Language == Hinglish {
		out.Tone = chosen.Tone
	}
	return out
}

// Cached reports whether a variant is already available without a call.
func (s Section) Cached(lang Language, tone Tone) bool {
	_, ok := s.Variants.lookup(lang, tone)
	return ok
}

// Patch is a manual edit of the displayed variant. Nil fields are left alone.
type Patch struct {
	Title   *string
	Summary *string
	Bullets []string
}
