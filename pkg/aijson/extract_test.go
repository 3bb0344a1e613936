package aijson

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, Sanitize("\x00 {\"a\":\n1}\x07 \t"))
	assert.Equal(t, "", Sanitize("\x01\x02"))
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "bare object",
			input: `{"title":"Intro"}`,
			want:  `{"title":"Intro"}`,
		},
		{
			name:  "code fence and commentary",
			input: "Here you go:\n```json\n{\"title\":\"Intro\",\"bullets\":[\"a\"]}\n```\nHope it helps {smile}",
			want:  `{"title":"Intro","bullets":["a"]}`,
		},
		{
			name:  "brace inside string literal",
			input: `{"summary":"use {braces} carefully","title":"x"}`,
			want:  `{"summary":"use {braces} carefully","title":"x"}`,
		},
		{
			name:  "stray brace before payload",
			input: `note: {not json} then {"title":"real"}`,
			want:  `{"title":"real"}`,
		},
		{
			name:  "raw newline inside string value",
			input: "{\"summary\":\"line one\nline two\"}",
			want:  `{"summary":"line one line two"}`,
		},
		{
			name:    "no object",
			input:   "I cannot help with that.",
			wantErr: ErrNoJSONObject,
		},
		{
			name:    "truncated object",
			input:   `{"title":"cut`,
			wantErr: ErrInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Title   string   `json:"title"`
		Bullets []string `json:"bullets"`
	}
	require.NoError(t, Decode("```json\n{\"title\":\"परिचय\",\"bullets\":[\"अ\",\"ब\"]}\n```", &out))
	assert.Equal(t, "परिचय", out.Title)
	assert.Equal(t, []string{"अ", "ब"}, out.Bullets)

	var wrongShape struct {
		Title int `json:"title"`
	}
	assert.ErrorIs(t, Decode(`{"title":"x"}`, &wrongShape), ErrInvalidJSON)
}

func TestExtractObjectBoundsCandidates(t *testing.T) {
	// Unterminated nesting: every brace would otherwise decode to the end.
	nested := strings.Repeat(`{"a":`, 50000)
	_, err := ExtractObject(nested)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	// A payload behind more stray braces than the bound is not searched for.
	_, err = ExtractObject(strings.Repeat("{x} ", maxCandidates) + `{"title":"late"}`)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	got, err := ExtractObject(strings.Repeat("{x} ", maxCandidates-1) + `{"title":"ok"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"ok"}`, string(got))
}
