// Package aijson pulls a structured payload out of free-form model output.
package aijson

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

var (
	ErrNoJSONObject = errors.New("no JSON object found in model output")
	ErrInvalidJSON  = errors.New("model output contains invalid JSON")
)

// Sanitize turns line breaks and tabs into spaces, drops every other control
// character and trims the result.
func Sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			sb.WriteByte(' ')
		case unicode.IsControl(r):
			continue
		default:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// maxCandidates bounds how many '{' positions ExtractObject tries. A failed
// attempt can read to the end of the input, so the bound keeps the total work
// linear in the input size.
const maxCandidates = 32

// ExtractObject returns the first complete top-level JSON object in s.
// Each '{' is tried in order with a real decoder, so braces inside string
// literals or in commentary before the payload cannot split it incorrectly.
// Only the first maxCandidates braces are tried.
func ExtractObject(s string) (json.RawMessage, error) {
	clean := Sanitize(s)
	if !strings.Contains(clean, "{") {
		return nil, ErrNoJSONObject
	}

	var lastErr error
	tried := 0
	for i := 0; i < len(clean) && tried < maxCandidates; i++ {
		if clean[i] != '{' {
			continue
		}
		tried++
		dec := json.NewDecoder(strings.NewReader(clean[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			lastErr = err
			continue
		}
		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			return raw, nil
		}
	}

	if lastErr != nil {
		return nil, errors.Join(ErrInvalidJSON, lastErr)
	}
	return nil, ErrNoJSONObject
}

// Decode extracts the first object and unmarshals it into v.
func Decode(s string, v any) error {
	raw, err := ExtractObject(s)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	return nil
}
