// Package stream defines the server-sent event protocol used for AI note
// generation and a client-side controller that consumes it.
package stream

import (
	"encoding/json"

	"notely-be/pkg/variant"
)

const (
	EventThinking = "thinking"
	EventChunk    = "chunk"
	EventComplete = "complete"
	EventError    = "error"
)

// Event is the JSON carried by one "data:" line.
type Event struct {
	Type    string          `json:"type"`
	Step    string          `json:"step,omitempty"`
	Message string          `json:"message,omitempty"`
	Content string          `json:"content,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
)

type ThinkingStep struct {
	ID      string     `json:"id"`
	Message string     `json:"message"`
	Status  StepStatus `json:"status"`
}

const (
	StepAnalyzing      = "analyzing"
	StepSelectingModel = "selecting_model"
	StepGenerating     = "generating"
	StepStructuring    = "structuring"
)

// DefaultSteps is the declared step order for note generation.
func DefaultSteps() []ThinkingStep {
	return []ThinkingStep{
		{ID: StepAnalyzing, Message: "Analyzing your prompt", Status: StepPending},
		{ID: StepSelectingModel, Message: "Picking an available model", Status: StepPending},
		{ID: StepGenerating, Message: "Writing your note", Status: StepPending},
		{ID: StepStructuring, Message: "Organizing sections", Status: StepPending},
	}
}

// StepMessage returns the declared message for id.
func StepMessage(id string) string {
	for _, s := range DefaultSteps() {
		if s.ID == id {
			return s.Message
		}
	}
	return ""
}

// GeneratedNote is the payload of the "complete" event.
type GeneratedNote struct {
	Title    string            `json:"title"`
	Summary  string            `json:"summary"`
	Sections []variant.Variant `json:"sections"`
	Tags     []string          `json:"tags"`
}

// Encode renders e as one SSE frame.
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}
