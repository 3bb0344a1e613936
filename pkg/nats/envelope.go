package nats

import (
	"encoding/json"
	"time"

	"notely-be/pkg/events"
)

const (
	StreamName    = "NOTELY_EVENTS"
	SubjectPrefix = "events."
)

// envelope is the wire form of an event. Type and time travel with the
// payload so consumers do not have to parse the subject.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func encode(e events.Event) ([]byte, error) {
	return json.Marshal(envelope{Type: e.EventType(), OccurredAt: e.Timestamp(), Data: e.Payload()})
}

func decode(raw []byte) (events.BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return events.BaseEvent{}, err
	}
	return events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}
