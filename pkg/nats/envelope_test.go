package nats

import (
	"testing"
	"time"

	"notely-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeKeepsTypeAndTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	raw, err := encode(events.BaseEvent{
		Type:       events.NoteCreated,
		Data:       map[string]interface{}{"note_id": "abc"},
		OccurredAt: at,
	})
	require.NoError(t, err)

	got, err := decode(raw)
	require.NoError(t, err)
	assert.Equal(t, events.NoteCreated, got.EventType())
	assert.True(t, at.Equal(got.Timestamp()))
	assert.Equal(t, "abc", got.Payload()["note_id"])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode([]byte("not json"))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.NOTES_SYNCED", Subject(events.NotesSynced))
}
