package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"notely-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	module, message string
	details         map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{module, message, details})
}

func (l *recordingLogger) Debug(m, msg string, d map[string]interface{}) { l.record(m, msg, d) }
func (l *recordingLogger) Info(m, msg string, d map[string]interface{})  { l.record(m, msg, d) }
func (l *recordingLogger) Warn(m, msg string, d map[string]interface{})  { l.record(m, msg, d) }
func (l *recordingLogger) Error(m, msg string, d map[string]interface{}) { l.record(m, msg, d) }
func (l *recordingLogger) Sync() error                                   { return nil }

func TestEventLogRecordsPayload(t *testing.T) {
	log := &recordingLogger{}
	svc := NewEventLogService(log)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := map[string]interface{}{"note_id": "n-1", "version": 3}
	err := svc.Handle(context.Background(), events.BaseEvent{Type: events.NoteUpdated, Data: payload, OccurredAt: at})
	require.NoError(t, err)

	require.Len(t, log.entries, 1)
	e := log.entries[0]
	assert.Equal(t, events.NoteUpdated, e.message)
	assert.Equal(t, "n-1", e.details["note_id"])
	assert.Equal(t, at, e.details["occurred_at"])
	// The event's own map is not modified.
	assert.NotContains(t, payload, "occurred_at")
}
