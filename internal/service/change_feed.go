package service

import (
	"context"
	"encoding/json"

	"notely-be/internal/dto"
	"notely-be/internal/pkg/logger"
	"notely-be/pkg/events"

	"github.com/google/uuid"
)

const feedModule = "ChangeFeed"

// changeFeed fans note changes out to the in-process bus, which wakes other
// devices, and to the NATS event stream. Either side may be nil. Failures are
// logged and never fail the request.
type changeFeed struct {
	bus    IPublisherService
	events events.Publisher
	logger logger.ILogger
}

func (f *changeFeed) notesChanged(ctx context.Context, userId uuid.UUID, deviceId string, noteIds []uuid.UUID) {
	if f.bus == nil || len(noteIds) == 0 {
		return
	}
	payload, err := json.Marshal(dto.NotesChangedMessage{UserId: userId, DeviceId: deviceId, NoteIds: noteIds})
	if err != nil {
		return
	}
	if err := f.bus.Publish(ctx, payload); err != nil {
		f.logger.Warn(feedModule, "Failed to publish notes changed message", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
	}
}

func (f *changeFeed) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	if f.events == nil {
		return
	}
	if err := f.events.Publish(ctx, events.New(eventType, data)); err != nil {
		f.logger.Warn(feedModule, "Failed to publish event", map[string]interface{}{
			"type": eventType, "error": err.Error(),
		})
	}
}
