package service

import (
	"context"
	"encoding/json"

	"notely-be/internal/dto"
	"notely-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const consumerModule = "SyncNotifier"

// SyncNotifier delivers "sync_required" pushes to a user's connected
// devices, skipping the device that made the change.
type SyncNotifier interface {
	NotifySyncRequired(userId uuid.UUID, originDeviceId string, noteIds []uuid.UUID)
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	notifier   SyncNotifier
	logger     logger.ILogger
}

// NewConsumerService forwards notes-changed messages from the in-process bus
// to connected devices.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	notifier SyncNotifier,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		notifier:   notifier,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.NotesChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID, "error": err.Error(),
		})
		// Invalid payloads would be redelivered forever.
		msg.Ack()
		return
	}

	cs.notifier.NotifySyncRequired(payload.UserId, payload.DeviceId, payload.NoteIds)
	cs.logger.Debug(consumerModule, "Sync notification dispatched", map[string]interface{}{
		"user_id": payload.UserId, "device_id": payload.DeviceId, "notes": len(payload.NoteIds),
	})
	msg.Ack()
}
