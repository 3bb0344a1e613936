package service

import (
	"context"

	"notely-be/internal/pkg/logger"
	"notely-be/pkg/events"
)

// IEventLogService records domain events read back from the event stream.
type IEventLogService interface {
	Handle(ctx context.Context, event events.Event) error
}

type eventLogService struct {
	logger logger.ILogger
}

func NewEventLogService(log logger.ILogger) IEventLogService {
	return &eventLogService{logger: log}
}

func (s *eventLogService) Handle(ctx context.Context, event events.Event) error {
	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()
	s.logger.Info("EventLog", event.EventType(), details)
	return nil
}
