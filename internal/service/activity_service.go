package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kdh92417/team-tasks/internal/events"
)

// ActivityService writes an audit trail of task activity to the structured log.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger.Named("activity"),
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllTypes() {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
	a.dispatcher.Subscribe(events.EventTaskCompleted, a.handleTaskCompleted)
}

func (a *ActivityService) handle(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), eventFields(event)...)
	return nil
}

func (a *ActivityService) handleTaskCompleted(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskCompletedPayload)
	if !ok {
		return nil
	}
	a.logger.Debug("completion cascade",
		zap.String("task_id", event.TaskID),
		zap.String("triggered_by", payload.TriggeredBy),
		zap.Time("completed_date", payload.CompletedDate))
	return nil
}

func eventFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("task_id", event.TaskID),
		zap.String("user_id", event.Actor.UserID),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.TeamID != nil {
		fields = append(fields, zap.String("team_id", *event.Actor.TeamID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	return fields
}
