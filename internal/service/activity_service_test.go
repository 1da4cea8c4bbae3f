package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kdh92417/team-tasks/internal/events"
)

func TestActivityServiceLogsEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewActivityService(dispatcher, zap.New(core)).RegisterHandlers()

	teamID := "team-1"
	err := dispatcher.Publish(context.Background(), events.Event{
		ID:      "evt-1",
		Type:    events.EventTaskCompleted,
		TaskID:  "task-1",
		Actor:   events.Actor{UserID: "user-1", TeamID: &teamID},
		Payload: events.TaskCompletedPayload{TriggeredBy: "sub-1"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	entries := logs.FilterMessage(string(events.EventTaskCompleted)).All()
	if len(entries) != 1 {
		t.Fatalf("logged %d task_completed entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["task_id"] != "task-1" || fields["team_id"] != "team-1" {
		t.Errorf("fields = %v", fields)
	}
	if logs.FilterMessage("completion cascade").Len() != 1 {
		t.Error("cascade detail not logged")
	}
}
