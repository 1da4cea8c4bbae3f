package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTaskCreated      EventType = "task_created"
	EventTaskUpdated      EventType = "task_updated"
	EventTaskDeleted      EventType = "task_deleted"
	EventTaskCompleted    EventType = "task_completed"
	EventSubTaskAdded     EventType = "sub_task_added"
	EventSubTaskCompleted EventType = "sub_task_completed"
	EventSubTaskDeleted   EventType = "sub_task_deleted"
)

// Actor identifies the user behind an event.
type Actor struct {
	UserID string  `json:"user_id"`
	TeamID *string `json:"team_id,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TaskID    string      `json:"task_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	TeamID     string   `json:"team_id"`
	Title      string   `json:"title"`
	SubTaskIDs []string `json:"sub_task_ids"`
	TeamIDs    []string `json:"team_ids"`
}

// TaskUpdatedPayload payload.
type TaskUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// TaskCompletedPayload payload. TriggeredBy is the sub-task whose completion
// fired the cascade.
type TaskCompletedPayload struct {
	TriggeredBy   string    `json:"triggered_by"`
	CompletedDate time.Time `json:"completed_date"`
}

// SubTaskPayload is shared by sub-task added, completed and deleted events.
type SubTaskPayload struct {
	SubTaskID string `json:"sub_task_id"`
	TeamID    string `json:"team_id"`
}
