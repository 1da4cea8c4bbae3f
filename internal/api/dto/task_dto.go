package dto

import "time"

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	TeamIDs []string `json:"team_ids"`
}

// UpdateTaskRequest payload. Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// CreateSubTaskRequest payload.
type CreateSubTaskRequest struct {
	Team string `json:"team"`
}

// TaskResponse represents a task with its sub-tasks.
type TaskResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Team          string            `json:"team"`
	CreateUser    string            `json:"create_user"`
	IsComplete    bool              `json:"is_complete"`
	CompletedDate *time.Time        `json:"completed_date"`
	SubTasks      []SubTaskResponse `json:"sub_tasks"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// SubTaskResponse represents one team's share of a task.
type SubTaskResponse struct {
	ID            string     `json:"id"`
	Task          string     `json:"task"`
	Team          string     `json:"team"`
	IsComplete    bool       `json:"is_complete"`
	CompletedDate *time.Time `json:"completed_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CompletionResponse is returned by the completion endpoint.
type CompletionResponse struct {
	Message       string          `json:"message"`
	Data          SubTaskResponse `json:"data"`
	TaskCompleted bool            `json:"task_completed"`
}

// TeamResponse represents a team.
type TeamResponse struct {
	ID         string `json:"id"`
	TeamName   string `json:"team_name"`
	IsVerified bool   `json:"is_verified"`
}
