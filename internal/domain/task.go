package domain

import "time"

// TitleMaxLength bounds Task.Title.
const TitleMaxLength = 100

// Task is a unit of work created by a user and delegated to teams.
type Task struct {
	ID            string
	CreatorID     string
	TeamID        string
	Title         string
	Content       string
	IsComplete    bool
	CompletedDate *time.Time
	SubTasks      []SubTask
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCreatedBy reports whether the user created the task.
func (t *Task) IsCreatedBy(user *User) bool {
	return t != nil && user != nil && t.CreatorID == user.ID
}

// SubTask is the delegation of a Task to one team.
type SubTask struct {
	ID            string
	TaskID        string
	TeamID        string
	IsComplete    bool
	CompletedDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VisibleTo reports whether the user's team owns the task or is assigned one of
// its sub-tasks. SubTasks must be loaded.
func (t *Task) VisibleTo(user *User) bool {
	if t == nil || !user.HasTeam() {
		return false
	}
	if user.InTeam(t.TeamID) {
		return true
	}
	for _, sub := range t.SubTasks {
		if user.InTeam(sub.TeamID) {
			return true
		}
	}
	return false
}
