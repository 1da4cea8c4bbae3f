package domain

import "time"

// Team is a unit that can own tasks and receive sub-task assignments.
type Team struct {
	ID         string
	Name       string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
