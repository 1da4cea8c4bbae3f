package domain

import "time"

// User is a member of at most one team.
type User struct {
	ID           string
	Name         string
	PasswordHash string
	TeamID       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasTeam reports whether the user belongs to a team.
func (u *User) HasTeam() bool {
	return u != nil && u.TeamID != nil && *u.TeamID != ""
}

// InTeam reports whether the user belongs to the given team.
func (u *User) InTeam(teamID string) bool {
	return u.HasTeam() && *u.TeamID == teamID
}
