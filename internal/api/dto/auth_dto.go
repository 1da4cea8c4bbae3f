package dto

import "time"

// LoginRequest payload for login.
type LoginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	TeamID    *string   `json:"team_id"`
}
