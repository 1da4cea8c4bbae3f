package domain

import "time"

// Token describes an issued access token.
type Token struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
