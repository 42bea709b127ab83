package models

import "time"

// User represents a registered user account. Onboarding is passwordless: the
// username is the only credential and must be unique across all users.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
