package models

import "time"

// User is owned by an external module; this service only reads it to
// resolve display data and the skill level used for eligibility checks.
type User struct {
	ID        int       `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Nickname  *string   `json:"nickname,omitempty" db:"nickname"`
	Level     *float64  `json:"level,omitempty" db:"level"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
