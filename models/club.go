package models

import "time"

// ClubRole represents membership roles within a club, matching the ENUM in the DB.
type ClubRole string

const (
	ClubRoleOwner  ClubRole = "OWNER"
	ClubRoleAdmin  ClubRole = "ADMIN"
	ClubRoleMember ClubRole = "MEMBER"
)

// ClubMember is owned by the clubs module; this service only reads it to
// decide whether an actor may manage a game.
type ClubMember struct {
	ID        int       `json:"id" db:"id"`
	ClubID    int       `json:"club_id" db:"club_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Role      ClubRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
