package models

import "time"

// ParticipationStatus represents the admission state of a (game, user) pair.
type ParticipationStatus string

const (
	ParticipationGoing    ParticipationStatus = "GOING"
	ParticipationWaitlist ParticipationStatus = "WAITLIST"
	ParticipationMaybe    ParticipationStatus = "MAYBE"
	ParticipationNotGoing ParticipationStatus = "NOT_GOING"
)

func (s ParticipationStatus) Valid() bool {
	switch s {
	case ParticipationGoing, ParticipationWaitlist, ParticipationMaybe, ParticipationNotGoing:
		return true
	}
	return false
}

type ParticipationRole string

const (
	RoleOrganizer ParticipationRole = "ORGANIZER"
	RolePlayer    ParticipationRole = "PLAYER"
	RoleReserve   ParticipationRole = "RESERVE"
)

func (r ParticipationRole) Valid() bool {
	switch r {
	case RoleOrganizer, RolePlayer, RoleReserve:
		return true
	}
	return false
}

// Participant is a (game, user) membership record. The pair is unique:
// state changes transition the existing row in place, it is never duplicated
// and never hard-deleted by leave/reject flows.
type Participant struct {
	ID        int                 `json:"id" db:"id"`
	GameID    int                 `json:"game_id" db:"game_id"`
	UserID    int                 `json:"user_id" db:"user_id"`
	Status    ParticipationStatus `json:"status" db:"status"`
	Role      ParticipationRole   `json:"role" db:"role"`
	Note      *string             `json:"note,omitempty" db:"note"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`

	User *User `json:"user,omitempty" db:"-"`
}
