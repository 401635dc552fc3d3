package models

import "time"

// GameStatus represents game lifecycle statuses, matching the ENUM in the DB.
type GameStatus string

const (
	GameStatusScheduled GameStatus = "SCHEDULED"
	GameStatusOngoing   GameStatus = "ONGOING"
	GameStatusFinished  GameStatus = "FINISHED"
	GameStatusCancelled GameStatus = "CANCELLED"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusScheduled, GameStatusOngoing, GameStatusFinished, GameStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s GameStatus) Terminal() bool {
	return s == GameStatusFinished || s == GameStatusCancelled
}

type GameVisibility string

const (
	VisibilityPublic  GameVisibility = "PUBLIC"
	VisibilityPrivate GameVisibility = "PRIVATE"
)

func (v GameVisibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Game represents a scheduled club event with a participant capacity.
type Game struct {
	ID          int            `json:"id" db:"id"`
	ClubID      int            `json:"club_id" db:"club_id"`
	CreatedByID int            `json:"created_by_id" db:"created_by_id"`
	Title       *string        `json:"title,omitempty" db:"title"`
	Description *string        `json:"description,omitempty" db:"description"`
	CourtName   *string        `json:"court_name,omitempty" db:"court_name"`
	StartsAt    time.Time      `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time      `json:"ends_at" db:"ends_at"`
	Timezone    string         `json:"timezone" db:"timezone"`
	MaxPlayers  int            `json:"max_players" db:"max_players"`
	Visibility  GameVisibility `json:"visibility" db:"visibility"`
	Status      GameStatus     `json:"status" db:"status"`
	LevelNote   *string        `json:"level_note,omitempty" db:"level_note"`
	MinLevel    *float64       `json:"min_level,omitempty" db:"min_level"`
	MaxLevel    *float64       `json:"max_level,omitempty" db:"max_level"`
	IsRated     bool           `json:"is_rated" db:"is_rated"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`

	// Optional related entities (not mapped directly)
	Participants []Participant `json:"participants,omitempty" db:"-"`
}
