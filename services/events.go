package services

import (
	"context"

	"github.com/courtside/club-games/models"
)

// Event is a domain event describing a committed state transition. Events
// are handed to the Notifier only after the transaction is durable;
// delivery, formatting and retry belong to the notification collaborator.
type Event interface {
	Name() string
	// Subject identifies the game and club the event belongs to.
	Subject() (gameID, clubID int)
}

// Notifier receives domain events synchronously after each commit. The
// implementation owns fan-out and asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

type GameCreated struct {
	GameID      int `json:"game_id"`
	ClubID      int `json:"club_id"`
	OrganizerID int `json:"organizer_id"`
}

func (GameCreated) Name() string { return "game.created" }
func (e GameCreated) Subject() (int, int) { return e.GameID, e.ClubID }

type GameJoinRequested struct {
	GameID int `json:"game_id"`
	ClubID int `json:"club_id"`
	UserID int `json:"user_id"`
}

func (GameJoinRequested) Name() string { return "game.join.requested" }
func (e GameJoinRequested) Subject() (int, int) { return e.GameID, e.ClubID }

type GameParticipantApproved struct {
	GameID int `json:"game_id"`
	ClubID int `json:"club_id"`
	UserID int `json:"user_id"`
}

func (GameParticipantApproved) Name() string { return "game.participant.approved" }
func (e GameParticipantApproved) Subject() (int, int) { return e.GameID, e.ClubID }

type GameParticipantRejected struct {
	GameID int `json:"game_id"`
	ClubID int `json:"club_id"`
	UserID int `json:"user_id"`
}

func (GameParticipantRejected) Name() string { return "game.participant.rejected" }
func (e GameParticipantRejected) Subject() (int, int) { return e.GameID, e.ClubID }

type GameStatusChanged struct {
	GameID     int               `json:"game_id"`
	ClubID     int               `json:"club_id"`
	StatusFrom models.GameStatus `json:"status_from"`
	StatusTo   models.GameStatus `json:"status_to"`
}

func (GameStatusChanged) Name() string { return "game.status.changed" }
func (e GameStatusChanged) Subject() (int, int) { return e.GameID, e.ClubID }
