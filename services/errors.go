package services

import "errors"

// Shared service-level errors, mapped to HTTP statuses by the handlers layer.
var (
	// Not found
	ErrGameNotFound        = errors.New("game not found")
	ErrParticipantNotFound = errors.New("participant not found")

	// Authorization
	ErrManageForbidden = errors.New("only the game organizer or a club owner/admin can perform this action")

	// Conflicts and state-machine violations
	ErrAlreadyJoined           = errors.New("user already joined this game")
	ErrGameFull                = errors.New("game is full")
	ErrNotWaitlisted           = errors.New("only waitlisted participants can be approved")
	ErrOrganizerImmutable      = errors.New("the game organizer cannot leave or be rejected")
	ErrGameNotJoinable         = errors.New("game is finished or cancelled")
	ErrInvalidStatusTransition = errors.New("invalid game status transition")

	// Validation
	ErrValidationFailed  = errors.New("validation failed")
	ErrInvalidTimeRange  = errors.New("game end time must be after start time")
	ErrInvalidCapacity   = errors.New("game max players must be between 2 and 8")
	ErrInvalidLevelRange = errors.New("game max level must not be below min level")
)
