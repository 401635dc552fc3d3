package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/courtside/club-games/models"
	"github.com/courtside/club-games/repositories"
)

type JoinGameInput struct {
	Status *models.ParticipationStatus `json:"status,omitempty"`
	Role   *models.ParticipationRole   `json:"role,omitempty"`
	Note   *string                     `json:"note,omitempty"`
}

type JoinResult struct {
	Status     models.ParticipationStatus `json:"status"`
	Role       models.ParticipationRole   `json:"role"`
	IsWaitlist bool                       `json:"is_waitlist"`
}

// AdmissionService owns the participant state machine per (game, user) pair.
//
// The admission policy is approval-required: join always queues the
// requester on the waitlist, regardless of the requested status, and only
// an organizer approval admits them to GOING. The capacity check happens
// inside the approving transaction, under the game row lock, so two
// approvals racing for the last slot cannot both succeed.
type AdmissionService interface {
	Join(ctx context.Context, gameID, userID int, input JoinGameInput) (*JoinResult, error)
	Leave(ctx context.Context, gameID, userID int) error
	Approve(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error)
	Reject(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error)
}

type admissionService struct {
	txm             repositories.TxManager
	gameRepo        repositories.GameRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	clubs           ClubMembershipLookup
	notifier        Notifier
}

func NewAdmissionService(
	txm repositories.TxManager,
	gameRepo repositories.GameRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	clubs ClubMembershipLookup,
	notifier Notifier,
) AdmissionService {
	return &admissionService{
		txm:             txm,
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		clubs:           clubs,
		notifier:        notifier,
	}
}

// attachUser enriches a participant with the user profile for the response.
// A user row missing from the read-only view is not an error here.
func (s *admissionService) attachUser(ctx context.Context, participant *models.Participant) (*models.Participant, error) {
	user, err := s.userRepo.GetByID(ctx, participant.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return participant, nil
		}
		return nil, err
	}
	participant.User = user
	return participant, nil
}

// lockGame re-reads the game row under FOR UPDATE so the participant
// mutations that follow are serialized per game.
func (s *admissionService) lockGame(ctx context.Context, exec repositories.SQLExecutor, gameID int) (*models.Game, error) {
	game, err := s.gameRepo.GetByIDForUpdate(ctx, exec, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

func (s *admissionService) Join(ctx context.Context, gameID, userID int, input JoinGameInput) (*JoinResult, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid participation status %q", ErrValidationFailed, *input.Status)
	}
	if input.Role != nil && !input.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid participation role %q", ErrValidationFailed, *input.Role)
	}

	var clubID int
	err := s.txm.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		game, err := s.lockGame(ctx, exec, gameID)
		if err != nil {
			return err
		}
		if game.Status.Terminal() {
			return ErrGameNotJoinable
		}
		clubID = game.ClubID

		_, err = s.participantRepo.FindByGameAndUser(ctx, exec, gameID, userID)
		if err == nil {
			return ErrAlreadyJoined
		}
		if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return err
		}

		participant := &models.Participant{
			GameID: gameID,
			UserID: userID,
			Status: models.ParticipationWaitlist,
			Role:   models.RoleReserve,
			Note:   input.Note,
		}
		if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrParticipantConflict) {
				return ErrAlreadyJoined
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, GameJoinRequested{GameID: gameID, ClubID: clubID, UserID: userID})
	return &JoinResult{
		Status:     models.ParticipationWaitlist,
		Role:       models.RoleReserve,
		IsWaitlist: true,
	}, nil
}

// Leave transitions the caller's own participation to NOT_GOING. The row is
// kept for history; leaving twice is a no-op. The seeded organizer cannot
// leave their own game.
func (s *admissionService) Leave(ctx context.Context, gameID, userID int) error {
	return s.txm.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		game, err := s.lockGame(ctx, exec, gameID)
		if err != nil {
			return err
		}

		participant, err := s.participantRepo.FindByGameAndUser(ctx, exec, gameID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}

		if participant.Role == models.RoleOrganizer && game.CreatedByID == userID {
			return ErrOrganizerImmutable
		}
		if participant.Status == models.ParticipationNotGoing {
			return nil
		}
		return s.participantRepo.UpdateStatusRole(ctx, exec, participant.ID, models.ParticipationNotGoing, participant.Role)
	})
}

// Approve admits a waitlisted participant. The GOING count is re-read inside
// the same transaction, after the game row lock, so a committed approval can
// never push the count past max_players.
func (s *admissionService) Approve(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error) {
	var (
		clubID      int
		participant *models.Participant
	)
	err := s.txm.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		game, err := s.lockGame(ctx, exec, gameID)
		if err != nil {
			return err
		}
		clubID = game.ClubID

		ok, err := canManageGame(ctx, s.clubs, game, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrManageForbidden
		}
		if game.Status.Terminal() {
			return ErrGameNotJoinable
		}

		participant, err = s.participantRepo.FindByGameAndUser(ctx, exec, gameID, targetUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}
		if participant.Status != models.ParticipationWaitlist {
			return ErrNotWaitlisted
		}

		goingCount, err := s.participantRepo.CountByGameAndStatus(ctx, exec, gameID, models.ParticipationGoing)
		if err != nil {
			return err
		}
		if goingCount >= game.MaxPlayers {
			return ErrGameFull
		}

		if err := s.participantRepo.UpdateStatusRole(ctx, exec, participant.ID, models.ParticipationGoing, models.RolePlayer); err != nil {
			return err
		}
		participant.Status = models.ParticipationGoing
		participant.Role = models.RolePlayer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, GameParticipantApproved{GameID: gameID, ClubID: clubID, UserID: targetUserID})
	return s.attachUser(ctx, participant)
}

// Reject turns down a participation request. Rejecting an already NOT_GOING
// participant is a no-op that succeeds without emitting an event.
func (s *admissionService) Reject(ctx context.Context, gameID, actorID, targetUserID int) (*models.Participant, error) {
	var (
		clubID      int
		participant *models.Participant
		changed     bool
	)
	err := s.txm.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		game, err := s.lockGame(ctx, exec, gameID)
		if err != nil {
			return err
		}
		clubID = game.ClubID

		ok, err := canManageGame(ctx, s.clubs, game, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrManageForbidden
		}

		participant, err = s.participantRepo.FindByGameAndUser(ctx, exec, gameID, targetUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}

		if participant.Role == models.RoleOrganizer && game.CreatedByID == targetUserID {
			return ErrOrganizerImmutable
		}
		if participant.Status == models.ParticipationNotGoing {
			return nil
		}

		if err := s.participantRepo.UpdateStatusRole(ctx, exec, participant.ID, models.ParticipationNotGoing, models.RoleReserve); err != nil {
			return err
		}
		participant.Status = models.ParticipationNotGoing
		participant.Role = models.RoleReserve
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifier.Notify(ctx, GameParticipantRejected{GameID: gameID, ClubID: clubID, UserID: targetUserID})
	}
	return s.attachUser(ctx, participant)
}
