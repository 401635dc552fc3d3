package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/club-games/models"
	"github.com/courtside/club-games/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimezone   = "Europe/Tallinn"
	defaultMaxPlayers = 4
	minPlayers        = 2
	maxPlayers        = 8

	defaultListLimit = 20
	maxListLimit     = 100
)

// allowedStatusTransitions is the game lifecycle state machine. FINISHED and
// CANCELLED are terminal; self-transitions are not listed and therefore illegal.
var allowedStatusTransitions = map[models.GameStatus][]models.GameStatus{
	models.GameStatusScheduled: {models.GameStatusOngoing, models.GameStatusCancelled},
	models.GameStatusOngoing:   {models.GameStatusFinished, models.GameStatusCancelled},
	models.GameStatusFinished:  {},
	models.GameStatusCancelled: {},
}

func isValidStatusTransition(current, next models.GameStatus) bool {
	for _, allowed := range allowedStatusTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

type CreateGameInput struct {
	ClubID      int                    `json:"club_id"`
	StartsAt    time.Time              `json:"starts_at"`
	EndsAt      time.Time              `json:"ends_at"`
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	CourtName   *string                `json:"court_name,omitempty"`
	Timezone    *string                `json:"timezone,omitempty"`
	MaxPlayers  *int                   `json:"max_players,omitempty"`
	Visibility  *models.GameVisibility `json:"visibility,omitempty"`
	LevelNote   *string                `json:"level_note,omitempty"`
	MinLevel    *float64               `json:"min_level,omitempty"`
	MaxLevel    *float64               `json:"max_level,omitempty"`
	IsRated     bool                   `json:"is_rated"`
}

type GameService interface {
	CreateGame(ctx context.Context, input CreateGameInput, creatorID int) (*models.Game, error)
	ListGames(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error)
	GetGame(ctx context.Context, gameID int) (*models.GameDetail, error)
	UpdateStatus(ctx context.Context, gameID, actorID int, target models.GameStatus) (models.GameStatus, error)
}

type gameService struct {
	txm             repositories.TxManager
	gameRepo        repositories.GameRepository
	participantRepo repositories.ParticipantRepository
	clubs           ClubMembershipLookup
	notifier        Notifier
}

func NewGameService(
	txm repositories.TxManager,
	gameRepo repositories.GameRepository,
	participantRepo repositories.ParticipantRepository,
	clubs ClubMembershipLookup,
	notifier Notifier,
) GameService {
	return &gameService{
		txm:             txm,
		gameRepo:        gameRepo,
		participantRepo: participantRepo,
		clubs:           clubs,
		notifier:        notifier,
	}
}

func validateCreateGameInput(input CreateGameInput) error {
	if input.ClubID <= 0 {
		return fmt.Errorf("%w: club_id is required", ErrValidationFailed)
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() {
		return fmt.Errorf("%w: starts_at and ends_at are required", ErrValidationFailed)
	}
	if !input.EndsAt.After(input.StartsAt) {
		return ErrInvalidTimeRange
	}
	if input.MaxPlayers != nil && (*input.MaxPlayers < minPlayers || *input.MaxPlayers > maxPlayers) {
		return ErrInvalidCapacity
	}
	if input.Visibility != nil && !input.Visibility.Valid() {
		return fmt.Errorf("%w: invalid visibility %q", ErrValidationFailed, *input.Visibility)
	}
	if input.MinLevel != nil && input.MaxLevel != nil && *input.MaxLevel < *input.MinLevel {
		return ErrInvalidLevelRange
	}
	return nil
}

// CreateGame persists a new SCHEDULED game and seats its creator as an
// ORGANIZER/GOING participant in the same transaction.
func (s *gameService) CreateGame(ctx context.Context, input CreateGameInput, creatorID int) (*models.Game, error) {
	if err := validateCreateGameInput(input); err != nil {
		return nil, err
	}

	game := &models.Game{
		ClubID:      input.ClubID,
		CreatedByID: creatorID,
		Title:       input.Title,
		Description: input.Description,
		CourtName:   input.CourtName,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Timezone:    defaultTimezone,
		MaxPlayers:  defaultMaxPlayers,
		Visibility:  models.VisibilityPublic,
		Status:      models.GameStatusScheduled,
		LevelNote:   input.LevelNote,
		MinLevel:    input.MinLevel,
		MaxLevel:    input.MaxLevel,
		IsRated:     input.IsRated,
	}
	if input.Timezone != nil && *input.Timezone != "" {
		game.Timezone = *input.Timezone
	}
	if input.MaxPlayers != nil {
		game.MaxPlayers = *input.MaxPlayers
	}
	if input.Visibility != nil {
		game.Visibility = *input.Visibility
	}

	err := s.txm.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if err := s.gameRepo.Create(ctx, exec, game); err != nil {
			return err
		}
		organizer := &models.Participant{
			GameID: game.ID,
			UserID: creatorID,
			Status: models.ParticipationGoing,
			Role:   models.RoleOrganizer,
		}
		if err := s.participantRepo.Create(ctx, exec, organizer); err != nil {
			return err
		}
		game.Participants = []models.Participant{*organizer}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, GameCreated{GameID: game.ID, ClubID: game.ClubID, OrganizerID: creatorID})
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context, filter repositories.GameFilter) ([]*models.Game, error) {
	if filter.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrValidationFailed)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidationFailed, *filter.Status)
	}
	return s.gameRepo.List(ctx, filter)
}

// GetGame builds the read model for a single game. Counts and eligibility
// flags are derived from the current rows on every call; nothing is cached
// and nothing is mutated.
func (s *gameService) GetGame(ctx context.Context, gameID int) (*models.GameDetail, error) {
	var (
		game         *models.Game
		participants []*models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		game, err = s.gameRepo.GetByID(gCtx, nil, gameID)
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByGame(gCtx, nil, gameID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := &models.GameDetail{
		Game:     *game,
		Players:  []models.ParticipantView{},
		Requests: []models.ParticipantView{},
		Maybe:    []models.ParticipantView{},
		Rejected: []models.ParticipantView{},
	}

	for _, p := range participants {
		view := models.ParticipantView{
			Participant: *p,
			LevelOK:     levelOK(p.User, game.MinLevel, game.MaxLevel),
		}
		switch p.Status {
		case models.ParticipationGoing:
			detail.Players = append(detail.Players, view)
			detail.Stats.GoingCount++
		case models.ParticipationWaitlist:
			detail.Requests = append(detail.Requests, view)
			detail.Stats.WaitlistCount++
		case models.ParticipationMaybe:
			detail.Maybe = append(detail.Maybe, view)
			detail.Stats.MaybeCount++
		case models.ParticipationNotGoing:
			detail.Rejected = append(detail.Rejected, view)
			detail.Stats.NotGoingCount++
		}
	}

	detail.Stats.FreeSlots = game.MaxPlayers - detail.Stats.GoingCount
	if detail.Stats.FreeSlots < 0 {
		detail.Stats.FreeSlots = 0
	}
	detail.Stats.IsFull = detail.Stats.GoingCount >= game.MaxPlayers
	return detail, nil
}

// levelOK reports whether a user's skill level fits the game's declared
// bounds. Unknown levels and unset bounds always pass.
func levelOK(user *models.User, minLevel, maxLevel *float64) bool {
	if user == nil || user.Level == nil {
		return true
	}
	if minLevel != nil && *user.Level < *minLevel {
		return false
	}
	if maxLevel != nil && *user.Level > *maxLevel {
		return false
	}
	return true
}

// UpdateStatus advances the game lifecycle. The transition is validated and
// persisted under the game row lock so concurrent updates cannot interleave.
func (s *gameService) UpdateStatus(ctx context.Context, gameID, actorID int, target models.GameStatus) (models.GameStatus, error) {
	if !target.Valid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidationFailed, target)
	}

	var event GameStatusChanged
	err := s.txm.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetByIDForUpdate(ctx, exec, gameID)
		if err != nil {
			if errors.Is(err, repositories.ErrGameNotFound) {
				return ErrGameNotFound
			}
			return err
		}

		ok, err := canManageGame(ctx, s.clubs, game, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrManageForbidden
		}

		if !isValidStatusTransition(game.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, game.Status, target)
		}

		if err := s.gameRepo.UpdateStatus(ctx, exec, gameID, target); err != nil {
			return err
		}
		event = GameStatusChanged{
			GameID:     game.ID,
			ClubID:     game.ClubID,
			StatusFrom: game.Status,
			StatusTo:   target,
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.notifier.Notify(ctx, event)
	return target, nil
}
