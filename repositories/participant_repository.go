package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/club-games/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrParticipantConflict    = errors.New("participant conflict: user already joined this game")
	ErrParticipantUserInvalid = errors.New("participant user conflict or invalid")
	ErrParticipantGameInvalid = errors.New("participant game conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	FindByGameAndUser(ctx context.Context, exec SQLExecutor, gameID, userID int) (*models.Participant, error)
	// ListByGame returns participants joined with their users, ordered by
	// creation time so waitlist order is stable.
	ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Participant, error)
	CountByGameAndStatus(ctx context.Context, exec SQLExecutor, gameID int, status models.ParticipationStatus) (int, error)
	UpdateStatusRole(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus, role models.ParticipationRole) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO game_participants (game_id, user_id, status, role, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		p.GameID,
		p.UserID,
		p.Status,
		p.Role,
		p.Note,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "game_participants_game_id_user_id_key" {
					return ErrParticipantConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "game_participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "game_participants_game_id_fkey":
					return ErrParticipantGameInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) FindByGameAndUser(ctx context.Context, exec SQLExecutor, gameID, userID int) (*models.Participant, error) {
	query := `SELECT id, game_id, user_id, status, role, note, created_at, updated_at
			  FROM game_participants WHERE game_id = $1 AND user_id = $2`

	p := &models.Participant{}
	row := r.executor(exec).QueryRowContext(ctx, query, gameID, userID)
	err := row.Scan(&p.ID, &p.GameID, &p.UserID, &p.Status, &p.Role, &p.Note, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByGame(ctx context.Context, exec SQLExecutor, gameID int) ([]*models.Participant, error) {
	query := `
		SELECT
			p.id, p.game_id, p.user_id, p.status, p.role, p.note, p.created_at, p.updated_at,
			u.id, u.first_name, u.last_name, u.nickname, u.level, u.created_at
		FROM game_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.game_id = $1
		ORDER BY p.created_at ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by game: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.User
		err := rows.Scan(
			&p.ID, &p.GameID, &p.UserID, &p.Status, &p.Role, &p.Note, &p.CreatedAt, &p.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Level, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		p.User = &u
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountByGameAndStatus(ctx context.Context, exec SQLExecutor, gameID int, status models.ParticipationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM game_participants WHERE game_id = $1 AND status = $2`

	var count int
	if err := r.executor(exec).QueryRowContext(ctx, query, gameID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) UpdateStatusRole(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus, role models.ParticipationRole) error {
	query := `UPDATE game_participants SET status = $1, role = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.executor(exec).ExecContext(ctx, query, status, role, id)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
