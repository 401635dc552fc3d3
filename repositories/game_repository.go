package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/courtside/club-games/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameClubInvalid = errors.New("game club conflict or invalid")
	ErrGameUserInvalid = errors.New("game creator conflict or invalid")
)

// GameFilter narrows ListGames. Zero values mean "no filter".
type GameFilter struct {
	ClubID *int
	Status *models.GameStatus
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	// GetByIDForUpdate locks the game row for the duration of the
	// surrounding transaction. Every mutation of a game's participant set
	// goes through this lock, which serializes count-then-write sequences
	// per game without any cross-game contention.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	List(ctx context.Context, filter GameFilter) ([]*models.Game, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.GameStatus) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, club_id, created_by_id, title, description, court_name,
	starts_at, ends_at, timezone, max_players, visibility, status,
	level_note, min_level, max_level, is_rated, created_at, updated_at`

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games
			(club_id, created_by_id, title, description, court_name,
			 starts_at, ends_at, timezone, max_players, visibility, status,
			 level_note, min_level, max_level, is_rated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	err := exec.QueryRowContext(ctx, query,
		game.ClubID,
		game.CreatedByID,
		game.Title,
		game.Description,
		game.CourtName,
		game.StartsAt,
		game.EndsAt,
		game.Timezone,
		game.MaxPlayers,
		game.Visibility,
		game.Status,
		game.LevelNote,
		game.MinLevel,
		game.MaxLevel,
		game.IsRated,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "games_club_id_fkey":
				return ErrGameClubInvalid
			case "games_created_by_id_fkey":
				return ErrGameUserInvalid
			}
		}
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) scanGame(rowScanner interface {
	Scan(dest ...interface{}) error
}, g *models.Game) error {
	return rowScanner.Scan(
		&g.ID,
		&g.ClubID,
		&g.CreatedByID,
		&g.Title,
		&g.Description,
		&g.CourtName,
		&g.StartsAt,
		&g.EndsAt,
		&g.Timezone,
		&g.MaxPlayers,
		&g.Visibility,
		&g.Status,
		&g.LevelNote,
		&g.MinLevel,
		&g.MaxLevel,
		&g.IsRated,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
}

func (r *postgresGameRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Game, error) {
	if exec == nil {
		exec = r.db
	}
	g := &models.Game{}
	row := exec.QueryRowContext(ctx, query, args...)
	if err := r.scanGame(row, g); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to find game: %w", err)
	}
	return g, nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE id = $1`, gameColumns)
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresGameRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE id = $1 FOR UPDATE`, gameColumns)
	return r.findOne(ctx, exec, query, id)
}

func (r *postgresGameRepository) List(ctx context.Context, filter GameFilter) ([]*models.Game, error) {
	var queryBuilder strings.Builder
	args := make([]interface{}, 0, 6)

	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s FROM games WHERE 1=1`, gameColumns))

	if filter.ClubID != nil {
		args = append(args, *filter.ClubID)
		queryBuilder.WriteString(fmt.Sprintf(" AND club_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		queryBuilder.WriteString(fmt.Sprintf(" AND starts_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		queryBuilder.WriteString(fmt.Sprintf(" AND starts_at <= $%d", len(args)))
	}

	queryBuilder.WriteString(" ORDER BY starts_at ASC")

	args = append(args, filter.Limit)
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, filter.Offset)
	queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		var g models.Game
		if err := r.scanGame(rows, &g); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, &g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game rows: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.GameStatus) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE games SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
