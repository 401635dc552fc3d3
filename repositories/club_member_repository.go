package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courtside/club-games/models"
	"github.com/lib/pq"
)

// ClubMemberRepository is a read-only view over club memberships, which are
// owned by the clubs module. It exists to answer authorization questions.
type ClubMemberRepository interface {
	HasAnyRole(ctx context.Context, clubID, userID int, roles ...models.ClubRole) (bool, error)
}

type PostgresClubMemberRepository struct {
	db *sql.DB
}

func NewPostgresClubMemberRepository(db *sql.DB) *PostgresClubMemberRepository {
	return &PostgresClubMemberRepository{db: db}
}

func (r *PostgresClubMemberRepository) HasAnyRole(ctx context.Context, clubID, userID int, roles ...models.ClubRole) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM club_members
		WHERE club_id = $1 AND user_id = $2 AND role = ANY($3)
	)`

	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, clubID, userID, pq.Array(roleNames)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check club membership: %w", err)
	}
	return exists, nil
}

// IsClubOwnerOrAdmin implements services.ClubMembershipLookup.
func (r *PostgresClubMemberRepository) IsClubOwnerOrAdmin(ctx context.Context, clubID, userID int) (bool, error) {
	return r.HasAnyRole(ctx, clubID, userID, models.ClubRoleOwner, models.ClubRoleAdmin)
}
