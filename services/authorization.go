package services

import (
	"context"
	"fmt"

	"github.com/courtside/club-games/models"
)

// ClubMembershipLookup answers whether a user holds an OWNER or ADMIN role
// in a club. Membership storage belongs to the clubs module; this service
// only consumes the boolean capability.
type ClubMembershipLookup interface {
	IsClubOwnerOrAdmin(ctx context.Context, clubID, userID int) (bool, error)
}

// canManageGame reports whether the actor may perform management actions on
// the game: the creator always can, club owners/admins can. Absence of a
// membership means no.
func canManageGame(ctx context.Context, clubs ClubMembershipLookup, game *models.Game, actorID int) (bool, error) {
	if game.CreatedByID == actorID {
		return true, nil
	}
	ok, err := clubs.IsClubOwnerOrAdmin(ctx, game.ClubID, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to check club membership: %w", err)
	}
	return ok, nil
}
