package users

import (
	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/internal/cascade"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
)

// ErasurePlan removes every row a user owns, children first. Gigs the
// user created for a company are company property and survive; only the
// user's own claims, bookmarks and ledger history go.
func ErasurePlan(userID uuid.UUID) cascade.Plan {
	return cascade.Plan{
		Name: "user-erasure",
		Steps: []cascade.Step{
			cascade.DeleteWhere("stars_transactions", &models.StarsTransaction{}, "user_id = ?", userID),
			cascade.DeleteWhere("money_transactions", &models.MoneyTransaction{}, "user_id = ?", userID),
			cascade.DeleteWhere("reviews_authored", &models.GigReview{}, "reviewer_user_id = ?", userID),
			cascade.DeleteWhere("purchases", &models.Purchase{}, "user_id = ?", userID),
			cascade.DeleteWhere("watchlist_entries", &models.WatchlistEntry{}, "user_id = ?", userID),
			cascade.DeleteWhere("gig_assignments", &models.GigAssignment{}, "user_id = ?", userID),
			cascade.DeleteWhere("membership_requests", &models.MembershipRequest{}, "user_id = ?", userID),
			cascade.DeleteWhere("members", &models.Member{}, "user_id = ?", userID),
			cascade.DeleteWhere("refresh_tokens", &models.RefreshToken{}, "user_id = ?", userID),
			cascade.DeleteWhere("password_reset_tokens", &models.PasswordResetToken{}, "user_id = ?", userID),
			cascade.DeleteWhere("profile", &models.Profile{}, "user_id = ?", userID),
			cascade.DeleteWhere("user", &models.User{}, "id = ?", userID),
		},
	}
}
