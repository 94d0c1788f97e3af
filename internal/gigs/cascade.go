package gigs

import (
	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/internal/cascade"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
)

// DeletionPlan erases a gig together with everything referencing it.
func DeletionPlan(gigID uuid.UUID) cascade.Plan {
	return cascade.Plan{
		Name: "gig-deletion",
		Steps: []cascade.Step{
			cascade.DeleteWhere("stars_transactions", &models.StarsTransaction{}, "gig_id = ?", gigID),
			cascade.DeleteWhere("money_transactions", &models.MoneyTransaction{}, "gig_id = ?", gigID),
			cascade.DeleteExec("gig_reviews",
				`DELETE FROM gig_reviews WHERE assignment_id IN (SELECT id FROM gig_assignments WHERE gig_id = ?)`, gigID),
			cascade.DeleteWhere("watchlist_entries", &models.WatchlistEntry{}, "gig_id = ?", gigID),
			cascade.ClearExec("purchase_assignment_links",
				`UPDATE purchases SET applied_to_assignment_id = NULL WHERE applied_to_assignment_id IN (
					SELECT id FROM gig_assignments WHERE gig_id = ?
				)`, gigID),
			cascade.DeleteWhere("gig_assignments", &models.GigAssignment{}, "gig_id = ?", gigID),
			cascade.DeleteWhere("gig", &models.Gig{}, "id = ?", gigID),
		},
	}
}
