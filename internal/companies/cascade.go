package companies

import (
	"github.com/google/uuid"

	"github.com/gigdesk/gigdesk-backend/internal/cascade"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
)

// DeletionPlan erases a company and everything hanging off its gigs.
// Ledger rows that reference a company gig keep the contractor's balance
// history consistent only if they go with the gig, so they are first.
func DeletionPlan(companyID uuid.UUID) cascade.Plan {
	return cascade.Plan{
		Name: "company-deletion",
		Steps: []cascade.Step{
			cascade.DeleteExec("stars_transactions",
				`DELETE FROM stars_transactions WHERE gig_id IN (SELECT id FROM gigs WHERE company_id = ?)`, companyID),
			cascade.DeleteExec("money_transactions",
				`DELETE FROM money_transactions WHERE gig_id IN (SELECT id FROM gigs WHERE company_id = ?)`, companyID),
			cascade.DeleteExec("gig_reviews",
				`DELETE FROM gig_reviews WHERE assignment_id IN (
					SELECT id FROM gig_assignments WHERE gig_id IN (SELECT id FROM gigs WHERE company_id = ?)
				)`, companyID),
			cascade.DeleteExec("watchlist_entries",
				`DELETE FROM watchlist_entries WHERE gig_id IN (SELECT id FROM gigs WHERE company_id = ?)`, companyID),
			cascade.ClearExec("purchase_assignment_links",
				`UPDATE purchases SET applied_to_assignment_id = NULL WHERE applied_to_assignment_id IN (
					SELECT id FROM gig_assignments WHERE gig_id IN (SELECT id FROM gigs WHERE company_id = ?)
				)`, companyID),
			cascade.DeleteExec("gig_assignments",
				`DELETE FROM gig_assignments WHERE gig_id IN (SELECT id FROM gigs WHERE company_id = ?)`, companyID),
			cascade.DeleteWhere("gigs", &models.Gig{}, "company_id = ?", companyID),
			cascade.DeleteWhere("membership_requests", &models.MembershipRequest{}, "company_id = ?", companyID),
			cascade.DeleteWhere("members", &models.Member{}, "company_id = ?", companyID),
			cascade.DeleteWhere("company", &models.Company{}, "id = ?", companyID),
		},
	}
}
