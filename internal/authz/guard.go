package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

// MemberReader is the membership lookup the guard depends on.
type MemberReader interface {
	GetMember(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error)
	CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error)
}

// Guard centralizes company role checks. Every mutation that touches a
// company resource goes through one of these gates.
type Guard struct {
	members MemberReader
}

// NewGuard builds a guard over the provided membership reader.
func NewGuard(members MemberReader) (*Guard, error) {
	if members == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member reader is required")
	}
	return &Guard{members: members}, nil
}

// RequireRole loads the caller's membership and checks it against the
// allowed set. A missing company is NotFound; an existing company the
// caller does not belong to is Forbidden.
func (g *Guard) RequireRole(ctx context.Context, companyID, userID uuid.UUID, allowed []enums.CompanyRole) (*models.Member, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id is required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	member, err := g.members.GetMember(ctx, companyID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			exists, existsErr := g.members.CompanyExists(ctx, companyID)
			if existsErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, existsErr, "load company")
			}
			if !exists {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
			}
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this company")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}

	for _, role := range allowed {
		if member.Role == role {
			return member, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role does not permit this action")
}

// RequireMember gates reads that any member may perform, regardless of
// role.
func (g *Guard) RequireMember(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error) {
	return g.RequireRole(ctx, companyID, userID, enums.AllCompanyRoles)
}

// RequireGigEditor gates gig create/update/delete.
func (g *Guard) RequireGigEditor(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error) {
	return g.RequireRole(ctx, companyID, userID, enums.GigEditorRoles)
}

// RequireGigStatusChanger gates gig status transitions.
func (g *Guard) RequireGigStatusChanger(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error) {
	return g.RequireRole(ctx, companyID, userID, enums.GigStatusRoles)
}

// RequireCompanyAdmin gates reviews and membership-request resolution.
func (g *Guard) RequireCompanyAdmin(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error) {
	return g.RequireRole(ctx, companyID, userID, enums.CompanyAdminRoles)
}

// RequireOwner gates member mutation and company deletion.
func (g *Guard) RequireOwner(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error) {
	return g.RequireRole(ctx, companyID, userID, enums.OwnerOnly)
}
