package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
)

type fakeMemberReader struct {
	members   map[string]*models.Member
	companies map[uuid.UUID]bool
}

func memberKey(companyID, userID uuid.UUID) string {
	return companyID.String() + "/" + userID.String()
}

func (f *fakeMemberReader) GetMember(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error) {
	member, ok := f.members[memberKey(companyID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return member, nil
}

func (f *fakeMemberReader) CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	return f.companies[companyID], nil
}

func newGuardWithRole(t *testing.T, companyID, userID uuid.UUID, role enums.CompanyRole) *Guard {
	t.Helper()
	reader := &fakeMemberReader{
		members: map[string]*models.Member{
			memberKey(companyID, userID): {CompanyID: companyID, UserID: userID, Role: role},
		},
		companies: map[uuid.UUID]bool{companyID: true},
	}
	guard, err := NewGuard(reader)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}
	return guard
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != want {
		t.Fatalf("expected code %s, got %s", want, typed.Code())
	}
}

func TestRequireRoleAllows(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	guard := newGuardWithRole(t, companyID, userID, enums.CompanyRoleManager)

	member, err := guard.RequireGigEditor(context.Background(), companyID, userID)
	if err != nil {
		t.Fatalf("expected manager to edit gigs: %v", err)
	}
	if member.Role != enums.CompanyRoleManager {
		t.Fatalf("unexpected member role %s", member.Role)
	}
}

func TestRequireRoleRejectsOutsider(t *testing.T) {
	companyID := uuid.New()
	guard := newGuardWithRole(t, companyID, uuid.New(), enums.CompanyRoleOwner)

	_, err := guard.RequireGigEditor(context.Background(), companyID, uuid.New())
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestRequireRoleUnknownCompanyIsNotFound(t *testing.T) {
	guard := newGuardWithRole(t, uuid.New(), uuid.New(), enums.CompanyRoleOwner)

	_, err := guard.RequireMember(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestRequireRoleRejectsInsufficientRole(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	guard := newGuardWithRole(t, companyID, userID, enums.CompanyRoleApprover)

	// Approvers change status and review but cannot edit gig content.
	if _, err := guard.RequireGigStatusChanger(context.Background(), companyID, userID); err != nil {
		t.Fatalf("approver should change status: %v", err)
	}
	_, err := guard.RequireGigEditor(context.Background(), companyID, userID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestRequireOwnerOnly(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	guard := newGuardWithRole(t, companyID, userID, enums.CompanyRoleManager)

	_, err := guard.RequireOwner(context.Background(), companyID, userID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestRequireRoleValidatesInputs(t *testing.T) {
	companyID := uuid.New()
	userID := uuid.New()
	guard := newGuardWithRole(t, companyID, userID, enums.CompanyRoleOwner)

	_, err := guard.RequireOwner(context.Background(), uuid.Nil, userID)
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = guard.RequireOwner(context.Background(), companyID, uuid.Nil)
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}
