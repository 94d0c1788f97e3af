package memberships

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

func setupMembershipsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:memberships_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Company{}, &models.Member{}, &models.MembershipRequest{}))

	t.Cleanup(func() {
		conn.Exec(`DELETE FROM membership_requests`)
		conn.Exec(`DELETE FROM members`)
		conn.Exec(`DELETE FROM companies`)
	})
	return conn
}

func TestCompaniesSolelyOwnedBy(t *testing.T) {
	conn := setupMembershipsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	soleCompany := uuid.New()
	sharedCompany := uuid.New()
	userID := uuid.New()
	coOwner := uuid.New()

	require.NoError(t, repo.CreateMember(ctx, &models.Member{CompanyID: soleCompany, UserID: userID, Role: enums.CompanyRoleOwner}))
	require.NoError(t, repo.CreateMember(ctx, &models.Member{CompanyID: sharedCompany, UserID: userID, Role: enums.CompanyRoleOwner}))
	require.NoError(t, repo.CreateMember(ctx, &models.Member{CompanyID: sharedCompany, UserID: coOwner, Role: enums.CompanyRoleOwner}))
	// Manager roles never count toward the owner floor.
	require.NoError(t, repo.CreateMember(ctx, &models.Member{CompanyID: soleCompany, UserID: coOwner, Role: enums.CompanyRoleManager}))

	companies, err := repo.CompaniesSolelyOwnedBy(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{soleCompany}, companies)

	companies, err = repo.CompaniesSolelyOwnedBy(ctx, coOwner)
	require.NoError(t, err)
	require.Empty(t, companies)
}

func TestDeleteMemberKeepingOwner(t *testing.T) {
	conn := setupMembershipsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	companyID := uuid.New()
	owner := &models.Member{CompanyID: companyID, UserID: uuid.New(), Role: enums.CompanyRoleOwner}
	require.NoError(t, repo.CreateMember(ctx, owner))

	// The sole owner survives the conditional delete.
	deleted, err := repo.DeleteMemberKeepingOwner(ctx, owner.ID, companyID)
	require.NoError(t, err)
	require.False(t, deleted)

	var count int64
	require.NoError(t, conn.Model(&models.Member{}).Where("id = ?", owner.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	second := &models.Member{CompanyID: companyID, UserID: uuid.New(), Role: enums.CompanyRoleOwner}
	require.NoError(t, repo.CreateMember(ctx, second))

	deleted, err = repo.DeleteMemberKeepingOwner(ctx, owner.ID, companyID)
	require.NoError(t, err)
	require.True(t, deleted)

	// Non-owners delete regardless of the owner count.
	creator := &models.Member{CompanyID: companyID, UserID: uuid.New(), Role: enums.CompanyRoleCreator}
	require.NoError(t, repo.CreateMember(ctx, creator))
	deleted, err = repo.DeleteMemberKeepingOwner(ctx, creator.ID, companyID)
	require.NoError(t, err)
	require.True(t, deleted)
}

func TestUpdateMemberRoleKeepingOwner(t *testing.T) {
	conn := setupMembershipsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	companyID := uuid.New()
	owner := &models.Member{CompanyID: companyID, UserID: uuid.New(), Role: enums.CompanyRoleOwner}
	require.NoError(t, repo.CreateMember(ctx, owner))

	// Demoting the sole owner loses the conditional update.
	changed, err := repo.UpdateMemberRoleKeepingOwner(ctx, owner.ID, companyID, enums.CompanyRoleManager)
	require.NoError(t, err)
	require.False(t, changed)

	stored, err := repo.FindMemberByID(ctx, owner.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CompanyRoleOwner, stored.Role)

	// Promoting someone to owner is never blocked.
	creator := &models.Member{CompanyID: companyID, UserID: uuid.New(), Role: enums.CompanyRoleCreator}
	require.NoError(t, repo.CreateMember(ctx, creator))
	changed, err = repo.UpdateMemberRoleKeepingOwner(ctx, creator.ID, companyID, enums.CompanyRoleOwner)
	require.NoError(t, err)
	require.True(t, changed)

	// With two owners the demotion goes through.
	changed, err = repo.UpdateMemberRoleKeepingOwner(ctx, owner.ID, companyID, enums.CompanyRoleManager)
	require.NoError(t, err)
	require.True(t, changed)
}

func TestResolveRequestIsSingleShot(t *testing.T) {
	conn := setupMembershipsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	request := &models.MembershipRequest{
		CompanyID:     uuid.New(),
		UserID:        uuid.New(),
		RequestedRole: enums.CompanyRoleCreator,
		Status:        enums.MembershipRequestPending,
	}
	require.NoError(t, repo.CreateRequest(ctx, request))

	resolver := uuid.New()
	now := time.Now().UTC()

	resolved, err := repo.ResolveRequest(ctx, request.ID, resolver, enums.MembershipRequestApproved, nil, now)
	require.NoError(t, err)
	require.True(t, resolved)

	// A second resolution loses the conditional update.
	resolved, err = repo.ResolveRequest(ctx, request.ID, uuid.New(), enums.MembershipRequestDenied, nil, now)
	require.NoError(t, err)
	require.False(t, resolved)

	stored, err := repo.FindRequestByID(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.MembershipRequestApproved, stored.Status)
	require.NotNil(t, stored.ResolvedByUserID)
	require.Equal(t, resolver, *stored.ResolvedByUserID)
	require.NotNil(t, stored.ResolvedAt)
}

func TestHasPendingRequest(t *testing.T) {
	conn := setupMembershipsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	companyID := uuid.New()
	userID := uuid.New()

	pending, err := repo.HasPendingRequest(ctx, companyID, userID)
	require.NoError(t, err)
	require.False(t, pending)

	request := &models.MembershipRequest{
		CompanyID:     companyID,
		UserID:        userID,
		RequestedRole: enums.CompanyRoleCreator,
		Status:        enums.MembershipRequestPending,
	}
	require.NoError(t, repo.CreateRequest(ctx, request))

	pending, err = repo.HasPendingRequest(ctx, companyID, userID)
	require.NoError(t, err)
	require.True(t, pending)

	_, err = repo.ResolveRequest(ctx, request.ID, uuid.New(), enums.MembershipRequestDenied, nil, time.Now().UTC())
	require.NoError(t, err)

	pending, err = repo.HasPendingRequest(ctx, companyID, userID)
	require.NoError(t, err)
	require.False(t, pending)
}

func TestListRequestsFiltersByStatus(t *testing.T) {
	conn := setupMembershipsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	companyID := uuid.New()
	pendingReq := &models.MembershipRequest{CompanyID: companyID, UserID: uuid.New(), RequestedRole: enums.CompanyRoleCreator, Status: enums.MembershipRequestPending}
	deniedReq := &models.MembershipRequest{CompanyID: companyID, UserID: uuid.New(), RequestedRole: enums.CompanyRoleManager, Status: enums.MembershipRequestDenied}
	require.NoError(t, repo.CreateRequest(ctx, pendingReq))
	require.NoError(t, repo.CreateRequest(ctx, deniedReq))

	all, err := repo.ListRequests(ctx, companyID, nil, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	status := enums.MembershipRequestPending
	onlyPending, err := repo.ListRequests(ctx, companyID, &status, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, onlyPending, 1)
	require.Equal(t, pendingReq.ID, onlyPending[0].ID)
}

func TestListRequestsByUser(t *testing.T) {
	conn := setupMembershipsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	userID := uuid.New()
	mine := &models.MembershipRequest{CompanyID: uuid.New(), UserID: userID, RequestedRole: enums.CompanyRoleCreator, Status: enums.MembershipRequestPending}
	also := &models.MembershipRequest{CompanyID: uuid.New(), UserID: userID, RequestedRole: enums.CompanyRoleManager, Status: enums.MembershipRequestDenied}
	other := &models.MembershipRequest{CompanyID: uuid.New(), UserID: uuid.New(), RequestedRole: enums.CompanyRoleCreator, Status: enums.MembershipRequestPending}
	require.NoError(t, repo.CreateRequest(ctx, mine))
	require.NoError(t, repo.CreateRequest(ctx, also))
	require.NoError(t, repo.CreateRequest(ctx, other))

	requests, err := repo.ListRequestsByUser(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, requests, 2)
	for _, req := range requests {
		require.Equal(t, userID, req.UserID)
	}
}
