package memberships

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/internal/authz"
	"github.com/gigdesk/gigdesk-backend/pkg/db"
	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	pkgerrors "github.com/gigdesk/gigdesk-backend/pkg/errors"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// ServiceParams groups dependencies for the membership workflow.
type ServiceParams struct {
	DB         *db.Client
	Repo       *Repository
	Guard      *authz.Guard
	TxRepoFunc func(tx *gorm.DB) *Repository
	Now        func() time.Time
}

// Service runs the join-request workflow and member administration.
type Service interface {
	RequestToJoin(ctx context.Context, userID, companyID uuid.UUID, role enums.CompanyRole, note *string) (*models.MembershipRequest, error)
	ListRequests(ctx context.Context, callerID, companyID uuid.UUID, status *enums.MembershipRequestStatus, page pagination.Params) ([]models.MembershipRequest, error)
	ListMyRequests(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MembershipRequest, error)
	ResolveRequest(ctx context.Context, callerID, requestID uuid.UUID, approve bool, note *string) (*models.MembershipRequest, error)
	ListMembers(ctx context.Context, callerID, companyID uuid.UUID) ([]models.Member, error)
	ListMyMemberships(ctx context.Context, userID uuid.UUID) ([]models.Member, error)
	AddMember(ctx context.Context, callerID, companyID, userID uuid.UUID, role enums.CompanyRole) (*models.Member, error)
	ChangeMemberRole(ctx context.Context, callerID, companyID, memberID uuid.UUID, role enums.CompanyRole) (*models.Member, error)
	RemoveMember(ctx context.Context, callerID, companyID, memberID uuid.UUID) error
	LeaveCompany(ctx context.Context, userID, companyID uuid.UUID) error
}

type service struct {
	db         *db.Client
	repo       *Repository
	guard      *authz.Guard
	txRepoFunc func(tx *gorm.DB) *Repository
	now        func() time.Time
}

// NewService builds the membership workflow service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "memberships repo is required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization guard is required")
	}
	txRepoFunc := params.TxRepoFunc
	if txRepoFunc == nil {
		txRepoFunc = NewRepository
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:         params.DB,
		repo:       params.Repo,
		guard:      params.Guard,
		txRepoFunc: txRepoFunc,
		now:        now,
	}, nil
}

// RequestToJoin opens a PENDING request. Users already in the company, or
// with an open request, are rejected. OWNER cannot be requested; it is
// only granted by an existing owner.
func (s *service) RequestToJoin(ctx context.Context, userID, companyID uuid.UUID, role enums.CompanyRole, note *string) (*models.MembershipRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id is required")
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if role == enums.CompanyRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner role cannot be requested")
	}

	exists, err := s.repo.CompanyExists(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}

	if _, err := s.repo.GetMember(ctx, companyID, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "already a member of this company")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}

	pending, err := s.repo.HasPendingRequest(ctx, companyID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending request")
	}
	if pending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a join request is already pending")
	}

	request := &models.MembershipRequest{
		CompanyID:     companyID,
		UserID:        userID,
		RequestedRole: role,
		Note:          note,
		Status:        enums.MembershipRequestPending,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create join request")
	}
	return request, nil
}

// ListRequests returns a company's join requests to its admins.
func (s *service) ListRequests(ctx context.Context, callerID, companyID uuid.UUID, status *enums.MembershipRequestStatus, page pagination.Params) ([]models.MembershipRequest, error) {
	if _, err := s.guard.RequireCompanyAdmin(ctx, companyID, callerID); err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid request status")
	}
	requests, err := s.repo.ListRequests(ctx, companyID, status, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list join requests")
	}
	return requests, nil
}

// ListMyRequests returns the caller's own join requests across companies.
func (s *service) ListMyRequests(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MembershipRequest, error) {
	requests, err := s.repo.ListRequestsByUser(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list own join requests")
	}
	return requests, nil
}

// ResolveRequest approves or denies a pending request. Only owners may
// resolve, because approval creates a member. The status flip is a
// conditional update so two admins cannot both resolve the same request.
func (s *service) ResolveRequest(ctx context.Context, callerID, requestID uuid.UUID, approve bool, note *string) (*models.MembershipRequest, error) {
	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "join request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load join request")
	}

	if _, err := s.guard.RequireOwner(ctx, request.CompanyID, callerID); err != nil {
		return nil, err
	}
	if request.Status != enums.MembershipRequestPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already resolved")
	}

	status := enums.MembershipRequestDenied
	if approve {
		status = enums.MembershipRequestApproved
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.txRepoFunc(tx)

		resolved, err := txRepo.ResolveRequest(ctx, requestID, callerID, status, note, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve join request")
		}
		if !resolved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already resolved")
		}

		if !approve {
			return nil
		}
		member := &models.Member{
			CompanyID: request.CompanyID,
			UserID:    request.UserID,
			Role:      request.RequestedRole,
		}
		if err := txRepo.CreateMember(ctx, member); err != nil {
			if db.IsUniqueViolation(err, "idx_members_company_user") {
				return pkgerrors.New(pkgerrors.CodeConflict, "user joined the company through another request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindRequestByID(ctx, requestID)
}

// ListMembers is available to any member of the company.
func (s *service) ListMembers(ctx context.Context, callerID, companyID uuid.UUID) ([]models.Member, error) {
	if _, err := s.guard.RequireMember(ctx, companyID, callerID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return members, nil
}

func (s *service) ListMyMemberships(ctx context.Context, userID uuid.UUID) ([]models.Member, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	members, err := s.repo.ListUserMemberships(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	return members, nil
}

// AddMember grants membership directly, bypassing the request workflow.
// Owner-only, and the (company, user) pair stays unique.
func (s *service) AddMember(ctx context.Context, callerID, companyID, userID uuid.UUID, role enums.CompanyRole) (*models.Member, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if _, err := s.guard.RequireOwner(ctx, companyID, callerID); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetMember(ctx, companyID, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}

	member := &models.Member{CompanyID: companyID, UserID: userID, Role: role}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		if db.IsUniqueViolation(err, "idx_members_company_user") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
	}
	return member, nil
}

// ChangeMemberRole is owner-only. Demoting the last owner is refused so
// the company never loses its final administrator.
func (s *service) ChangeMemberRole(ctx context.Context, callerID, companyID, memberID uuid.UUID, role enums.CompanyRole) (*models.Member, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if _, err := s.guard.RequireOwner(ctx, companyID, callerID); err != nil {
		return nil, err
	}

	member, err := s.loadCompanyMember(ctx, companyID, memberID)
	if err != nil {
		return nil, err
	}
	if member.Role == role {
		return member, nil
	}

	changed, err := s.repo.UpdateMemberRoleKeepingOwner(ctx, memberID, companyID, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member role")
	}
	if !changed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "company must keep at least one owner")
	}
	return s.repo.FindMemberByID(ctx, memberID)
}

// RemoveMember is owner-only, with the same owner-floor protection.
func (s *service) RemoveMember(ctx context.Context, callerID, companyID, memberID uuid.UUID) error {
	if _, err := s.guard.RequireOwner(ctx, companyID, callerID); err != nil {
		return err
	}

	if _, err := s.loadCompanyMember(ctx, companyID, memberID); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteMemberKeepingOwner(ctx, memberID, companyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove member")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "company must keep at least one owner")
	}
	return nil
}

// LeaveCompany removes the caller's own membership. The last owner cannot
// leave; ownership has to move first.
func (s *service) LeaveCompany(ctx context.Context, userID, companyID uuid.UUID) error {
	member, err := s.repo.GetMember(ctx, companyID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load membership")
	}
	deleted, err := s.repo.DeleteMemberKeepingOwner(ctx, member.ID, companyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "leave company")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "company must keep at least one owner")
	}
	return nil
}

func (s *service) loadCompanyMember(ctx context.Context, companyID, memberID uuid.UUID) (*models.Member, error) {
	member, err := s.repo.FindMemberByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	if member.CompanyID != companyID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return member, nil
}
