package memberships

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gigdesk/gigdesk-backend/pkg/db/models"
	"github.com/gigdesk/gigdesk-backend/pkg/enums"
	"github.com/gigdesk/gigdesk-backend/pkg/pagination"
)

// Repository exposes member and join-request persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetMember retrieves a membership by company and user.
func (r *Repository) GetMember(ctx context.Context, companyID, userID uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// CompanyExists reports whether a company row exists.
func (r *Repository) CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", companyID).
		Count(&count).Error
	return count > 0, err
}

// FindMemberByID loads a member row by primary key.
func (r *Repository) FindMemberByID(ctx context.Context, memberID uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", memberID).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers returns every member of a company ordered by join date.
func (r *Repository) ListMembers(ctx context.Context, companyID uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// ListUserMemberships returns every company the user belongs to.
func (r *Repository) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// CreateMember persists a new membership row.
func (r *Repository) CreateMember(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// UpdateMemberRoleKeepingOwner changes the role unless that would demote
// the company's last OWNER. The floor predicate rides in the statement
// itself, so concurrent demotions cannot both slip past it.
func (r *Repository) UpdateMemberRoleKeepingOwner(ctx context.Context, memberID, companyID uuid.UUID, role enums.CompanyRole) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", memberID)
	if role != enums.CompanyRoleOwner {
		query = query.Where("role <> ? OR (SELECT COUNT(*) FROM members WHERE company_id = ? AND role = ?) > 1",
			enums.CompanyRoleOwner, companyID, enums.CompanyRoleOwner)
	}
	res := query.Update("role", role)
	return res.RowsAffected > 0, res.Error
}

// DeleteMemberKeepingOwner removes the membership row unless the member
// is the company's last OWNER, with the same single-statement floor.
func (r *Repository) DeleteMemberKeepingOwner(ctx context.Context, memberID, companyID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("role <> ? OR (SELECT COUNT(*) FROM members WHERE company_id = ? AND role = ?) > 1",
			enums.CompanyRoleOwner, companyID, enums.CompanyRoleOwner).
		Delete(&models.Member{}, "id = ?", memberID)
	return res.RowsAffected > 0, res.Error
}

// CompaniesSolelyOwnedBy lists companies where the user is the only OWNER.
func (r *Repository) CompaniesSolelyOwnedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var companyIDs []uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
SELECT company_id FROM members
WHERE role = ?
  AND company_id IN (SELECT company_id FROM members WHERE user_id = ? AND role = ?)
GROUP BY company_id
HAVING COUNT(*) = 1`, enums.CompanyRoleOwner, userID, enums.CompanyRoleOwner).
		Scan(&companyIDs).Error
	return companyIDs, err
}

// CreateRequest persists a new join request.
func (r *Repository) CreateRequest(ctx context.Context, request *models.MembershipRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// FindRequestByID loads a join request by primary key.
func (r *Repository) FindRequestByID(ctx context.Context, requestID uuid.UUID) (*models.MembershipRequest, error) {
	var request models.MembershipRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// HasPendingRequest reports whether the user already has an open request.
func (r *Repository) HasPendingRequest(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MembershipRequest{}).
		Where("company_id = ? AND user_id = ? AND status = ?", companyID, userID, enums.MembershipRequestPending).
		Count(&count).Error
	return count > 0, err
}

// ListRequests returns join requests for a company, optionally filtered by status.
func (r *Repository) ListRequests(ctx context.Context, companyID uuid.UUID, status *enums.MembershipRequestStatus, page pagination.Params) ([]models.MembershipRequest, error) {
	page = pagination.Normalize(page)
	query := r.db.WithContext(ctx).
		Where("company_id = ?", companyID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var requests []models.MembershipRequest
	err := query.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&requests).Error
	return requests, err
}

// ListRequestsByUser returns a user's own join requests, newest first.
func (r *Repository) ListRequestsByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.MembershipRequest, error) {
	page = pagination.Normalize(page)
	var requests []models.MembershipRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&requests).Error
	return requests, err
}

// ResolveRequest stamps the outcome on a still-pending request. Returns
// false when the request was already resolved by someone else.
func (r *Repository) ResolveRequest(ctx context.Context, requestID, resolvedBy uuid.UUID, status enums.MembershipRequestStatus, note *string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.MembershipRequest{}).
		Where("id = ? AND status = ?", requestID, enums.MembershipRequestPending).
		Updates(map[string]any{
			"status":              status,
			"resolved_by_user_id": resolvedBy,
			"resolved_note":       note,
			"resolved_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
