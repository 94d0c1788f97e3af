package enums

import "fmt"

// CompanyRole represents a company-level permissions role.
type CompanyRole string

const (
	CompanyRoleCreator  CompanyRole = "CREATOR"
	CompanyRoleApprover CompanyRole = "APPROVER"
	CompanyRoleManager  CompanyRole = "MANAGER"
	CompanyRoleOwner    CompanyRole = "OWNER"
)

var validCompanyRoles = []CompanyRole{
	CompanyRoleCreator,
	CompanyRoleApprover,
	CompanyRoleManager,
	CompanyRoleOwner,
}

// Named permission groups shared by every call site; keep role sets here
// instead of scattering literals through handlers.
var (
	// GigEditorRoles may create, update, and delete gigs.
	GigEditorRoles = []CompanyRole{CompanyRoleOwner, CompanyRoleManager, CompanyRoleCreator}
	// GigStatusRoles may transition a gig's status (open, cancel).
	GigStatusRoles = []CompanyRole{CompanyRoleOwner, CompanyRoleManager, CompanyRoleApprover, CompanyRoleCreator}
	// CompanyAdminRoles may review assignments and act on behalf of assignees.
	CompanyAdminRoles = []CompanyRole{CompanyRoleOwner, CompanyRoleManager, CompanyRoleApprover}
	// OwnerOnly gates membership mutation and company deletion.
	OwnerOnly = []CompanyRole{CompanyRoleOwner}
	// AllCompanyRoles admits any member, used for member-scoped reads.
	AllCompanyRoles = []CompanyRole{CompanyRoleOwner, CompanyRoleManager, CompanyRoleApprover, CompanyRoleCreator}
)

// String implements fmt.Stringer.
func (r CompanyRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known CompanyRole.
func (r CompanyRole) IsValid() bool {
	for _, candidate := range validCompanyRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseCompanyRole converts raw input into a CompanyRole.
func ParseCompanyRole(value string) (CompanyRole, error) {
	for _, candidate := range validCompanyRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid company role %q", value)
}
