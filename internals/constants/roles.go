package constants

import "fmt"

const (
	RolePlatformAdmin = "platform_admin"
	RoleSchoolAdmin   = "school_admin"
	RoleAccountAdmin  = "account_admin"
	RoleTeacher       = "teacher"
	RoleStudent       = "student"
)

// Template pesan error role
const (
	ErrOnlyStaffCanAccess    = "only teachers or school admins may access %s"
	ErrOnlyAdminsCanAccess   = "only school admins may access %s"
	ErrOnlyAccountsCanAccess = "only school or account admins may access %s"
	ErrOnlyPlatformCanAccess = "only platform admins may access %s"
)

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorAccounts(feature string) string {
	return fmt.Sprintf(ErrOnlyAccountsCanAccess, feature)
}

func RoleErrorPlatform(feature string) string {
	return fmt.Sprintf(ErrOnlyPlatformCanAccess, feature)
}

// ==========================
// Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RolePlatformAdmin,
		RoleSchoolAdmin,
		RoleAccountAdmin,
		RoleTeacher,
		RoleStudent,
	}

	SchoolStaff = []string{
		RoleSchoolAdmin,
		RoleAccountAdmin,
		RoleTeacher,
	}

	TeacherAndAdmin = []string{
		RoleTeacher,
		RoleSchoolAdmin,
	}

	AccountsAndAdmin = []string{
		RoleAccountAdmin,
		RoleSchoolAdmin,
	}

	AdminOnly = []string{
		RoleSchoolAdmin,
	}

	PlatformOnly = []string{
		RolePlatformAdmin,
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
