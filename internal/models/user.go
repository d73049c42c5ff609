package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin   UserRole = "SUPERADMIN"
	RoleAdmin        UserRole = "ADMIN"
	RolePHOUser      UserRole = "PHO_USER"
	RoleFacilityUser UserRole = "FACILITY_USER"
)

// User is a portal account. Facility users carry the programs their facility must report.
type User struct {
	ID               string         `db:"id" json:"id"`
	Email            string         `db:"email" json:"email"`
	FullName         string         `db:"full_name" json:"full_name"`
	Role             UserRole       `db:"role" json:"role"`
	FacilityID       *string        `db:"facility_id" json:"facility_id,omitempty"`
	FacilityName     *string        `db:"facility_name" json:"facility_name,omitempty"`
	AssignedPrograms pq.StringArray `db:"assigned_programs" json:"assigned_programs"`
	Active           bool           `db:"active" json:"active"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// BelongsTo reports whether the user is scoped to the given facility.
func (u User) BelongsTo(facilityID string) bool {
	return u.FacilityID != nil && *u.FacilityID == facilityID
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role       *UserRole
	FacilityID string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
