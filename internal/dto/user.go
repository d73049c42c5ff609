package dto

// UserListQuery binds GET /users.
type UserListQuery struct {
	Role       string `form:"role" validate:"omitempty,oneof=SUPERADMIN ADMIN PHO_USER FACILITY_USER"`
	FacilityID string `form:"facilityId"`
	Active     *bool  `form:"active"`
	Search     string `form:"search" validate:"omitempty,max=100"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy     string `form:"sortBy" validate:"omitempty,oneof=email full_name facility_name created_at"`
	SortOrder  string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}
