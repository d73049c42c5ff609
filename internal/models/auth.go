package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload issued by the identity provider.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	FacilityID string   `json:"facility_id,omitempty"`
	jwt.RegisteredClaims
}

// IsReviewer reports whether the caller may review submissions and see all facilities.
func (c *JWTClaims) IsReviewer() bool {
	if c == nil {
		return false
	}
	switch c.Role {
	case RoleSuperAdmin, RoleAdmin, RolePHOUser:
		return true
	default:
		return false
	}
}
