package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/middleware"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// requireClaims writes 401 and returns nil when the request carries no verified user.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}
