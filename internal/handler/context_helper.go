package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siiau-planner-api/internal/middleware"
	"github.com/noah-isme/siiau-planner-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// ownerFromContext returns the authenticated owner id, or "" when the request
// carries no usable claims.
func ownerFromContext(c *gin.Context) string {
	return claimsFromContext(c).Owner()
}
