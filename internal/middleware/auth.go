package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/sangamlabs/sangam/internal/auth"
	"github.com/sangamlabs/sangam/pkg/errors"
	"github.com/sangamlabs/sangam/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxIsAdmin   = "isAdmin"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromRequest(c, jwt)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxIsAdmin, claims.IsAdmin)

		c.Next()
	}
}

// AdminOnly rejects requests whose token does not carry the admin claim.
// Must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdmin) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func claimsFromRequest(c *gin.Context, jwt *iauth.JWTService) (*iauth.Claims, error) {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return nil, errors.ErrUnauthorized
	}
	// Normalise all validation failures to 401
	return jwt.ValidateAccessToken(strings.TrimSpace(authz[7:]))
}
