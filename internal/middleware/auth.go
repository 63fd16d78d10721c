package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
	"github.com/rosettahomes/rosetta-backend/internal/models"
	"github.com/rosettahomes/rosetta-backend/pkg/utils"
)

const (
	UserIDKey = "userId"
	RoleKey   = "role"
)

type TokenValidator interface {
	ValidateToken(token string) (*utils.Claims, error)
}

// tokenFrom reads a bearer token from the Authorization header, falling
// back to the token query parameter used by websocket clients.
func tokenFrom(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(RoleKey, claims.Role)
}

func Auth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFrom(c)
		if tokenString == "" {
			apperrors.Respond(c, nil, apperrors.Unauthorized("Authorization header or token query parameter required"))
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			apperrors.Respond(c, nil, apperrors.Unauthorized("Invalid token"))
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFrom(c); tokenString != "" {
			if claims, err := tokens.ValidateToken(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		apperrors.Respond(c, nil, apperrors.Forbidden("Insufficient permissions"))
	}
}

// Identity returns the caller set by Auth or OptionalAuth. The user id is
// zero for anonymous requests.
func Identity(c *gin.Context) (uint, models.Role) {
	id, _ := c.Get(UserIDKey)
	role, _ := c.Get(RoleKey)
	userID, _ := id.(uint)
	r, _ := role.(models.Role)
	return userID, r
}
