package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/face-attendance/internal/apperror"
)

const tokenRequired = "a valid session token is required to access this resource"

// Authenticated fails unless p is present.
func Authenticated(p *Principal) error {
	if p == nil || p.UserID == "" {
		return apperror.Unauthorized(tokenRequired)
	}
	return nil
}

// HasRole fails unless p is present and holds one of roles.
func HasRole(p *Principal, roles ...string) error {
	if err := Authenticated(p); err != nil {
		return err
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return apperror.Forbidden("your role may not access this resource")
}

// OwnerOrRole fails unless p owns targetID or holds one of roles.
func OwnerOrRole(p *Principal, targetID string, roles ...string) error {
	if err := Authenticated(p); err != nil {
		return err
	}
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	if targetID != "" && p.UserID != targetID {
		return apperror.Forbidden("you may only access your own data")
	}
	return nil
}

// Guard adapts a principal check to a gin handler that aborts on failure.
func Guard(check func(c *gin.Context, p *Principal) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := GetPrincipal(c.Request.Context())
		if err := check(c, p); err != nil {
			c.AbortWithStatusJSON(apperror.Status(err), gin.H{
				"success": false,
				"message": apperror.UserMessage(err, http.StatusText(apperror.Status(err))),
			})
			return
		}
		c.Next()
	}
}

// RequireAuthenticated rejects requests without a principal.
func RequireAuthenticated() gin.HandlerFunc {
	return Guard(func(_ *gin.Context, p *Principal) error { return Authenticated(p) })
}

// RequireRole rejects requests whose principal holds none of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return Guard(func(_ *gin.Context, p *Principal) error { return HasRole(p, roles...) })
}

// RequireOwnerOrRole rejects requests unless the principal's id equals the route
// parameter param or the principal holds one of roles.
func RequireOwnerOrRole(param string, roles ...string) gin.HandlerFunc {
	return Guard(func(c *gin.Context, p *Principal) error { return OwnerOrRole(p, c.Param(param), roles...) })
}
