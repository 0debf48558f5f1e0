package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type contextKey string

const principalKey contextKey = "authPrincipal"

// Principal is the identity derived from a valid session token.
type Principal struct {
	UserID    string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the authenticated principal from context, if any.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	if p, ok := ctx.Value(principalKey).(*Principal); ok && p != nil && p.UserID != "" {
		return p, true
	}
	return nil, false
}

// GetUserID retrieves the authenticated subject from context.
func GetUserID(ctx context.Context) (string, bool) {
	p, ok := GetPrincipal(ctx)
	if !ok {
		return "", false
	}
	return p.UserID, true
}

// Derive reads a session token from the Authorization bearer header or, failing that,
// the session cookie, and attaches the resulting principal to the request context.
// It never rejects a request: a missing, invalid or revoked token simply yields no
// principal. Routes enforce access with the guards.
func Derive(tokens *TokenManager, revoker Revoker, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("auth")
	return func(c *gin.Context) {
		tokenString := extractToken(c, cookieName)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			logger.Debug("ignoring invalid session token", zap.Error(err))
			c.Next()
			return
		}

		if revoker != nil && claims.ID != "" {
			revoked, err := revoker.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("revocation check failed, treating token as unauthenticated", zap.Error(err))
				c.Next()
				return
			}
			if revoked {
				c.Next()
				return
			}
		}

		p := &Principal{UserID: claims.Subject, Role: claims.Role, TokenID: claims.ID}
		if claims.ExpiresAt != nil {
			p.ExpiresAt = claims.ExpiresAt.Time
		}
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Set(string(principalKey), p)

		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if header := c.Request.Header.Get("Authorization"); header != "" {
		token, err := extractBearerToken(header)
		if err == nil {
			return token
		}
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("token missing")
	}
	return token, nil
}
