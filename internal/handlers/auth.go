package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/auth"
	"github.com/example/face-attendance/internal/usecase"
)

// AuthService issues and revokes sessions.
type AuthService interface {
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error)
	Logout(ctx context.Context, p *auth.Principal) error
}

type AuthHandler struct {
	auth         AuthService
	cookieName   string
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthHandler(svc AuthService, cookieName string, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, cookieName: cookieName, secureCookie: secureCookie, logger: logger.Named("auth")}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input usecase.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err, "failed to log in")
		return
	}

	maxAge := int(result.ExpiresAt.Sub(timeNow()).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, result.Token, maxAge, "/", "", h.secureCookie, true)

	respond(c, http.StatusOK, "login successful", gin.H{
		"token":      result.Token,
		"user_id":    result.UserID,
		"role":       result.Role,
		"expires_at": result.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	p, _ := auth.GetPrincipal(c.Request.Context())
	if err := h.auth.Logout(c.Request.Context(), p); err != nil {
		respondError(c, h.logger, err, "failed to log out")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	respond(c, http.StatusOK, "logout successful", nil)
}
