package usecase

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/face-attendance/internal/apperror"
	"github.com/example/face-attendance/internal/auth"
	"github.com/example/face-attendance/internal/logging"
	"github.com/example/face-attendance/internal/password"
	"github.com/example/face-attendance/internal/repository"
)

// Client types accepted at login.
const (
	ClientWeb    = "WEB"
	ClientMobile = "MOBILE"
)

// UserRepository provides the lookups needed to authenticate a user.
type UserRepository interface {
	FindUserByNIP(ctx context.Context, nip string) (*repository.User, error)
}

// LoginInput is the credential pair submitted by a client.
type LoginInput struct {
	NIP        string `json:"nip" binding:"required"`
	Password   string `json:"password" binding:"required"`
	ClientType string `json:"client_type" binding:"omitempty,oneof=WEB MOBILE"`
}

// LoginResult carries the issued session.
type LoginResult struct {
	Token     string
	UserID    string
	Role      repository.Role
	ExpiresAt time.Time
}

// AuthUseCase issues and revokes session tokens.
type AuthUseCase struct {
	users   UserRepository
	tokens  *auth.TokenManager
	revoker auth.Revoker
	logger  *zap.Logger
}

// NewAuthUseCase constructs a new use case instance.
func NewAuthUseCase(users UserRepository, tokens *auth.TokenManager, revoker auth.Revoker, logger *zap.Logger) *AuthUseCase {
	return &AuthUseCase{
		users:   users,
		tokens:  tokens,
		revoker: revoker,
		logger:  logger.Named("auth_usecase"),
	}
}

var webRoles = []repository.Role{
	repository.RoleAdmin,
	repository.RoleCEO,
	repository.RoleManager,
	repository.RoleHR,
}

// Login verifies the credentials and issues a session token. The web portal is limited
// to management roles.
func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	nip := strings.TrimSpace(input.NIP)
	user, err := uc.users.FindUserByNIP(ctx, nip)
	if err != nil {
		uc.logger.Error("failed to look up user", zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthorized("invalid NIP or password")
	}

	opLogger := logging.WithOperation(uc.logger, "usecase.login", user.ID)
	ok, err := password.Verify(input.Password, user.Password)
	if err != nil {
		opLogger.Error("stored password hash is unreadable", zap.Error(err))
		return nil, apperror.Unauthorized("invalid NIP or password")
	}
	if !ok {
		return nil, apperror.Unauthorized("invalid NIP or password")
	}

	if strings.EqualFold(input.ClientType, ClientWeb) && !slices.Contains(webRoles, user.Role) {
		opLogger.Info("web login refused for role", zap.String("role", string(user.Role)))
		return nil, apperror.Forbidden("web portal access is restricted to management roles")
	}

	token, claims, err := uc.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		opLogger.Error("failed to issue token", zap.Error(err))
		return nil, logging.NewOperationError("usecase.login", user.ID, err)
	}

	opLogger.Info("user logged in", zap.String("client_type", input.ClientType))
	return &LoginResult{
		Token:     token,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the session of p. Logging out without a session is a no-op.
func (uc *AuthUseCase) Logout(ctx context.Context, p *auth.Principal) error {
	if p == nil || p.TokenID == "" {
		return nil
	}
	if err := uc.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		logging.WithOperation(uc.logger, "usecase.logout", p.UserID).Error("failed to revoke token", zap.Error(err))
		return logging.NewOperationError("usecase.logout", p.UserID, err)
	}
	return nil
}
