package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/linkmarket/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountSuspended   = shared.NewDomainError("ACCOUNT_SUSPENDED", "Account has been suspended")
	ErrEmailTaken         = shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	ErrRoleNotAllowed     = shared.NewDomainError("ROLE_NOT_ALLOWED", "Only buyer and publisher accounts can be registered")
)

// AuthService handles registration and token issuance
type AuthService struct {
	profileRepo    identity.ProfileRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	profileRepo identity.ProfileRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
		jwtService:  jwtService,
		blacklist:   blacklist,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for profile events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates a buyer or publisher profile and logs it in
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	role := identity.Role(req.Role)
	if !role.IsSelfService() {
		return nil, ErrRoleNotAllowed
	}

	exists, err := s.profileRepo.ExistsByEmail(ctx, identity.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	profile, err := identity.NewProfile(req.Email, req.Password, req.FullName, role)
	if err != nil {
		return nil, err
	}
	if req.Company != "" {
		if err := profile.UpdateDetails(profile.FullName, req.Company); err != nil {
			return nil, err
		}
	}
	profile.RecordLogin()

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := event.PublishAggregateEvents(ctx, s.eventPublisher, profile); err != nil {
		s.logger.Warn("Failed to publish profile events", zap.Error(err))
	}

	tokens, err := s.jwtService.GenerateTokenPair(tokenInput(profile))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	s.logger.Info("Profile registered",
		zap.String("profile_id", profile.ID.String()),
		zap.String("role", req.Role))

	return &AuthResult{Tokens: tokens, Profile: ToProfileResponse(profile)}, nil
}

// Login authenticates a profile and returns tokens
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email := identity.NormalizeEmail(req.Email)

	profile, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !profile.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("profile_id", profile.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !profile.IsActive() {
		s.logger.Warn("Login attempt for suspended account", zap.String("profile_id", profile.ID.String()))
		return nil, ErrAccountSuspended
	}

	tokens, err := s.jwtService.GenerateTokenPair(tokenInput(profile))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	profile.RecordLogin()
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to record login", zap.Error(err))
	}

	s.logger.Info("Profile logged in", zap.String("profile_id", profile.ID.String()))
	return &AuthResult{Tokens: tokens, Profile: ToProfileResponse(profile)}, nil
}

// Refresh exchanges a refresh token for a new pair, re-reading role and status from the profile
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, refreshError(err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
		if err != nil {
			s.logger.Warn("Token blacklist unavailable during refresh", zap.Error(err))
		} else if revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
	}

	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
		}
		return nil, err
	}
	if !profile.IsActive() {
		return nil, ErrAccountSuspended
	}

	tokens, err := s.jwtService.RefreshTokenPair(req.RefreshToken, tokenInput(profile))
	if err != nil {
		return nil, refreshError(err)
	}
	return &AuthResult{Tokens: tokens, Profile: ToProfileResponse(profile)}, nil
}

// Logout revokes the access token identified by jti until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke token", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to log out")
	}
	return nil
}

func refreshError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrSubjectMismatch):
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
	return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
}
