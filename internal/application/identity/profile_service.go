package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/linkmarket/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

// ProfileService handles self-service profile changes and admin profile management
type ProfileService struct {
	profileRepo    identity.ProfileRepository
	blacklist      auth.TokenBlacklist
	tokenLifetime  time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProfileService creates a profile service. tokenLifetime bounds how long a
// suspension revocation is kept, and should be the refresh token lifetime.
func NewProfileService(
	profileRepo identity.ProfileRepository,
	blacklist auth.TokenBlacklist,
	tokenLifetime time.Duration,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		profileRepo:   profileRepo,
		blacklist:     blacklist,
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for profile events
func (s *ProfileService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Me returns the caller's profile
func (s *ProfileService) Me(ctx context.Context, userID uuid.UUID) (*ProfileResponse, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToProfileResponse(profile), nil
}

// UpdateProfile changes the caller's name and company
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*ProfileResponse, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := profile.UpdateDetails(req.FullName, req.Company); err != nil {
		return nil, err
	}
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, err
	}
	return ToProfileResponse(profile), nil
}

// ChangePassword verifies the old password before setting the new one
func (s *ProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := profile.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("profile_id", userID.String()))
	return nil
}

// ListProfiles lists profiles for admins
func (s *ProfileService) ListProfiles(ctx context.Context, q ListProfilesQuery) (shared.Paginated[*ProfileResponse], error) {
	filter := identity.ProfileFilter{Filter: shared.DefaultFilter()}
	filter.Search = q.Search
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	if q.Role != "" {
		role := identity.Role(q.Role)
		filter.Role = &role
	}
	if q.Status != "" {
		status := identity.ProfileStatus(q.Status)
		filter.Status = &status
	}
	filter.Normalize()

	profiles, total, err := s.profileRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*ProfileResponse]{}, err
	}
	items := make([]*ProfileResponse, len(profiles))
	for i, p := range profiles {
		items[i] = ToProfileResponse(p)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// SetStatus suspends or re-activates a profile. Suspension revokes every token issued so far.
func (s *ProfileService) SetStatus(ctx context.Context, adminID, profileID uuid.UUID, req SetStatusRequest) (*ProfileResponse, error) {
	if adminID == profileID {
		return nil, shared.NewDomainError("CANNOT_CHANGE_OWN_STATUS", "Admins cannot change their own status")
	}

	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	switch identity.ProfileStatus(req.Status) {
	case identity.ProfileStatusSuspended:
		err = profile.Suspend()
	case identity.ProfileStatusActive:
		err = profile.Activate()
	default:
		err = shared.NewDomainError("INVALID_STATUS", "Unknown profile status")
	}
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, err
	}

	if profile.Status == identity.ProfileStatusSuspended && s.blacklist != nil {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, profile.ID.String(), s.tokenLifetime); err != nil {
			s.logger.Error("Failed to revoke tokens of suspended profile",
				zap.String("profile_id", profile.ID.String()), zap.Error(err))
		}
	}

	if err := event.PublishAggregateEvents(ctx, s.eventPublisher, profile); err != nil {
		s.logger.Warn("Failed to publish profile events", zap.Error(err))
	}

	s.logger.Info("Profile status changed",
		zap.String("profile_id", profile.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("status", req.Status))
	return ToProfileResponse(profile), nil
}
