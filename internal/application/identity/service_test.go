package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/linkmarket/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProfileRepository is a mock implementation of identity.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByEmail(ctx context.Context, email string) (*identity.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Profile), args.Error(1)
}

func (m *MockProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) FindAll(ctx context.Context, filter identity.ProfileFilter) ([]*identity.Profile, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.Profile), args.Get(1).(int64), args.Error(2)
}

func (m *MockProfileRepository) FindIDsByRole(ctx context.Context, role identity.Role) ([]uuid.UUID, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockProfileRepository) Save(ctx context.Context, profile *identity.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

var _ identity.ProfileRepository = (*MockProfileRepository)(nil)

// recordingPublisher captures published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "linkmarket-test",
		MaxRefreshCount:        5,
	})
}

func newProfile(t *testing.T, role identity.Role) *identity.Profile {
	t.Helper()
	p, err := identity.NewProfile(uuid.NewString()[:8]+"@example.com", "secret123", "Test Person", role)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a buyer and issues tokens", func(t *testing.T) {
		repo := new(MockProfileRepository)
		pub := &recordingPublisher{}
		svc := NewAuthService(repo, newJWT(), auth.NewInMemoryTokenBlacklist(), zap.NewNop())
		svc.SetEventPublisher(pub)

		repo.On("ExistsByEmail", ctx, "new@example.com").Return(false, nil)
		repo.On("Save", ctx, mock.AnythingOfType("*identity.Profile")).Return(nil)

		res, err := svc.Register(ctx, RegisterRequest{
			Email: " New@Example.com ", Password: "secret123", FullName: "New Buyer", Company: "Acme", Role: "buyer",
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", res.Profile.Email)
		assert.Equal(t, "buyer", res.Profile.Role)
		assert.Equal(t, "Acme", res.Profile.Company)
		assert.NotEmpty(t, res.Tokens.AccessToken)
		require.Len(t, pub.events, 1)
		assert.Equal(t, identity.EventTypeProfileRegistered, pub.events[0].EventType())
		repo.AssertExpectations(t)
	})

	t.Run("rejects admin role", func(t *testing.T) {
		svc := NewAuthService(new(MockProfileRepository), newJWT(), nil, zap.NewNop())

		_, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "secret123", FullName: "A", Role: "admin"})
		assert.ErrorIs(t, err, ErrRoleNotAllowed)
	})

	t.Run("rejects taken email", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := NewAuthService(repo, newJWT(), nil, zap.NewNop())
		repo.On("ExistsByEmail", ctx, "taken@example.com").Return(true, nil)

		_, err := svc.Register(ctx, RegisterRequest{Email: "taken@example.com", Password: "secret123", FullName: "A", Role: "publisher"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("maps unique violation on save", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := NewAuthService(repo, newJWT(), nil, zap.NewNop())
		repo.On("ExistsByEmail", ctx, "race@example.com").Return(false, nil)
		repo.On("Save", ctx, mock.Anything).Return(shared.ErrAlreadyExists)

		_, err := svc.Register(ctx, RegisterRequest{Email: "race@example.com", Password: "secret123", FullName: "A", Role: "buyer"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	profile := newProfile(t, identity.RolePublisher)

	t.Run("success", func(t *testing.T) {
		repo := new(MockProfileRepository)
		jwtSvc := newJWT()
		svc := NewAuthService(repo, jwtSvc, nil, zap.NewNop())
		repo.On("FindByEmail", ctx, profile.Email).Return(profile, nil)
		repo.On("Save", ctx, profile).Return(nil)

		res, err := svc.Login(ctx, LoginRequest{Email: profile.Email, Password: "secret123"})
		require.NoError(t, err)

		claims, err := jwtSvc.ValidateAccessToken(res.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "publisher", claims.Role)
		assert.NotNil(t, res.Profile.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := NewAuthService(repo, newJWT(), nil, zap.NewNop())
		repo.On("FindByEmail", ctx, profile.Email).Return(profile, nil)

		_, err := svc.Login(ctx, LoginRequest{Email: profile.Email, Password: "wrong-pass1"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := NewAuthService(repo, newJWT(), nil, zap.NewNop())
		repo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("suspended", func(t *testing.T) {
		suspended := newProfile(t, identity.RoleBuyer)
		require.NoError(t, suspended.Suspend())
		repo := new(MockProfileRepository)
		svc := NewAuthService(repo, newJWT(), nil, zap.NewNop())
		repo.On("FindByEmail", ctx, suspended.Email).Return(suspended, nil)

		_, err := svc.Login(ctx, LoginRequest{Email: suspended.Email, Password: "secret123"})
		assert.ErrorIs(t, err, ErrAccountSuspended)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	profile := newProfile(t, identity.RoleBuyer)
	jwtSvc := newJWT()

	pair, err := jwtSvc.GenerateTokenPair(auth.GenerateTokenInput{UserID: profile.ID, Email: profile.Email, Role: "buyer"})
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		repo := new(MockProfileRepository)
		svc := NewAuthService(repo, jwtSvc, auth.NewInMemoryTokenBlacklist(), zap.NewNop())
		repo.On("FindByID", ctx, profile.ID).Return(profile, nil)

		res, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
		require.NoError(t, err)
		assert.NotEqual(t, pair.AccessToken, res.Tokens.AccessToken)
	})

	t.Run("revoked after suspension", func(t *testing.T) {
		blacklist := auth.NewInMemoryTokenBlacklist()
		require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, profile.ID.String(), time.Hour))
		svc := NewAuthService(new(MockProfileRepository), jwtSvc, blacklist, zap.NewNop())

		_, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: pair.RefreshToken})
		require.Error(t, err)
		assert.Equal(t, "TOKEN_REVOKED", err.(*shared.DomainError).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := NewAuthService(new(MockProfileRepository), jwtSvc, nil, zap.NewNop())

		_, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: "nope"})
		require.Error(t, err)
		assert.Equal(t, "TOKEN_INVALID", err.(*shared.DomainError).Code)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	jwtSvc := newJWT()
	blacklist := auth.NewInMemoryTokenBlacklist()
	svc := NewAuthService(new(MockProfileRepository), jwtSvc, blacklist, zap.NewNop())

	pair, err := jwtSvc.GenerateTokenPair(auth.GenerateTokenInput{UserID: uuid.New(), Role: "buyer"})
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestProfileService_SetStatus(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()

	t.Run("suspension revokes tokens and publishes event", func(t *testing.T) {
		profile := newProfile(t, identity.RolePublisher)
		repo := new(MockProfileRepository)
		blacklist := auth.NewInMemoryTokenBlacklist()
		pub := &recordingPublisher{}
		svc := NewProfileService(repo, blacklist, time.Hour, zap.NewNop())
		svc.SetEventPublisher(pub)

		repo.On("FindByID", ctx, profile.ID).Return(profile, nil)
		repo.On("Save", ctx, profile).Return(nil)

		res, err := svc.SetStatus(ctx, adminID, profile.ID, SetStatusRequest{Status: "suspended"})
		require.NoError(t, err)
		assert.Equal(t, "suspended", res.Status)

		revoked, err := blacklist.IsUserTokenInvalidated(ctx, profile.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, revoked)
		require.Len(t, pub.events, 1)
		assert.Equal(t, identity.EventTypeProfileStatusChanged, pub.events[0].EventType())
	})

	t.Run("admins cannot be suspended", func(t *testing.T) {
		admin := newProfile(t, identity.RoleAdmin)
		repo := new(MockProfileRepository)
		svc := NewProfileService(repo, nil, time.Hour, zap.NewNop())
		repo.On("FindByID", ctx, admin.ID).Return(admin, nil)

		_, err := svc.SetStatus(ctx, adminID, admin.ID, SetStatusRequest{Status: "suspended"})
		require.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("cannot change own status", func(t *testing.T) {
		svc := NewProfileService(new(MockProfileRepository), nil, time.Hour, zap.NewNop())

		_, err := svc.SetStatus(ctx, adminID, adminID, SetStatusRequest{Status: "active"})
		require.Error(t, err)
	})
}

func TestProfileService_ListProfiles(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	svc := NewProfileService(repo, nil, time.Hour, zap.NewNop())
	p := newProfile(t, identity.RoleBuyer)

	repo.On("FindAll", ctx, mock.MatchedBy(func(f identity.ProfileFilter) bool {
		return f.Role != nil && *f.Role == identity.RoleBuyer && f.Status == nil && f.Page == 2 && f.PageSize == 10 && f.Search == "test"
	})).Return([]*identity.Profile{p}, int64(11), nil)

	page, err := svc.ListProfiles(ctx, ListProfilesQuery{Role: "buyer", Search: "test", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)
}

func TestProfileService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	profile := newProfile(t, identity.RoleBuyer)
	repo := new(MockProfileRepository)
	svc := NewProfileService(repo, nil, time.Hour, zap.NewNop())
	repo.On("FindByID", ctx, profile.ID).Return(profile, nil)
	repo.On("Save", ctx, profile).Return(nil)

	require.Error(t, svc.ChangePassword(ctx, profile.ID, ChangePasswordRequest{OldPassword: "wrong", NewPassword: "another123"}))
	require.NoError(t, svc.ChangePassword(ctx, profile.ID, ChangePasswordRequest{OldPassword: "secret123", NewPassword: "another123"}))
	assert.True(t, profile.VerifyPassword("another123"))
}
