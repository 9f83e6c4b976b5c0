package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/application/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/linkmarket/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	authSvc := &mockAuth{}
	h := NewAuthHandler(authSvc, &mockProfiles{})
	r := newTestEngine()
	r.POST("/auth/register", h.Register)

	req := identity.RegisterRequest{
		Email: "pub@example.com", Password: "s3cret-pass", FullName: "Pat Publisher", Role: "publisher",
	}
	profileID := uuid.New()
	authSvc.On("Register", mock.Anything, req).Return(&identity.AuthResult{
		Tokens:  &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
		Profile: &identity.ProfileResponse{ID: profileID, Email: req.Email, Role: "publisher"},
	}, nil)

	w := doJSON(r, http.MethodPost, "/auth/register", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result identity.AuthResult
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, "access", result.Tokens.AccessToken)
	assert.Equal(t, profileID, result.Profile.ID)
	authSvc.AssertExpectations(t)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	authSvc := &mockAuth{}
	h := NewAuthHandler(authSvc, &mockProfiles{})
	r := newTestEngine()
	r.POST("/auth/register", h.Register)

	w := doJSON(r, http.MethodPost, "/auth/register", map[string]string{
		"email": "nope", "password": "short", "full_name": "X", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	details := decode(t, w).Error.Details
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "role")
	authSvc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad credentials", identity.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"suspended", identity.ErrAccountSuspended, http.StatusForbidden, dto.ErrCodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc := &mockAuth{}
			h := NewAuthHandler(authSvc, &mockProfiles{})
			r := newTestEngine()
			r.POST("/auth/login", h.Login)

			authSvc.On("Login", mock.Anything, mock.Anything).Return(nil, tt.err)
			w := doJSON(r, http.MethodPost, "/auth/login", identity.LoginRequest{Email: "a@example.com", Password: "x"})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w).Error.Code)
		})
	}
}

func TestAuthHandler_RefreshExpired(t *testing.T) {
	authSvc := &mockAuth{}
	h := NewAuthHandler(authSvc, &mockProfiles{})
	r := newTestEngine()
	r.POST("/auth/refresh", h.Refresh)

	authSvc.On("Refresh", mock.Anything, identity.RefreshRequest{RefreshToken: "old"}).
		Return(nil, shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired"))

	w := doJSON(r, http.MethodPost, "/auth/refresh", identity.RefreshRequest{RefreshToken: "old"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, decode(t, w).Error.Code)
}

func TestAuthHandler_LogoutPassesClaims(t *testing.T) {
	userID := uuid.New()
	authSvc := &mockAuth{}
	h := NewAuthHandler(authSvc, &mockProfiles{})
	r := newTestEngine(asUser(userID, "buyer"))
	r.POST("/auth/logout", h.Logout)

	authSvc.On("Logout", mock.Anything, mock.MatchedBy(func(c *auth.Claims) bool {
		return c != nil && c.UserID == userID.String()
	})).Return(nil)

	w := doJSON(r, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	authSvc.AssertExpectations(t)
}

func TestAuthHandler_Profile(t *testing.T) {
	userID := uuid.New()
	profiles := &mockProfiles{}
	h := NewAuthHandler(&mockAuth{}, profiles)
	r := newTestEngine(asUser(userID, "buyer"))
	r.GET("/auth/me", h.Me)
	r.PUT("/auth/me", h.UpdateMe)
	r.PUT("/auth/password", h.ChangePassword)

	profiles.On("Me", mock.Anything, userID).Return(&identity.ProfileResponse{ID: userID, FullName: "Bo Buyer"}, nil)
	update := identity.UpdateProfileRequest{FullName: "Bo B. Buyer", Company: "Acme"}
	profiles.On("UpdateProfile", mock.Anything, userID, update).
		Return(&identity.ProfileResponse{ID: userID, FullName: update.FullName, Company: "Acme"}, nil)
	change := identity.ChangePasswordRequest{OldPassword: "old-password", NewPassword: "new-password"}
	profiles.On("ChangePassword", mock.Anything, userID, change).
		Return(shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect"))

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/auth/me", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPut, "/auth/me", update).Code)

	w := doJSON(r, http.MethodPut, "/auth/password", change)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	profiles.AssertExpectations(t)
}

func TestAuthHandler_AdminProfiles(t *testing.T) {
	adminID := uuid.New()
	profiles := &mockProfiles{}
	h := NewAuthHandler(&mockAuth{}, profiles)
	r := newTestEngine(asUser(adminID, "admin"))
	r.GET("/admin/profiles", h.ListProfiles)
	r.PUT("/admin/profiles/:id/status", h.SetProfileStatus)

	items := []*identity.ProfileResponse{{ID: uuid.New(), Role: "publisher"}}
	profiles.On("ListProfiles", mock.Anything, identity.ListProfilesQuery{Role: "publisher", Page: 2, PageSize: 10}).
		Return(shared.NewPaginated(items, 11, 2, 10), nil)

	w := doJSON(r, http.MethodGet, "/admin/profiles?role=publisher&page=2&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(11), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)

	target := uuid.New()
	profiles.On("SetStatus", mock.Anything, adminID, target, identity.SetStatusRequest{Status: "suspended"}).
		Return(nil, shared.NewDomainError("CANNOT_SUSPEND_ADMIN", "Admins cannot be suspended"))
	w = doJSON(r, http.MethodPut, "/admin/profiles/"+target.String()+"/status", identity.SetStatusRequest{Status: "suspended"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "CANNOT_SUSPEND_ADMIN", decode(t, w).Error.Reason)

	w = doJSON(r, http.MethodGet, "/admin/profiles?status=banned", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
