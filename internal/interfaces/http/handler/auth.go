package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/application/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
	"github.com/linkmarket/backend/internal/interfaces/http/middleware"
)

// Authenticator is the account flow behind the auth endpoints
type Authenticator interface {
	Register(ctx context.Context, req identity.RegisterRequest) (*identity.AuthResult, error)
	Login(ctx context.Context, req identity.LoginRequest) (*identity.AuthResult, error)
	Refresh(ctx context.Context, req identity.RefreshRequest) (*identity.AuthResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

// Profiles manages profile reads and admin moderation
type Profiles interface {
	Me(ctx context.Context, userID uuid.UUID) (*identity.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req identity.UpdateProfileRequest) (*identity.ProfileResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req identity.ChangePasswordRequest) error
	ListProfiles(ctx context.Context, q identity.ListProfilesQuery) (shared.Paginated[*identity.ProfileResponse], error)
	SetStatus(ctx context.Context, adminID, profileID uuid.UUID, req identity.SetStatusRequest) (*identity.ProfileResponse, error)
}

// AuthHandler handles authentication and profile HTTP requests
type AuthHandler struct {
	BaseHandler
	auth     Authenticator
	profiles Profiles
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService Authenticator, profileService Profiles) *AuthHandler {
	return &AuthHandler{auth: authService, profiles: profileService}
}

// Register godoc
// @ID           register
// @Summary      Create an account
// @Description  Register a buyer or publisher account and receive a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterRequest true "Account details"
// @Success      201 {object} APIResponse[identity.AuthResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login godoc
// @ID           login
// @Summary      User login
// @Description  Authenticate with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginRequest true "Login credentials"
// @Success      200 {object} APIResponse[identity.AuthResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh godoc
// @ID           refreshToken
// @Summary      Refresh access token
// @Description  Exchange a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshRequest true "Refresh token"
// @Success      200 {object} APIResponse[identity.AuthResult]
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identity.RefreshRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.auth.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @ID           logout
// @Summary      User logout
// @Description  Revoke the current access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[MessageData]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.GetJWTClaims(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Logged out"})
}

// Me godoc
// @ID           getMe
// @Summary      Current profile
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identity.ProfileResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpdateMe godoc
// @ID           updateMe
// @Summary      Update current profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateProfileRequest true "Profile fields"
// @Success      200 {object} APIResponse[identity.ProfileResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [put]
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req identity.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// ChangePassword godoc
// @ID           changePassword
// @Summary      Change password
// @Description  Change the caller's password; all issued tokens are revoked
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.ChangePasswordRequest true "Old and new password"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req identity.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.profiles.ChangePassword(c.Request.Context(), userID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Password changed"})
}

// ListProfiles godoc
// @ID           listProfiles
// @Summary      List profiles
// @Tags         admin
// @Produce      json
// @Param        role query string false "buyer, publisher or admin"
// @Param        status query string false "active or suspended"
// @Param        search query string false "Email or name search"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]identity.ProfileResponse]
// @Security     BearerAuth
// @Router       /admin/profiles [get]
func (h *AuthHandler) ListProfiles(c *gin.Context) {
	var q identity.ListProfilesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.profiles.ListProfiles(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// SetProfileStatus godoc
// @ID           setProfileStatus
// @Summary      Suspend or reactivate a profile
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Profile ID"
// @Param        request body identity.SetStatusRequest true "New status"
// @Success      200 {object} APIResponse[identity.ProfileResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/profiles/{id}/status [put]
func (h *AuthHandler) SetProfileStatus(c *gin.Context) {
	adminID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	profileID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req identity.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	profile, err := h.profiles.SetStatus(c.Request.Context(), adminID, profileID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}
