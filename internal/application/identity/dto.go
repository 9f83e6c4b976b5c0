package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/infrastructure/auth"
)

// RegisterRequest creates a buyer or publisher account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required,min=1,max=200"`
	Company  string `json:"company" binding:"max=200"`
	Role     string `json:"role" binding:"required,oneof=buyer publisher"`
}

// LoginRequest contains credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest changes the editable profile fields
type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required,min=1,max=200"`
	Company  string `json:"company" binding:"max=200"`
}

// ChangePasswordRequest changes the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// SetStatusRequest is an admin status change
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// ListProfilesQuery filters the admin profile list
type ListProfilesQuery struct {
	Role     string `form:"role" binding:"omitempty,oneof=buyer publisher admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active suspended"`
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ProfileResponse is the public view of a profile
type ProfileResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Company     string     `json:"company,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	Tokens  *auth.TokenPair  `json:"tokens"`
	Profile *ProfileResponse `json:"profile"`
}

// ToProfileResponse maps a profile to its response
func ToProfileResponse(p *identity.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		FullName:    p.FullName,
		Company:     p.Company,
		Role:        string(p.Role),
		Status:      string(p.Status),
		LastLoginAt: p.LastLoginAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func tokenInput(p *identity.Profile) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{UserID: p.ID, Email: p.Email, Role: string(p.Role)}
}
