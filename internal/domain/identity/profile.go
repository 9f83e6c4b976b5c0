package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/linkmarket/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the marketplace role of a profile
type Role string

const (
	RoleBuyer     Role = "buyer"
	RolePublisher Role = "publisher"
	RoleAdmin     Role = "admin"
)

// IsValid checks if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleBuyer, RolePublisher, RoleAdmin:
		return true
	}
	return false
}

// IsSelfService reports whether the role may be chosen at registration
func (r Role) IsSelfService() bool {
	return r == RoleBuyer || r == RolePublisher
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// ProfileStatus represents the status of a profile
type ProfileStatus string

const (
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusSuspended ProfileStatus = "suspended"
)

// IsValid checks if the status is valid
func (s ProfileStatus) IsValid() bool {
	return s == ProfileStatusActive || s == ProfileStatusSuspended
}

// bcryptCost is a variable so tests can lower it
var bcryptCost = 12

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetterRegex = regexp.MustCompile(`[a-zA-Z]`)
	hasDigitRegex  = regexp.MustCompile(`[0-9]`)
)

// Profile is a marketplace account: a buyer, a publisher or an admin
type Profile struct {
	shared.BaseAggregateRoot
	Email        string
	FullName     string
	Company      string
	Role         Role
	PasswordHash string
	Status       ProfileStatus
	LastLoginAt  *time.Time
}

// NewProfile creates an active profile with a hashed password
func NewProfile(email, password, fullName string, role Role) (*Profile, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Full name cannot be empty")
	}
	if utf8.RuneCountInString(fullName) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Full name cannot exceed 200 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	p := &Profile{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		FullName:          fullName,
		Role:              role,
		PasswordHash:      hash,
		Status:            ProfileStatusActive,
	}
	p.AddDomainEvent(NewProfileRegisteredEvent(p))
	return p, nil
}

// UpdateDetails changes the editable profile fields
func (p *Profile) UpdateDetails(fullName, company string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return shared.NewDomainError("INVALID_NAME", "Full name cannot be empty")
	}
	if utf8.RuneCountInString(fullName) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Full name cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(company) > 200 {
		return shared.NewDomainError("INVALID_COMPANY", "Company cannot exceed 200 characters")
	}
	p.FullName = fullName
	p.Company = strings.TrimSpace(company)
	p.Touch()
	return nil
}

// ChangePassword verifies the old password and sets a new one
func (p *Profile) ChangePassword(oldPassword, newPassword string) error {
	if !p.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if oldPassword == newPassword {
		return shared.NewDomainError("INVALID_PASSWORD", "New password must differ from the current one")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	p.PasswordHash = hash
	p.Touch()
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (p *Profile) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

// Suspend blocks the profile from logging in
func (p *Profile) Suspend() error {
	if p.Role == RoleAdmin {
		return shared.NewDomainError("CANNOT_SUSPEND_ADMIN", "Admin profiles cannot be suspended")
	}
	if p.Status == ProfileStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Profile is already suspended")
	}
	p.Status = ProfileStatusSuspended
	p.Touch()
	p.AddDomainEvent(NewProfileStatusChangedEvent(p, ProfileStatusActive))
	return nil
}

// Activate lifts a suspension
func (p *Profile) Activate() error {
	if p.Status == ProfileStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Profile is already active")
	}
	p.Status = ProfileStatusActive
	p.Touch()
	p.AddDomainEvent(NewProfileStatusChangedEvent(p, ProfileStatusSuspended))
	return nil
}

// RecordLogin stamps the last login time
func (p *Profile) RecordLogin() {
	t := shared.Now()
	p.LastLoginAt = &t
	p.UpdatedAt = t
}

// IsActive returns true if the profile may log in
func (p *Profile) IsActive() bool {
	return p.Status == ProfileStatusActive
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if utf8.RuneCountInString(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	if !hasLetterRegex.MatchString(password) || !hasDigitRegex.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
