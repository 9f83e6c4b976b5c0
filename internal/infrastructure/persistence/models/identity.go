package models

import (
	"time"

	"github.com/linkmarket/backend/internal/domain/identity"
)

// ProfileModel is the persistence model for the Profile aggregate
type ProfileModel struct {
	AggregateModel
	Email        string                 `gorm:"type:varchar(254);not null;uniqueIndex"`
	FullName     string                 `gorm:"type:varchar(200);not null"`
	Company      string                 `gorm:"type:varchar(200)"`
	Role         identity.Role          `gorm:"type:varchar(20);not null;index"`
	PasswordHash string                 `gorm:"type:varchar(255);not null"`
	Status       identity.ProfileStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (ProfileModel) TableName() string {
	return "profiles"
}

// ToDomain converts the persistence model to a domain Profile
func (m *ProfileModel) ToDomain() *identity.Profile {
	return &identity.Profile{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		FullName:          m.FullName,
		Company:           m.Company,
		Role:              m.Role,
		PasswordHash:      m.PasswordHash,
		Status:            m.Status,
		LastLoginAt:       m.LastLoginAt,
	}
}

// FromDomain populates the persistence model from a domain Profile
func (m *ProfileModel) FromDomain(p *identity.Profile) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Email = p.Email
	m.FullName = p.FullName
	m.Company = p.Company
	m.Role = p.Role
	m.PasswordHash = p.PasswordHash
	m.Status = p.Status
	m.LastLoginAt = p.LastLoginAt
}

// ProfileModelFromDomain creates a new persistence model from a domain Profile
func ProfileModelFromDomain(p *identity.Profile) *ProfileModel {
	m := &ProfileModel{}
	m.FromDomain(p)
	return m
}
