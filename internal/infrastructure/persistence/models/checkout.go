package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/shopspring/decimal"
)

// CheckoutSessionModel is the persistence model for the checkout Session aggregate.
// Lines, billing and content drafts are stored as JSON documents.
type CheckoutSessionModel struct {
	AggregateModel
	BuyerID       uuid.UUID                                            `gorm:"type:uuid;not null;index"`
	Step          checkout.Step                                        `gorm:"type:varchar(20);not null"`
	FurthestStep  checkout.Step                                        `gorm:"type:varchar(20);not null"`
	Lines         JSONColumn[[]checkout.Line]                          `gorm:"type:jsonb;not null"`
	Total         decimal.Decimal                                      `gorm:"type:decimal(12,2);not null"`
	Currency      string                                               `gorm:"type:varchar(3);not null;default:'USD'"`
	PaymentMethod checkout.PaymentMethod                               `gorm:"type:varchar(20)"`
	Billing       JSONColumn[checkout.BillingInfo]                     `gorm:"type:jsonb;not null"`
	Contents      JSONColumn[map[uuid.UUID]checkout.ContentSubmission] `gorm:"type:jsonb;not null"`
	TermsAccepted bool                                                 `gorm:"not null;default:false"`
	Status        checkout.SessionStatus                               `gorm:"type:varchar(20);not null;index"`
	OrderID       *uuid.UUID                                           `gorm:"type:uuid;index"`
	ExpiresAt     time.Time                                            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (CheckoutSessionModel) TableName() string {
	return "checkout_sessions"
}

// ToDomain converts the persistence model to a domain checkout Session
func (m *CheckoutSessionModel) ToDomain() *checkout.Session {
	s := &checkout.Session{
		BaseAggregateRoot: m.ToAggregateRoot(),
		BuyerID:           m.BuyerID,
		Step:              m.Step,
		FurthestStep:      m.FurthestStep,
		Lines:             m.Lines.Data,
		Total:             money(m.Total, m.Currency),
		PaymentMethod:     m.PaymentMethod,
		Billing:           m.Billing.Data,
		Contents:          m.Contents.Data,
		TermsAccepted:     m.TermsAccepted,
		Status:            m.Status,
		OrderID:           m.OrderID,
		ExpiresAt:         m.ExpiresAt,
	}
	if s.Lines == nil {
		s.Lines = []checkout.Line{}
	}
	if s.Contents == nil {
		s.Contents = make(map[uuid.UUID]checkout.ContentSubmission)
	}
	return s
}

// FromDomain populates the persistence model from a domain checkout Session
func (m *CheckoutSessionModel) FromDomain(s *checkout.Session) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.BuyerID = s.BuyerID
	m.Step = s.Step
	m.FurthestStep = s.FurthestStep
	m.Lines = NewJSONColumn(s.Lines)
	m.Total = s.Total.Amount()
	m.Currency = string(s.Total.Currency())
	m.PaymentMethod = s.PaymentMethod
	m.Billing = NewJSONColumn(s.Billing)
	m.Contents = NewJSONColumn(s.Contents)
	m.TermsAccepted = s.TermsAccepted
	m.Status = s.Status
	m.OrderID = s.OrderID
	m.ExpiresAt = s.ExpiresAt
}

// CheckoutSessionModelFromDomain creates a new persistence model from a domain Session
func CheckoutSessionModelFromDomain(s *checkout.Session) *CheckoutSessionModel {
	m := &CheckoutSessionModel{}
	m.FromDomain(s)
	return m
}
