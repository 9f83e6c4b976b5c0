package models

import (
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// MediaOutletModel is the persistence model for the MediaOutlet aggregate
type MediaOutletModel struct {
	AggregateModel
	PublisherID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	Name            string               `gorm:"type:varchar(200);not null"`
	Domain          string               `gorm:"type:varchar(253);not null;uniqueIndex"`
	Description     string               `gorm:"type:text"`
	Category        string               `gorm:"type:varchar(100);not null;index"`
	Language        string               `gorm:"type:varchar(35);not null"`
	Country         string               `gorm:"type:varchar(2)"`
	BasePrice       decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Currency        string               `gorm:"type:varchar(3);not null;default:'USD'"`
	DomainAuthority int                  `gorm:"not null;default:0"`
	MonthlyTraffic  int64                `gorm:"not null;default:0"`
	LinkType        catalog.LinkType     `gorm:"type:varchar(20);not null"`
	TurnaroundDays  int                  `gorm:"not null"`
	Status          catalog.OutletStatus `gorm:"type:varchar(20);not null;index"`
	NicheRules      []NicheRuleModel     `gorm:"foreignKey:OutletID;references:ID"`
}

// TableName returns the table name for GORM
func (MediaOutletModel) TableName() string {
	return "media_outlets"
}

// ToDomain converts the persistence model to a domain MediaOutlet
func (m *MediaOutletModel) ToDomain() *catalog.MediaOutlet {
	o := &catalog.MediaOutlet{
		BaseAggregateRoot: m.ToAggregateRoot(),
		PublisherID:       m.PublisherID,
		Name:              m.Name,
		Domain:            m.Domain,
		Description:       m.Description,
		Category:          m.Category,
		Language:          m.Language,
		Country:           m.Country,
		BasePrice:         money(m.BasePrice, m.Currency),
		DomainAuthority:   m.DomainAuthority,
		MonthlyTraffic:    m.MonthlyTraffic,
		LinkType:          m.LinkType,
		TurnaroundDays:    m.TurnaroundDays,
		Status:            m.Status,
		NicheRules:        make([]catalog.NicheRule, len(m.NicheRules)),
	}
	for i := range m.NicheRules {
		o.NicheRules[i] = m.NicheRules[i].ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain MediaOutlet
func (m *MediaOutletModel) FromDomain(o *catalog.MediaOutlet) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.PublisherID = o.PublisherID
	m.Name = o.Name
	m.Domain = o.Domain
	m.Description = o.Description
	m.Category = o.Category
	m.Language = o.Language
	m.Country = o.Country
	m.BasePrice = o.BasePrice.Amount()
	m.Currency = string(o.BasePrice.Currency())
	m.DomainAuthority = o.DomainAuthority
	m.MonthlyTraffic = o.MonthlyTraffic
	m.LinkType = o.LinkType
	m.TurnaroundDays = o.TurnaroundDays
	m.Status = o.Status
	m.NicheRules = make([]NicheRuleModel, len(o.NicheRules))
	for i, r := range o.NicheRules {
		m.NicheRules[i] = NicheRuleModelFromDomain(o.ID, r)
	}
}

// MediaOutletModelFromDomain creates a new persistence model from a domain MediaOutlet
func MediaOutletModelFromDomain(o *catalog.MediaOutlet) *MediaOutletModel {
	m := &MediaOutletModel{}
	m.FromDomain(o)
	return m
}

// NicheRuleModel is the persistence model for a niche rule
type NicheRuleModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OutletID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_niche_rules_outlet_niche,priority:1"`
	Niche      catalog.Niche   `gorm:"type:varchar(20);not null;uniqueIndex:idx_niche_rules_outlet_niche,priority:2"`
	Accepted   bool            `gorm:"not null;default:false"`
	Multiplier decimal.Decimal `gorm:"type:decimal(5,2);not null;default:1"`
}

// TableName returns the table name for GORM
func (NicheRuleModel) TableName() string {
	return "niche_rules"
}

// ToDomain converts the persistence model to a domain NicheRule
func (m *NicheRuleModel) ToDomain() catalog.NicheRule {
	return catalog.NicheRule{
		ID:         m.ID,
		OutletID:   m.OutletID,
		Niche:      m.Niche,
		Accepted:   m.Accepted,
		Multiplier: m.Multiplier,
	}
}

// NicheRuleModelFromDomain creates a persistence model for a rule of the outlet
func NicheRuleModelFromDomain(outletID uuid.UUID, r catalog.NicheRule) NicheRuleModel {
	id := r.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return NicheRuleModel{
		ID:         id,
		OutletID:   outletID,
		Niche:      r.Niche,
		Accepted:   r.Accepted,
		Multiplier: r.Multiplier,
	}
}
