package catalog

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/language"
)

// OutletStatus represents the listing status of a media outlet
type OutletStatus string

const (
	OutletStatusPending   OutletStatus = "pending"   // awaiting admin review
	OutletStatusActive    OutletStatus = "active"    // listed in the marketplace
	OutletStatusSuspended OutletStatus = "suspended" // hidden by an admin
)

// IsValid checks if the status is valid
func (s OutletStatus) IsValid() bool {
	switch s {
	case OutletStatusPending, OutletStatusActive, OutletStatusSuspended:
		return true
	}
	return false
}

// CanTransitionTo checks if the outlet can move to the target status
func (s OutletStatus) CanTransitionTo(target OutletStatus) bool {
	switch s {
	case OutletStatusPending:
		return target == OutletStatusActive || target == OutletStatusSuspended
	case OutletStatusActive:
		return target == OutletStatusSuspended
	case OutletStatusSuspended:
		return target == OutletStatusActive
	}
	return false
}

// LinkType is the rel attribute the publisher guarantees for placed links
type LinkType string

const (
	LinkTypeDofollow LinkType = "dofollow"
	LinkTypeNofollow LinkType = "nofollow"
)

// IsValid checks if the link type is valid
func (l LinkType) IsValid() bool {
	return l == LinkTypeDofollow || l == LinkTypeNofollow
}

var (
	hostnameRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)
	countryRegex  = regexp.MustCompile(`^[A-Z]{2}$`)
)

// OutletDetails holds the publisher-editable listing attributes
type OutletDetails struct {
	Name            string
	Domain          string
	Description     string
	Category        string
	Language        string
	Country         string
	DomainAuthority int
	MonthlyTraffic  int64
	LinkType        LinkType
	TurnaroundDays  int
}

// MediaOutlet is a publisher-owned website offered for guest posts and link placements
type MediaOutlet struct {
	shared.BaseAggregateRoot
	PublisherID     uuid.UUID
	Name            string
	Domain          string
	Description     string
	Category        string
	Language        string
	Country         string
	BasePrice       valueobject.Money
	DomainAuthority int
	MonthlyTraffic  int64
	LinkType        LinkType
	TurnaroundDays  int
	Status          OutletStatus
	NicheRules      []NicheRule
}

// NewMediaOutlet creates a new outlet awaiting review
func NewMediaOutlet(publisherID uuid.UUID, details OutletDetails, basePrice valueobject.Money) (*MediaOutlet, error) {
	if publisherID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PUBLISHER", "Publisher ID cannot be empty")
	}
	normalized, err := normalizeDetails(details)
	if err != nil {
		return nil, err
	}
	if err := validateBasePrice(basePrice); err != nil {
		return nil, err
	}

	o := &MediaOutlet{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PublisherID:       publisherID,
		BasePrice:         basePrice.Round(2),
		Status:            OutletStatusPending,
		NicheRules:        make([]NicheRule, 0),
	}
	o.applyDetails(normalized)
	o.AddDomainEvent(NewOutletCreatedEvent(o))
	return o, nil
}

// UpdateDetails replaces the listing attributes
func (o *MediaOutlet) UpdateDetails(details OutletDetails) error {
	normalized, err := normalizeDetails(details)
	if err != nil {
		return err
	}
	o.applyDetails(normalized)
	o.Touch()
	return nil
}

// ChangeBasePrice sets a new base price
func (o *MediaOutlet) ChangeBasePrice(price valueobject.Money) error {
	if err := validateBasePrice(price); err != nil {
		return err
	}
	price = price.Round(2)
	if price.Equals(o.BasePrice) {
		return nil
	}
	old := o.BasePrice
	o.BasePrice = price
	o.Touch()
	o.AddDomainEvent(NewOutletPriceChangedEvent(o, old))
	return nil
}

// Approve lists a pending or suspended outlet
func (o *MediaOutlet) Approve() error {
	return o.transitionTo(OutletStatusActive, "")
}

// Suspend hides the outlet from the marketplace
func (o *MediaOutlet) Suspend(reason string) error {
	return o.transitionTo(OutletStatusSuspended, reason)
}

func (o *MediaOutlet) transitionTo(target OutletStatus, reason string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot change outlet status from "+string(o.Status)+" to "+string(target))
	}
	old := o.Status
	o.Status = target
	o.Touch()
	o.AddDomainEvent(NewOutletStatusChangedEvent(o, old, reason))
	return nil
}

// SetNicheRule adds or replaces the rule for a niche
func (o *MediaOutlet) SetNicheRule(rule NicheRule) {
	rule.OutletID = o.ID
	for i := range o.NicheRules {
		if o.NicheRules[i].Niche == rule.Niche {
			rule.ID = o.NicheRules[i].ID
			o.NicheRules[i] = rule
			o.Touch()
			return
		}
	}
	o.NicheRules = append(o.NicheRules, rule)
	o.Touch()
}

// RemoveNicheRule deletes the explicit rule for a niche
func (o *MediaOutlet) RemoveNicheRule(niche Niche) error {
	for i := range o.NicheRules {
		if o.NicheRules[i].Niche == niche {
			o.NicheRules = append(o.NicheRules[:i], o.NicheRules[i+1:]...)
			o.Touch()
			return nil
		}
	}
	return shared.NewDomainError("NICHE_RULE_NOT_FOUND", "No rule for niche "+string(niche))
}

// EffectiveRule returns the rule that applies to a niche.
// General content is accepted at 1.00 unless an explicit rule overrides it;
// any other niche needs an explicit rule.
func (o *MediaOutlet) EffectiveRule(niche Niche) (NicheRule, bool) {
	for _, r := range o.NicheRules {
		if r.Niche == niche {
			return r, true
		}
	}
	if niche == NicheGeneral {
		return defaultGeneralRule(o.ID), true
	}
	return NicheRule{}, false
}

// AcceptsNiche reports whether the outlet takes content of the niche
func (o *MediaOutlet) AcceptsNiche(niche Niche) bool {
	r, ok := o.EffectiveRule(niche)
	return ok && r.Accepted
}

// AcceptedNiches returns the niches the outlet currently accepts
func (o *MediaOutlet) AcceptedNiches() []Niche {
	out := make([]Niche, 0, len(AllNiches))
	for _, n := range AllNiches {
		if o.AcceptsNiche(n) {
			out = append(out, n)
		}
	}
	return out
}

// Quote prices a placement of the given niche: base price times the niche multiplier, rounded to cents
func (o *MediaOutlet) Quote(niche Niche) (valueobject.Money, error) {
	if !niche.IsValid() {
		return valueobject.Money{}, shared.NewDomainError("INVALID_NICHE", "Unknown niche: "+string(niche))
	}
	if !o.IsAvailable() {
		return valueobject.Money{}, ErrOutletUnavailable
	}
	r, ok := o.EffectiveRule(niche)
	if !ok || !r.Accepted {
		return valueobject.Money{}, ErrNicheNotAccepted
	}
	return o.BasePrice.Multiply(r.Multiplier).Round(2), nil
}

// IsAvailable reports whether buyers can order from the outlet
func (o *MediaOutlet) IsAvailable() bool {
	return o.Status == OutletStatusActive
}

// IsOwnedBy checks whether the profile is the outlet's publisher
func (o *MediaOutlet) IsOwnedBy(profileID uuid.UUID) bool {
	return o.PublisherID == profileID
}

// HostBelongsTo reports whether host equals domain or is a subdomain of it
func HostBelongsTo(host, domain string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func (o *MediaOutlet) applyDetails(d OutletDetails) {
	o.Name = d.Name
	o.Domain = d.Domain
	o.Description = d.Description
	o.Category = d.Category
	o.Language = d.Language
	o.Country = d.Country
	o.DomainAuthority = d.DomainAuthority
	o.MonthlyTraffic = d.MonthlyTraffic
	o.LinkType = d.LinkType
	o.TurnaroundDays = d.TurnaroundDays
}

// NormalizeDomain reduces a URL or host to a bare lower-case host without "www."
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Domain cannot be empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Domain is not a valid host name")
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if !hostnameRegex.MatchString(host) {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Domain is not a valid host name")
	}
	return host, nil
}

func normalizeDetails(d OutletDetails) (OutletDetails, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return d, shared.NewDomainError("INVALID_OUTLET_NAME", "Outlet name cannot be empty")
	}
	if utf8.RuneCountInString(d.Name) > 200 {
		return d, shared.NewDomainError("INVALID_OUTLET_NAME", "Outlet name cannot exceed 200 characters")
	}

	domain, err := NormalizeDomain(d.Domain)
	if err != nil {
		return d, err
	}
	d.Domain = domain

	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.ToLower(strings.TrimSpace(d.Category))
	if d.Category == "" {
		d.Category = "general"
	}

	tag, err := language.Parse(strings.TrimSpace(d.Language))
	if err != nil {
		return d, shared.NewDomainError("INVALID_LANGUAGE", "Language must be a BCP-47 tag such as en or pt-BR")
	}
	d.Language = tag.String()

	d.Country = strings.ToUpper(strings.TrimSpace(d.Country))
	if d.Country != "" && !countryRegex.MatchString(d.Country) {
		return d, shared.NewDomainError("INVALID_COUNTRY", "Country must be an ISO 3166 alpha-2 code")
	}

	if d.DomainAuthority < 0 || d.DomainAuthority > 100 {
		return d, shared.NewDomainError("INVALID_DOMAIN_AUTHORITY", "Domain authority must be between 0 and 100")
	}
	if d.MonthlyTraffic < 0 {
		return d, shared.NewDomainError("INVALID_TRAFFIC", "Monthly traffic cannot be negative")
	}
	if d.LinkType == "" {
		d.LinkType = LinkTypeDofollow
	}
	if !d.LinkType.IsValid() {
		return d, shared.NewDomainError("INVALID_LINK_TYPE", "Link type must be dofollow or nofollow")
	}
	if d.TurnaroundDays < 1 || d.TurnaroundDays > 60 {
		return d, shared.NewDomainError("INVALID_TURNAROUND", "Turnaround must be between 1 and 60 days")
	}
	return d, nil
}

func validateBasePrice(price valueobject.Money) error {
	if price.Currency() != valueobject.DefaultCurrency {
		return shared.NewDomainError("INVALID_CURRENCY", "Outlet prices must be in "+string(valueobject.DefaultCurrency))
	}
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Base price must be positive")
	}
	return nil
}
