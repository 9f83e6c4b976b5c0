package catalog

import (
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Niche is a content category a placement is written for
type Niche string

const (
	NicheGeneral Niche = "general"
	NicheCasino  Niche = "casino"
	NicheCBD     Niche = "cbd"
	NicheCrypto  Niche = "crypto"
	NicheForex   Niche = "forex"
	NicheDating  Niche = "dating"
	NichePharma  Niche = "pharma"
	NicheAdult   Niche = "adult"
)

// AllNiches lists every niche in display order
var AllNiches = []Niche{
	NicheGeneral, NicheCasino, NicheCBD, NicheCrypto,
	NicheForex, NicheDating, NichePharma, NicheAdult,
}

// IsValid checks if the niche is known
func (n Niche) IsValid() bool {
	for _, known := range AllNiches {
		if n == known {
			return true
		}
	}
	return false
}

// String returns the string representation
func (n Niche) String() string {
	return string(n)
}

// DisplayName returns a human-readable niche label
func (n Niche) DisplayName() string {
	switch n {
	case NicheCBD:
		return "CBD"
	case "":
		return ""
	}
	// Casers carry state, so one is built per call
	return cases.Title(language.English).String(string(n))
}

// Multiplier bounds
var (
	MinMultiplier = decimal.RequireFromString("0.01")
	MaxMultiplier = decimal.NewFromInt(10)
)

// NicheRule is a per-outlet acceptance flag and price multiplier for a content category
type NicheRule struct {
	ID         uuid.UUID
	OutletID   uuid.UUID
	Niche      Niche
	Accepted   bool
	Multiplier decimal.Decimal
}

// NewNicheRule validates and creates a niche rule for an outlet
func NewNicheRule(outletID uuid.UUID, niche Niche, accepted bool, multiplier decimal.Decimal) (NicheRule, error) {
	if !niche.IsValid() {
		return NicheRule{}, shared.NewDomainError("INVALID_NICHE", "Unknown niche: "+string(niche))
	}
	multiplier = multiplier.Round(2)
	if multiplier.LessThan(MinMultiplier) || multiplier.GreaterThan(MaxMultiplier) {
		return NicheRule{}, shared.NewDomainError("INVALID_MULTIPLIER", "Multiplier must be greater than 0 and at most 10")
	}
	return NicheRule{
		ID:         uuid.New(),
		OutletID:   outletID,
		Niche:      niche,
		Accepted:   accepted,
		Multiplier: multiplier,
	}, nil
}

// defaultGeneralRule is the implicit rule when an outlet has no explicit general rule
func defaultGeneralRule(outletID uuid.UUID) NicheRule {
	return NicheRule{
		OutletID:   outletID,
		Niche:      NicheGeneral,
		Accepted:   true,
		Multiplier: decimal.NewFromInt(1),
	}
}
