package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

type profileStore interface {
	FindByEmail(ctx context.Context, email string) (*identity.Profile, error)
	Save(ctx context.Context, profile *identity.Profile) error
}

type outletStore interface {
	FindByDomain(ctx context.Context, domain string) (*catalog.MediaOutlet, error)
	Save(ctx context.Context, outlet *catalog.MediaOutlet) error
}

// Seeder writes fixtures through the domain constructors, so seeded rows obey
// the same rules as rows created through the API. Existing emails and domains
// are skipped, which makes reruns safe.
type Seeder struct {
	profiles profileStore
	outlets  outletStore
	log      *zap.Logger
}

// SeedResult counts what was written and skipped
type SeedResult struct {
	ProfilesCreated int
	ProfilesSkipped int
	OutletsCreated  int
	OutletsSkipped  int
}

// NewSeeder creates a seeder
func NewSeeder(profiles profileStore, outlets outletStore, log *zap.Logger) *Seeder {
	return &Seeder{profiles: profiles, outlets: outlets, log: log}
}

// Seed writes all profiles, then all outlets
func (s *Seeder) Seed(ctx context.Context, f *Fixtures) (SeedResult, error) {
	var res SeedResult
	owners := make(map[string]uuid.UUID)

	for _, pf := range f.Profiles {
		email := identity.NormalizeEmail(pf.Email)
		existing, err := s.profiles.FindByEmail(ctx, email)
		switch {
		case err == nil:
			owners[email] = existing.ID
			res.ProfilesSkipped++
			continue
		case !errors.Is(err, shared.ErrNotFound):
			return res, fmt.Errorf("look up %s: %w", email, err)
		}

		p, err := identity.NewProfile(pf.Email, pf.Password, pf.FullName, identity.Role(pf.Role))
		if err != nil {
			return res, fmt.Errorf("profile %s: %w", email, err)
		}
		if pf.Company != "" {
			if err := p.UpdateDetails(pf.FullName, pf.Company); err != nil {
				return res, fmt.Errorf("profile %s: %w", email, err)
			}
		}
		if err := s.profiles.Save(ctx, p); err != nil {
			return res, fmt.Errorf("save profile %s: %w", email, err)
		}
		owners[email] = p.ID
		res.ProfilesCreated++
		s.log.Debug("Seeded profile", zap.String("email", email), zap.String("role", pf.Role))
	}

	for _, of := range f.Outlets {
		publisherID, ok := owners[identity.NormalizeEmail(of.Publisher)]
		if !ok {
			return res, fmt.Errorf("outlet %s: unknown publisher %s", of.Domain, of.Publisher)
		}
		created, err := s.seedOutlet(ctx, publisherID, of)
		if err != nil {
			return res, err
		}
		if created {
			res.OutletsCreated++
		} else {
			res.OutletsSkipped++
		}
	}
	return res, nil
}

func (s *Seeder) seedOutlet(ctx context.Context, publisherID uuid.UUID, of OutletFixture) (bool, error) {
	domain, err := catalog.NormalizeDomain(of.Domain)
	if err != nil {
		return false, fmt.Errorf("outlet %s: %w", of.Domain, err)
	}
	_, err = s.outlets.FindByDomain(ctx, domain)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, shared.ErrNotFound):
		return false, fmt.Errorf("look up %s: %w", domain, err)
	}

	o, err := catalog.NewMediaOutlet(publisherID, catalog.OutletDetails{
		Name:            of.Name,
		Domain:          domain,
		Description:     of.Description,
		Category:        of.Category,
		Language:        of.Language,
		Country:         strings.ToUpper(of.Country),
		DomainAuthority: of.DomainAuthority,
		MonthlyTraffic:  of.MonthlyTraffic,
		LinkType:        catalog.LinkType(of.LinkType),
		TurnaroundDays:  of.TurnaroundDays,
	}, valueobject.NewMoneyUSD(of.BasePrice))
	if err != nil {
		return false, fmt.Errorf("outlet %s: %w", domain, err)
	}

	for _, nf := range of.Niches {
		rule, err := catalog.NewNicheRule(o.ID, catalog.Niche(nf.Niche), nf.Accepted, nf.Multiplier)
		if err != nil {
			return false, fmt.Errorf("outlet %s niche %s: %w", domain, nf.Niche, err)
		}
		o.SetNicheRule(rule)
	}

	switch of.Status {
	case "", string(catalog.OutletStatusActive):
		if err := o.Approve(); err != nil {
			return false, fmt.Errorf("outlet %s: %w", domain, err)
		}
	case string(catalog.OutletStatusPending):
	default:
		return false, fmt.Errorf("outlet %s: unsupported seed status %q", domain, of.Status)
	}

	if err := s.outlets.Save(ctx, o); err != nil {
		return false, fmt.Errorf("save outlet %s: %w", domain, err)
	}
	s.log.Debug("Seeded outlet", zap.String("domain", domain), zap.String("status", string(o.Status)))
	return true, nil
}
