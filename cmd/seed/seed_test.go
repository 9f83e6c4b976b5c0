package main

import (
	"context"
	"errors"
	"testing"

	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/identity"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memProfiles struct {
	byEmail map[string]*identity.Profile
}

func (m *memProfiles) FindByEmail(_ context.Context, email string) (*identity.Profile, error) {
	if p, ok := m.byEmail[email]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memProfiles) Save(_ context.Context, p *identity.Profile) error {
	m.byEmail[p.Email] = p
	return nil
}

type memOutlets struct {
	byDomain map[string]*catalog.MediaOutlet
	failWith error
}

func (m *memOutlets) FindByDomain(_ context.Context, domain string) (*catalog.MediaOutlet, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if o, ok := m.byDomain[domain]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memOutlets) Save(_ context.Context, o *catalog.MediaOutlet) error {
	m.byDomain[o.Domain] = o
	return nil
}

func newSeeder() (*Seeder, *memProfiles, *memOutlets) {
	profiles := &memProfiles{byEmail: map[string]*identity.Profile{}}
	outlets := &memOutlets{byDomain: map[string]*catalog.MediaOutlet{}}
	return NewSeeder(profiles, outlets, zap.NewNop()), profiles, outlets
}

const fixtureYAML = `
profiles:
  - email: Admin@LinkMarket.local
    password: Password123
    full_name: Site Admin
    role: admin
  - email: pub@linkmarket.local
    password: Password123
    full_name: Pat Publisher
    company: Pat Media
    role: publisher
outlets:
  - publisher: pub@linkmarket.local
    name: Tech Daily
    domain: https://www.TechDaily.example.com/
    category: technology
    language: en
    country: us
    base_price: "150.00"
    domain_authority: 61
    monthly_traffic: 120000
    link_type: dofollow
    turnaround_days: 5
    niches:
      - niche: crypto
        accepted: true
        multiplier: 2.5
  - publisher: pub@linkmarket.local
    name: Waiting Room
    domain: waiting.example.org
    category: business
    language: de
    country: DE
    base_price: 80
    link_type: nofollow
    turnaround_days: 10
    status: pending
`

func TestParseFixtures(t *testing.T) {
	f, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)
	require.Len(t, f.Profiles, 2)
	require.Len(t, f.Outlets, 2)
	assert.Equal(t, "150", f.Outlets[0].BasePrice.String())
	assert.Equal(t, "2.5", f.Outlets[0].Niches[0].Multiplier.String())

	_, err = ParseFixtures([]byte(`
profiles:
  - {email: b@linkmarket.local, role: buyer}
outlets:
  - {publisher: b@linkmarket.local, domain: x.example.com}
`))
	assert.ErrorContains(t, err, "is not a publisher profile")

	_, err = ParseFixtures([]byte("profiles: [unterminated"))
	assert.Error(t, err)
}

func TestSeeder_SeedFixtures(t *testing.T) {
	f, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)
	seeder, profiles, outlets := newSeeder()

	res, err := seeder.Seed(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{ProfilesCreated: 2, OutletsCreated: 2}, res)

	admin := profiles.byEmail["admin@linkmarket.local"]
	require.NotNil(t, admin)
	assert.Equal(t, identity.RoleAdmin, admin.Role)
	assert.Equal(t, "Pat Media", profiles.byEmail["pub@linkmarket.local"].Company)

	tech := outlets.byDomain["techdaily.example.com"]
	require.NotNil(t, tech)
	assert.Equal(t, catalog.OutletStatusActive, tech.Status)
	assert.Equal(t, "US", tech.Country)
	assert.Equal(t, profiles.byEmail["pub@linkmarket.local"].ID, tech.PublisherID)
	assert.True(t, tech.AcceptsNiche(catalog.NicheCrypto))
	assert.False(t, tech.AcceptsNiche(catalog.NicheCasino))

	assert.Equal(t, catalog.OutletStatusPending, outlets.byDomain["waiting.example.org"].Status)

	// a second run only skips
	res, err = seeder.Seed(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{ProfilesSkipped: 2, OutletsSkipped: 2}, res)
}

func TestSeeder_Errors(t *testing.T) {
	t.Run("invalid niche multiplier", func(t *testing.T) {
		f, err := ParseFixtures([]byte(`
profiles:
  - {email: p@linkmarket.local, password: Password123, full_name: P, role: publisher}
outlets:
  - publisher: p@linkmarket.local
    name: Bad Rule
    domain: bad.example.com
    category: news
    language: en
    country: US
    base_price: 10
    link_type: dofollow
    turnaround_days: 3
    niches: [{niche: casino, accepted: true, multiplier: 40}]
`))
		require.NoError(t, err)
		seeder, _, _ := newSeeder()
		_, err = seeder.Seed(context.Background(), f)
		assert.ErrorContains(t, err, "niche casino")
	})

	t.Run("weak password", func(t *testing.T) {
		seeder, _, _ := newSeeder()
		_, err := seeder.Seed(context.Background(), &Fixtures{Profiles: []ProfileFixture{
			{Email: "weak@linkmarket.local", Password: "short", FullName: "W", Role: "buyer"},
		}})
		assert.Error(t, err)
	})

	t.Run("lookup failure", func(t *testing.T) {
		seeder, _, outlets := newSeeder()
		outlets.failWith = errors.New("connection reset")
		f := GenerateFixtures(GenerateOptions{Publishers: 1, OutletsPerPublisher: 1, Password: "Password123", Seed: 7})
		_, err := seeder.Seed(context.Background(), f)
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestGenerateFixtures(t *testing.T) {
	opts := GenerateOptions{Buyers: 3, Publishers: 2, OutletsPerPublisher: 4, Password: "Password123", Seed: 42}
	f := GenerateFixtures(opts)

	require.Len(t, f.Profiles, 1+3+2)
	assert.Equal(t, "admin", f.Profiles[0].Role)
	require.Len(t, f.Outlets, 8)

	domains := make(map[string]bool)
	pending := 0
	for _, o := range f.Outlets {
		assert.False(t, domains[o.Domain], "duplicate domain %s", o.Domain)
		domains[o.Domain] = true
		assert.True(t, o.BasePrice.IsPositive())
		if o.Status == "pending" {
			pending++
		}
	}
	assert.Equal(t, 1, pending)

	// same seed, same data
	assert.Equal(t, f, GenerateFixtures(opts))

	seeder, _, outlets := newSeeder()
	res, err := seeder.Seed(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 8, res.OutletsCreated)
	assert.Len(t, outlets.byDomain, 8)
}
