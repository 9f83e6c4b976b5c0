package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Fixtures is the seed data set, loaded from YAML or generated
type Fixtures struct {
	Profiles []ProfileFixture `yaml:"profiles"`
	Outlets  []OutletFixture  `yaml:"outlets"`
}

// ProfileFixture is one account
type ProfileFixture struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Company  string `yaml:"company"`
	Role     string `yaml:"role"`
}

// OutletFixture is one outlet, owned by the publisher with the given email
type OutletFixture struct {
	Publisher       string          `yaml:"publisher"`
	Name            string          `yaml:"name"`
	Domain          string          `yaml:"domain"`
	Description     string          `yaml:"description"`
	Category        string          `yaml:"category"`
	Language        string          `yaml:"language"`
	Country         string          `yaml:"country"`
	BasePrice       decimal.Decimal `yaml:"base_price"`
	DomainAuthority int             `yaml:"domain_authority"`
	MonthlyTraffic  int64           `yaml:"monthly_traffic"`
	LinkType        string          `yaml:"link_type"`
	TurnaroundDays  int             `yaml:"turnaround_days"`
	// Status is pending or active; empty means active
	Status string             `yaml:"status"`
	Niches []NicheRuleFixture `yaml:"niches"`
}

// NicheRuleFixture is an explicit niche rule
type NicheRuleFixture struct {
	Niche      string          `yaml:"niche"`
	Accepted   bool            `yaml:"accepted"`
	Multiplier decimal.Decimal `yaml:"multiplier"`
}

// LoadFixtures reads a YAML fixture file
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures and checks outlet owners
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	publishers := make(map[string]bool)
	for _, p := range f.Profiles {
		if p.Role == "publisher" {
			publishers[strings.ToLower(p.Email)] = true
		}
	}
	for i, o := range f.Outlets {
		if !publishers[strings.ToLower(o.Publisher)] {
			return nil, fmt.Errorf("outlet %d (%s): publisher %q is not a publisher profile in the fixtures", i, o.Domain, o.Publisher)
		}
	}
	return &f, nil
}

var (
	outletCategories = []string{"technology", "business", "finance", "health", "travel", "lifestyle", "sports", "gaming"}
	outletLanguages  = []string{"en", "en-GB", "de", "fr", "es", "it", "nl", "pt-BR"}
	outletCountries  = []string{"US", "GB", "DE", "FR", "ES", "IT", "NL", "BR", "CA", "AU"}
	specialNiches    = []string{"casino", "cbd", "crypto", "forex", "dating", "pharma"}
)

// GenerateOptions sizes a generated data set
type GenerateOptions struct {
	Buyers              int
	Publishers          int
	OutletsPerPublisher int
	Password            string
	// Seed of 0 picks a random seed
	Seed uint64
}

// GenerateFixtures builds a random but well-formed data set with one admin
func GenerateFixtures(opts GenerateOptions) *Fixtures {
	faker := gofakeit.New(opts.Seed)
	f := &Fixtures{}

	f.Profiles = append(f.Profiles, ProfileFixture{
		Email:    "admin@linkmarket.local",
		Password: opts.Password,
		FullName: "Marketplace Admin",
		Role:     "admin",
	})
	for i := 0; i < opts.Buyers; i++ {
		f.Profiles = append(f.Profiles, ProfileFixture{
			Email:    fmt.Sprintf("buyer%d@linkmarket.local", i+1),
			Password: opts.Password,
			FullName: faker.Name(),
			Company:  faker.Company(),
			Role:     "buyer",
		})
	}

	usedDomains := make(map[string]bool)
	for i := 0; i < opts.Publishers; i++ {
		email := fmt.Sprintf("publisher%d@linkmarket.local", i+1)
		f.Profiles = append(f.Profiles, ProfileFixture{
			Email:    email,
			Password: opts.Password,
			FullName: faker.Name(),
			Company:  faker.Company(),
			Role:     "publisher",
		})
		for j := 0; j < opts.OutletsPerPublisher; j++ {
			domain := uniqueDomain(faker, usedDomains)
			f.Outlets = append(f.Outlets, generateOutlet(faker, email, domain, len(f.Outlets)))
		}
	}
	return f
}

func uniqueDomain(faker *gofakeit.Faker, used map[string]bool) string {
	for {
		domain := strings.ToLower(faker.DomainName())
		if !used[domain] {
			used[domain] = true
			return domain
		}
	}
}

func generateOutlet(faker *gofakeit.Faker, publisher, domain string, n int) OutletFixture {
	o := OutletFixture{
		Publisher:       publisher,
		Name:            faker.Company() + " Journal",
		Domain:          domain,
		Description:     faker.Sentence(12),
		Category:        faker.RandomString(outletCategories),
		Language:        faker.RandomString(outletLanguages),
		Country:         faker.RandomString(outletCountries),
		BasePrice:       decimal.NewFromFloat(faker.Price(40, 900)).Round(2),
		DomainAuthority: faker.Number(5, 95),
		MonthlyTraffic:  int64(faker.Number(1000, 2_000_000)),
		LinkType:        "dofollow",
		TurnaroundDays:  faker.Number(2, 21),
		Status:          "active",
	}
	if faker.Bool() {
		o.LinkType = "nofollow"
	}
	// every fifth outlet waits for review so the admin queue is not empty
	if n%5 == 4 {
		o.Status = "pending"
	}

	for _, niche := range specialNiches {
		if faker.Number(1, 3) != 1 {
			continue
		}
		o.Niches = append(o.Niches, NicheRuleFixture{
			Niche:      niche,
			Accepted:   true,
			Multiplier: decimal.NewFromFloat(faker.Float64Range(1.2, 3.5)).Round(2),
		})
	}
	return o
}
