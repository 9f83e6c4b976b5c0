package catalog

import "github.com/linkmarket/backend/internal/domain/shared"

var (
	// ErrNicheNotAccepted is returned when quoting a niche the outlet does not take
	ErrNicheNotAccepted = shared.NewDomainError("NICHE_NOT_ACCEPTED", "This outlet does not accept content in the selected niche")
	// ErrOutletUnavailable is returned when ordering from an outlet that is not listed
	ErrOutletUnavailable = shared.NewDomainError("OUTLET_UNAVAILABLE", "This outlet is not currently available")
	// ErrDomainTaken is returned when another outlet already lists the domain
	ErrDomainTaken = shared.NewDomainError("DOMAIN_TAKEN", "Another outlet already lists this domain")
)
