package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// ProfileRepository defines the interface for profile persistence
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// FindByEmail finds a profile by its normalised email
	FindByEmail(ctx context.Context, email string) (*Profile, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// FindAll returns profiles matching the filter plus the total count
	FindAll(ctx context.Context, filter ProfileFilter) ([]*Profile, int64, error)

	// FindIDsByRole returns the IDs of all active profiles with a role (used to fan out admin notifications)
	FindIDsByRole(ctx context.Context, role Role) ([]uuid.UUID, error)

	Save(ctx context.Context, profile *Profile) error
}

// ProfileFilter contains filter options for querying profiles
type ProfileFilter struct {
	shared.Filter
	Role   *Role
	Status *ProfileStatus
}
