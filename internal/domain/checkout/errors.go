package checkout

import "github.com/linkmarket/backend/internal/domain/shared"

var (
	ErrEmptyCart      = shared.NewDomainError("CHECKOUT_EMPTY_CART", "Add at least one placement to the cart before checking out")
	ErrStepIncomplete = shared.NewDomainError("STEP_INCOMPLETE", "Some required fields are missing or invalid")
	ErrSessionExpired = shared.NewDomainError("SESSION_EXPIRED", "This checkout has expired; please start again")
	ErrLineNotFound   = shared.NewDomainError("CHECKOUT_LINE_NOT_FOUND", "Checkout line not found")
)
