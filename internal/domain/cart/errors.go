package cart

import "github.com/linkmarket/backend/internal/domain/shared"

var (
	ErrCartLimitReached  = shared.NewDomainError("CART_LIMIT_REACHED", "The cart cannot hold more placements")
	ErrDuplicateItem     = shared.NewDomainError("CART_DUPLICATE_ITEM", "This outlet and niche is already in the cart")
	ErrOwnOutlet         = shared.NewDomainError("CART_OWN_OUTLET", "You cannot order placements on your own outlet")
	ErrCartReadOnly      = shared.NewDomainError("CART_READ_ONLY", "The cart is temporarily read-only; please retry shortly")
	ErrRestoreNotAllowed = shared.NewDomainError("CART_RESTORE_NOT_ALLOWED", "A backup can only be restored into an empty cart")
	ErrNoBackup          = shared.NewDomainError("CART_NO_BACKUP", "There is no cart backup to restore")
	ErrItemNotFound      = shared.NewDomainError("CART_ITEM_NOT_FOUND", "Cart item not found")
)
