package order

import "github.com/linkmarket/backend/internal/domain/shared"

var (
	ErrItemNotFound        = shared.NewDomainError("ORDER_ITEM_NOT_FOUND", "Order item not found")
	ErrNotItemPublisher    = shared.NewDomainError("FORBIDDEN", "This item belongs to another publisher's outlet")
	ErrInvalidTransition   = shared.NewDomainError("INVALID_STATUS_TRANSITION", "The order cannot move to the requested status")
	ErrItemNotActionable   = shared.NewDomainError("ITEM_NOT_ACTIONABLE", "Items can only be handled on paid orders")
	ErrPublishURLMismatch  = shared.NewDomainError("PUBLISH_URL_MISMATCH", "The published URL must be on the outlet's domain")
	ErrNotCancellable      = shared.NewDomainError("ORDER_NOT_CANCELLABLE", "Only orders awaiting payment can be cancelled")
	ErrNotCardPayment      = shared.NewDomainError("NOT_CARD_PAYMENT", "The order is not paid by card")
	ErrNotBankTransfer     = shared.NewDomainError("NOT_BANK_TRANSFER", "The order is not paid by bank transfer")
	ErrRejectReasonMissing = shared.NewDomainError("REASON_REQUIRED", "A reason is required")
)
