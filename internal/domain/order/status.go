package order

// Status represents the lifecycle of an order
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusInProgress, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingPayment:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusInProgress || target == StatusCancelled || target == StatusRefunded
	case StatusInProgress:
		return target == StatusCompleted || target == StatusRefunded
	case StatusCompleted:
		return target == StatusRefunded
	case StatusCancelled, StatusRefunded:
		return false // Terminal states
	}
	return false
}

// acceptsItemWork reports whether publishers may act on items
func (s Status) acceptsItemWork() bool {
	return s == StatusPaid || s == StatusInProgress
}

// PaymentStatus tracks the money side of an order independently of fulfilment
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the payment status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ItemStatus is the publisher-side state of one placement
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusAccepted  ItemStatus = "accepted"
	ItemStatusRejected  ItemStatus = "rejected"
	ItemStatusPublished ItemStatus = "published"
)

// IsValid checks if the item status is known
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusAccepted, ItemStatusRejected, ItemStatusPublished:
		return true
	}
	return false
}

// CanTransitionTo checks if the item status can transition to the target status
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	switch s {
	case ItemStatusPending:
		return target == ItemStatusAccepted || target == ItemStatusRejected
	case ItemStatusAccepted:
		return target == ItemStatusPublished || target == ItemStatusRejected
	}
	return false
}

// IsFinal reports whether the publisher is done with the item
func (s ItemStatus) IsFinal() bool {
	return s == ItemStatusRejected || s == ItemStatusPublished
}
