package checkout

// Step is one page of the checkout wizard
type Step string

const (
	StepCartReview    Step = "cart_review"
	StepPaymentMethod Step = "payment_method"
	StepBilling       Step = "billing"
	StepContentUpload Step = "content_upload"
	StepConfirmation  Step = "confirmation"
)

// Steps is the fixed wizard order
var Steps = []Step{
	StepCartReview,
	StepPaymentMethod,
	StepBilling,
	StepContentUpload,
	StepConfirmation,
}

// Index returns the position of the step in the wizard, or -1 if unknown
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// IsValid checks if the step is known
func (s Step) IsValid() bool {
	return s.Index() >= 0
}

// Next returns the following step; false on the last step
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i == len(Steps)-1 {
		return s, false
	}
	return Steps[i+1], true
}

// Prev returns the preceding step; false on the first step
func (s Step) Prev() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return Steps[i-1], true
}

// String returns the string representation
func (s Step) String() string {
	return string(s)
}

// PaymentMethod is how the buyer pays for the order
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// IsValid checks if the payment method is supported
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCard || m == PaymentMethodBankTransfer
}

// SessionStatus is the lifecycle of a checkout session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusSubmitted SessionStatus = "submitted" // order created, waiting for payment
	SessionStatusCompleted SessionStatus = "completed" // order paid
	SessionStatusAbandoned SessionStatus = "abandoned" // replaced by a newer session
	SessionStatusExpired   SessionStatus = "expired"
)
