package checkout

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// Line is a placement being checked out, copied from the cart when the session starts
type Line struct {
	ID           uuid.UUID         `json:"id"`
	OutletID     uuid.UUID         `json:"outlet_id"`
	PublisherID  uuid.UUID         `json:"publisher_id"`
	OutletName   string            `json:"outlet_name"`
	OutletDomain string            `json:"outlet_domain"`
	Niche        catalog.Niche     `json:"niche"`
	Price        valueobject.Money `json:"price"`
	TargetURL    string            `json:"target_url,omitempty"`
	AnchorText   string            `json:"anchor_text,omitempty"`
	Notes        string            `json:"notes,omitempty"`
}

// BillingInfo is the invoice address entered on the billing step
type BillingInfo struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Company      string `json:"company,omitempty"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	VATNumber    string `json:"vat_number,omitempty"`
}

func (b BillingInfo) normalized() BillingInfo {
	return BillingInfo{
		FullName:     strings.TrimSpace(b.FullName),
		Email:        strings.ToLower(strings.TrimSpace(b.Email)),
		Company:      strings.TrimSpace(b.Company),
		AddressLine1: strings.TrimSpace(b.AddressLine1),
		AddressLine2: strings.TrimSpace(b.AddressLine2),
		City:         strings.TrimSpace(b.City),
		PostalCode:   strings.TrimSpace(b.PostalCode),
		Country:      strings.ToUpper(strings.TrimSpace(b.Country)),
		VATNumber:    strings.ToUpper(strings.TrimSpace(b.VATNumber)),
	}
}

// ContentSubmission is the article (or uploaded document) for one line
type ContentSubmission struct {
	Title      string `json:"title"`
	Body       string `json:"body,omitempty"`
	FileKey    string `json:"file_key,omitempty"`
	TargetURL  string `json:"target_url"`
	AnchorText string `json:"anchor_text"`
	Notes      string `json:"notes,omitempty"`
}

func (c ContentSubmission) normalized() ContentSubmission {
	return ContentSubmission{
		Title:      strings.TrimSpace(c.Title),
		Body:       strings.TrimSpace(c.Body),
		FileKey:    strings.TrimSpace(c.FileKey),
		TargetURL:  strings.TrimSpace(c.TargetURL),
		AnchorText: strings.TrimSpace(c.AnchorText),
		Notes:      strings.TrimSpace(c.Notes),
	}
}

// Session is one run through the checkout wizard
type Session struct {
	shared.BaseAggregateRoot
	BuyerID       uuid.UUID
	Step          Step
	FurthestStep  Step
	Lines         []Line
	Total         valueobject.Money
	PaymentMethod PaymentMethod
	Billing       BillingInfo
	Contents      map[uuid.UUID]ContentSubmission
	TermsAccepted bool
	Status        SessionStatus
	OrderID       *uuid.UUID
	ExpiresAt     time.Time
}

// NewSession starts a wizard over the given lines
func NewSession(buyerID uuid.UUID, lines []Line, ttl time.Duration) (*Session, error) {
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	total, err := sumLines(lines)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	s := &Session{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuyerID:           buyerID,
		Step:              StepCartReview,
		FurthestStep:      StepCartReview,
		Lines:             lines,
		Total:             total,
		Contents:          make(map[uuid.UUID]ContentSubmission),
		Status:            SessionStatusActive,
	}
	s.ExpiresAt = s.CreatedAt.Add(ttl)

	// carry placement details entered in the cart into the content drafts
	for _, l := range lines {
		if l.TargetURL != "" || l.AnchorText != "" || l.Notes != "" {
			s.Contents[l.ID] = ContentSubmission{TargetURL: l.TargetURL, AnchorText: l.AnchorText, Notes: l.Notes}
		}
	}

	s.AddDomainEvent(NewCheckoutStartedEvent(s))
	return s, nil
}

// DefaultSessionTTL is how long an untouched session stays usable
const DefaultSessionTTL = 24 * time.Hour

// IsExpired reports whether the session is past its expiry time
func (s *Session) IsExpired(now time.Time) bool {
	return s.Status == SessionStatusActive && now.After(s.ExpiresAt)
}

// Line returns a line by ID
func (s *Session) Line(lineID uuid.UUID) (Line, bool) {
	for _, l := range s.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

// SelectPaymentMethod records the payment method choice
func (s *Session) SelectPaymentMethod(method PaymentMethod) error {
	if err := s.ensureEditable(StepPaymentMethod); err != nil {
		return err
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be card or bank_transfer")
	}
	s.PaymentMethod = method
	s.Touch()
	return nil
}

// SubmitBilling stores the billing form; completeness is checked when leaving the step
func (s *Session) SubmitBilling(info BillingInfo) error {
	if err := s.ensureEditable(StepBilling); err != nil {
		return err
	}
	s.Billing = info.normalized()
	s.Touch()
	return nil
}

// SubmitContent stores the content draft for a line
func (s *Session) SubmitContent(lineID uuid.UUID, content ContentSubmission) error {
	if err := s.ensureEditable(StepContentUpload); err != nil {
		return err
	}
	if _, ok := s.Line(lineID); !ok {
		return ErrLineNotFound
	}
	content = content.normalized()
	if content.FileKey != "" && !strings.HasPrefix(content.FileKey, s.UploadPrefix(lineID)) {
		return shared.NewDomainError("INVALID_FILE_KEY", "The file key does not belong to this checkout line")
	}
	s.Contents[lineID] = content
	s.Touch()
	return nil
}

// UploadPrefix is the storage key prefix every uploaded document for a line must use
func (s *Session) UploadPrefix(lineID uuid.UUID) string {
	return "checkout/" + s.ID.String() + "/" + lineID.String() + "/"
}

// CanUpload checks that content for the line may be uploaded now
func (s *Session) CanUpload(lineID uuid.UUID) error {
	if err := s.ensureEditable(StepContentUpload); err != nil {
		return err
	}
	if _, ok := s.Line(lineID); !ok {
		return ErrLineNotFound
	}
	return nil
}

// AcceptTerms records the confirmation checkbox
func (s *Session) AcceptTerms(accepted bool) error {
	if err := s.ensureEditable(StepConfirmation); err != nil {
		return err
	}
	s.TermsAccepted = accepted
	s.Touch()
	return nil
}

// Next validates the current step and moves forward by exactly one step
func (s *Session) Next(rules Rules) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	next, ok := s.Step.Next()
	if !ok {
		return shared.NewDomainError("LAST_STEP", "Already at the last step; confirm the order instead")
	}
	if errs := s.ValidateStep(s.Step, rules); len(errs) > 0 {
		return ErrStepIncomplete.WithDetails(errs)
	}
	completed := s.Step
	s.Step = next
	if next.Index() > s.FurthestStep.Index() {
		s.FurthestStep = next
	}
	s.Touch()
	s.AddDomainEvent(NewCheckoutStepCompletedEvent(s, completed))
	return nil
}

// Back moves to the previous step
func (s *Session) Back() error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	prev, ok := s.Step.Prev()
	if !ok {
		return shared.NewDomainError("FIRST_STEP", "Already at the first step")
	}
	s.Step = prev
	s.Touch()
	return nil
}

// GoTo jumps to a step that has already been reached. Moving forward past the
// current step re-validates every step that would be skipped.
func (s *Session) GoTo(step Step, rules Rules) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if !step.IsValid() {
		return shared.NewDomainError("INVALID_STEP", "Unknown checkout step")
	}
	if step.Index() > s.FurthestStep.Index() {
		return shared.NewDomainError("STEP_NOT_REACHED", "Complete the earlier steps first")
	}
	for i := s.Step.Index(); i < step.Index(); i++ {
		if errs := s.ValidateStep(Steps[i], rules); len(errs) > 0 {
			return ErrStepIncomplete.WithDetails(errs)
		}
	}
	s.Step = step
	s.Touch()
	return nil
}

// ReadyToConfirm re-validates every step; the session must be on the confirmation step
func (s *Session) ReadyToConfirm(rules Rules) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if s.Step != StepConfirmation {
		return shared.NewDomainError("NOT_AT_CONFIRMATION", "Finish the earlier steps before confirming")
	}
	errs := FieldErrors{}
	for _, step := range Steps {
		for field, msg := range s.ValidateStep(step, rules) {
			errs[string(step)+"."+field] = msg
		}
	}
	if len(errs) > 0 {
		return ErrStepIncomplete.WithDetails(errs)
	}
	return nil
}

// MarkSubmitted links the created order and closes the wizard
func (s *Session) MarkSubmitted(orderID uuid.UUID) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	s.OrderID = &orderID
	s.Status = SessionStatusSubmitted
	s.Touch()
	s.AddDomainEvent(NewCheckoutSubmittedEvent(s))
	return nil
}

// MarkCompleted records that the order was paid
func (s *Session) MarkCompleted() error {
	if s.Status == SessionStatusCompleted {
		return nil
	}
	if s.Status != SessionStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", "Only submitted checkouts can complete")
	}
	s.Status = SessionStatusCompleted
	s.Touch()
	return nil
}

// Abandon closes an active session that was replaced
func (s *Session) Abandon() {
	if s.Status != SessionStatusActive {
		return
	}
	s.Status = SessionStatusAbandoned
	s.Touch()
	s.AddDomainEvent(NewCheckoutAbandonedEvent(s))
}

// Expire closes a session past its TTL
func (s *Session) Expire() {
	if s.Status != SessionStatusActive {
		return
	}
	s.Status = SessionStatusExpired
	s.Touch()
}

func (s *Session) ensureActive() error {
	if s.Status != SessionStatusActive {
		return shared.NewDomainError("SESSION_CLOSED", "This checkout is no longer active")
	}
	if s.IsExpired(shared.Now()) {
		return ErrSessionExpired
	}
	return nil
}

// ensureEditable checks the session is active and the step has been reached
func (s *Session) ensureEditable(step Step) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if step.Index() > s.FurthestStep.Index() {
		return shared.NewDomainError("STEP_NOT_REACHED", "Complete the earlier steps first")
	}
	return nil
}

func sumLines(lines []Line) (valueobject.Money, error) {
	prices := make([]valueobject.Money, 0, len(lines))
	for _, l := range lines {
		prices = append(prices, l.Price)
	}
	return valueobject.Sum(valueobject.DefaultCurrency, prices...)
}
