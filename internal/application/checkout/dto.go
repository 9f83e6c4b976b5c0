package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/shopspring/decimal"
)

// SelectPaymentMethodRequest picks how the order will be paid
type SelectPaymentMethodRequest struct {
	Method string `json:"method" binding:"required,oneof=card bank_transfer"`
}

// BillingRequest is the billing step form. Required fields are checked when
// leaving the step, so a partially filled form can be saved.
type BillingRequest struct {
	FullName     string `json:"full_name" binding:"max=200"`
	Email        string `json:"email" binding:"max=254"`
	Company      string `json:"company" binding:"max=200"`
	AddressLine1 string `json:"address_line1" binding:"max=200"`
	AddressLine2 string `json:"address_line2" binding:"max=200"`
	City         string `json:"city" binding:"max=100"`
	PostalCode   string `json:"postal_code" binding:"max=20"`
	Country      string `json:"country" binding:"max=2"`
	VATNumber    string `json:"vat_number" binding:"max=30"`
}

func (r BillingRequest) toDomain() checkout.BillingInfo {
	return checkout.BillingInfo{
		FullName:     r.FullName,
		Email:        r.Email,
		Company:      r.Company,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		VATNumber:    r.VATNumber,
	}
}

// ContentRequest is the article for one line: a body or an uploaded document
type ContentRequest struct {
	Title      string `json:"title" binding:"max=300"`
	Body       string `json:"body" binding:"max=100000"`
	FileKey    string `json:"file_key" binding:"max=500"`
	TargetURL  string `json:"target_url" binding:"max=2048"`
	AnchorText string `json:"anchor_text" binding:"max=200"`
	Notes      string `json:"notes" binding:"max=2000"`
}

func (r ContentRequest) toDomain() checkout.ContentSubmission {
	return checkout.ContentSubmission{
		Title:      r.Title,
		Body:       r.Body,
		FileKey:    r.FileKey,
		TargetURL:  r.TargetURL,
		AnchorText: r.AnchorText,
		Notes:      r.Notes,
	}
}

// UploadRequest asks for a presigned upload URL for an article document
type UploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"max=100"`
}

// GoToRequest jumps to an already reached step
type GoToRequest struct {
	Step string `json:"step" binding:"required"`
}

// ConfirmRequest places the order
type ConfirmRequest struct {
	TermsAccepted bool `json:"terms_accepted"`
}

// LineResponse is one placement in the wizard
type LineResponse struct {
	ID           uuid.UUID       `json:"id"`
	OutletID     uuid.UUID       `json:"outlet_id"`
	OutletName   string          `json:"outlet_name"`
	OutletDomain string          `json:"outlet_domain"`
	Niche        string          `json:"niche"`
	Price        decimal.Decimal `json:"price"`
}

// StepState describes one wizard step for progress indicators
type StepState struct {
	Step     string `json:"step"`
	Index    int    `json:"index"`
	Reached  bool   `json:"reached"`
	Complete bool   `json:"complete"`
}

// SessionResponse is the full wizard state
type SessionResponse struct {
	ID            uuid.UUID                                `json:"id"`
	Status        string                                   `json:"status"`
	Step          string                                   `json:"step"`
	FurthestStep  string                                   `json:"furthest_step"`
	Steps         []StepState                              `json:"steps"`
	Lines         []LineResponse                           `json:"lines"`
	Total         decimal.Decimal                          `json:"total"`
	Currency      string                                   `json:"currency"`
	PaymentMethod string                                   `json:"payment_method,omitempty"`
	Billing       checkout.BillingInfo                     `json:"billing"`
	Contents      map[uuid.UUID]checkout.ContentSubmission `json:"contents"`
	TermsAccepted bool                                     `json:"terms_accepted"`
	OrderID       *uuid.UUID                               `json:"order_id,omitempty"`
	ExpiresAt     time.Time                                `json:"expires_at"`
	// StepErrors lists what is still missing on the current step
	StepErrors checkout.FieldErrors `json:"step_errors,omitempty"`
}

// BankTransferDetails is the receiving account shown for bank transfer orders
type BankTransferDetails struct {
	AccountName string `json:"account_name"`
	BankName    string `json:"bank_name"`
	IBAN        string `json:"iban"`
	BIC         string `json:"bic"`
}

// BankTransferInstructions tell the buyer how to pay; the order number is the reference
type BankTransferInstructions struct {
	BankTransferDetails
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// PaymentRedirect is the hosted payment page a card order is sent to
type PaymentRedirect struct {
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmResult is the outcome of placing an order
type ConfirmResult struct {
	OrderID       uuid.UUID                 `json:"order_id"`
	OrderNumber   string                    `json:"order_number"`
	Total         decimal.Decimal           `json:"total"`
	Currency      string                    `json:"currency"`
	PaymentMethod string                    `json:"payment_method"`
	Payment       *PaymentRedirect          `json:"payment,omitempty"`
	BankTransfer  *BankTransferInstructions `json:"bank_transfer,omitempty"`
	// PaymentError is set when the order exists but the payment page could not be opened; retry from the order
	PaymentError string `json:"payment_error,omitempty"`
}

// ToSessionResponse maps a session to its response
func ToSessionResponse(s *checkout.Session, rules checkout.Rules) *SessionResponse {
	lines := make([]LineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = LineResponse{
			ID:           l.ID,
			OutletID:     l.OutletID,
			OutletName:   l.OutletName,
			OutletDomain: l.OutletDomain,
			Niche:        string(l.Niche),
			Price:        l.Price.Amount(),
		}
	}

	steps := make([]StepState, len(checkout.Steps))
	for i, step := range checkout.Steps {
		reached := i <= s.FurthestStep.Index()
		steps[i] = StepState{
			Step:     string(step),
			Index:    i,
			Reached:  reached,
			Complete: reached && len(s.ValidateStep(step, rules)) == 0,
		}
	}

	res := &SessionResponse{
		ID:            s.ID,
		Status:        string(s.Status),
		Step:          string(s.Step),
		FurthestStep:  string(s.FurthestStep),
		Steps:         steps,
		Lines:         lines,
		Total:         s.Total.Amount(),
		Currency:      string(s.Total.Currency()),
		PaymentMethod: string(s.PaymentMethod),
		Billing:       s.Billing,
		Contents:      s.Contents,
		TermsAccepted: s.TermsAccepted,
		OrderID:       s.OrderID,
		ExpiresAt:     s.ExpiresAt,
	}
	if s.Status == checkout.SessionStatusActive {
		if errs := s.ValidateStep(s.Step, rules); len(errs) > 0 {
			res.StepErrors = errs
		}
	}
	return res
}
