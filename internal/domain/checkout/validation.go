package checkout

import (
	"regexp"
	"strings"

	"github.com/linkmarket/backend/internal/domain/shared"
)

// billingEmailRegex matches the loose "something@something.tld" shape accepted on the billing form
var billingEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var countryCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

// DefaultMinArticleWords is the minimum article length when no document is uploaded
const DefaultMinArticleWords = 300

// Rules holds the configurable parts of step validation
type Rules struct {
	MinArticleWords int
}

// DefaultRules returns the default validation rules
func DefaultRules() Rules {
	return Rules{MinArticleWords: DefaultMinArticleWords}
}

// FieldErrors maps a field name to a message
type FieldErrors map[string]string

type stepValidator func(s *Session, r Rules) FieldErrors

// stepValidators is the per-step table of required-field checks
var stepValidators = map[Step]stepValidator{
	StepCartReview:    validateCartReview,
	StepPaymentMethod: validatePaymentMethod,
	StepBilling:       validateBilling,
	StepContentUpload: validateContent,
	StepConfirmation:  validateConfirmation,
}

// ValidateStep runs the checks of one step; an empty result means the step is complete
func (s *Session) ValidateStep(step Step, r Rules) FieldErrors {
	v, ok := stepValidators[step]
	if !ok {
		return FieldErrors{"step": "unknown step"}
	}
	return v(s, r)
}

// IsEmailValid reports whether an email passes the billing email check
func IsEmailValid(email string) bool {
	return billingEmailRegex.MatchString(email)
}

func validateCartReview(s *Session, _ Rules) FieldErrors {
	errs := FieldErrors{}
	if len(s.Lines) == 0 {
		errs["lines"] = "The cart is empty"
	}
	if !s.Total.IsPositive() {
		errs["total"] = "The order total must be greater than zero"
	}
	return errs
}

func validatePaymentMethod(s *Session, _ Rules) FieldErrors {
	errs := FieldErrors{}
	if !s.PaymentMethod.IsValid() {
		errs["payment_method"] = "Choose a payment method"
	}
	return errs
}

func validateBilling(s *Session, _ Rules) FieldErrors {
	errs := FieldErrors{}
	b := s.Billing
	required := map[string]string{
		"full_name":     b.FullName,
		"email":         b.Email,
		"address_line1": b.AddressLine1,
		"city":          b.City,
		"postal_code":   b.PostalCode,
		"country":       b.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			errs[field] = "This field is required"
		}
	}
	if _, missing := errs["email"]; !missing && !IsEmailValid(b.Email) {
		errs["email"] = "Invalid email format"
	}
	if _, missing := errs["country"]; !missing && !countryCodeRegex.MatchString(b.Country) {
		errs["country"] = "Use a two-letter country code"
	}
	return errs
}

func validateContent(s *Session, r Rules) FieldErrors {
	errs := FieldErrors{}
	minWords := r.MinArticleWords
	if minWords <= 0 {
		minWords = DefaultMinArticleWords
	}
	for _, l := range s.Lines {
		prefix := "lines." + l.ID.String() + "."
		c, ok := s.Contents[l.ID]
		if !ok {
			errs[prefix+"content"] = "Content is required for " + l.OutletDomain
			continue
		}
		if c.Title == "" {
			errs[prefix+"title"] = "This field is required"
		}
		if c.AnchorText == "" {
			errs[prefix+"anchor_text"] = "This field is required"
		}
		if c.TargetURL == "" {
			errs[prefix+"target_url"] = "This field is required"
		} else if !isHTTPURL(c.TargetURL) {
			errs[prefix+"target_url"] = "Must be an absolute http or https URL"
		}
		switch {
		case c.FileKey != "":
		case c.Body == "":
			errs[prefix+"body"] = "Write the article or upload a document"
		case WordCount(c.Body) < minWords:
			errs[prefix+"body"] = "The article is too short"
		}
	}
	return errs
}

func validateConfirmation(s *Session, _ Rules) FieldErrors {
	errs := FieldErrors{}
	if !s.TermsAccepted {
		errs["terms_accepted"] = "Accept the terms to place the order"
	}
	return errs
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func isHTTPURL(raw string) bool {
	_, err := shared.ParseHTTPURL(raw)
	return err == nil
}
