package checkout

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLines() []Line {
	return []Line{
		{ID: uuid.New(), OutletID: uuid.New(), PublisherID: uuid.New(), OutletDomain: "a.com", Niche: catalog.NicheGeneral, Price: valueobject.MustUSD("100")},
		{ID: uuid.New(), OutletID: uuid.New(), PublisherID: uuid.New(), OutletDomain: "b.com", Niche: catalog.NicheCasino, Price: valueobject.MustUSD("150.50"), TargetURL: "https://shop.example.com", AnchorText: "shop"},
	}
}

func validBilling() BillingInfo {
	return BillingInfo{
		FullName:     "Jane Buyer",
		Email:        "jane@buyer.io",
		AddressLine1: "1 Main St",
		City:         "Springfield",
		PostalCode:   "12345",
		Country:      "us",
	}
}

func article(words int) string {
	return strings.TrimSpace(strings.Repeat("word ", words))
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Details
}

func TestNewSession(t *testing.T) {
	buyer := uuid.New()
	lines := testLines()

	s, err := NewSession(buyer, lines, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, StepCartReview, s.Step)
	assert.Equal(t, SessionStatusActive, s.Status)
	assert.Equal(t, "250.50", s.Total.StringFixed(2))
	assert.WithinDuration(t, s.CreatedAt.Add(time.Hour), s.ExpiresAt, time.Second)

	// cart placement details seed the content drafts
	draft, ok := s.Contents[lines[1].ID]
	require.True(t, ok)
	assert.Equal(t, "https://shop.example.com", draft.TargetURL)

	_, err = NewSession(buyer, nil, time.Hour)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestSession_WizardFlow(t *testing.T) {
	rules := Rules{MinArticleWords: 10}
	lines := testLines()
	s, err := NewSession(uuid.New(), lines, time.Hour)
	require.NoError(t, err)

	// cart review is complete by construction
	require.NoError(t, s.Next(rules))
	assert.Equal(t, StepPaymentMethod, s.Step)

	// payment method is required
	err = s.Next(rules)
	assert.ErrorIs(t, err, ErrStepIncomplete)
	assert.Contains(t, detailsOf(t, err), "payment_method")

	assert.Error(t, s.SelectPaymentMethod("paypal"))
	require.NoError(t, s.SelectPaymentMethod(PaymentMethodCard))
	require.NoError(t, s.Next(rules))
	assert.Equal(t, StepBilling, s.Step)

	// billing: missing and malformed fields are reported
	require.NoError(t, s.SubmitBilling(BillingInfo{FullName: "Jane", Email: "jane@nowhere", Country: "USA"}))
	err = s.Next(rules)
	details := detailsOf(t, err)
	assert.Equal(t, "Invalid email format", details["email"])
	assert.Equal(t, "Use a two-letter country code", details["country"])
	assert.Contains(t, details, "city")
	assert.NotContains(t, details, "full_name")

	require.NoError(t, s.SubmitBilling(validBilling()))
	assert.Equal(t, "US", s.Billing.Country)
	require.NoError(t, s.Next(rules))
	assert.Equal(t, StepContentUpload, s.Step)

	// content: every line needs a submission
	err = s.Next(rules)
	details = detailsOf(t, err)
	assert.Contains(t, details, "lines."+lines[0].ID.String()+".content")

	require.NoError(t, s.SubmitContent(lines[0].ID, ContentSubmission{
		Title: "Gardening tips", Body: article(5), TargetURL: "https://x.io", AnchorText: "x",
	}))
	require.NoError(t, s.SubmitContent(lines[1].ID, ContentSubmission{
		Title: "Casino guide", FileKey: s.UploadPrefix(lines[1].ID) + "doc.pdf", TargetURL: "https://y.io", AnchorText: "y",
	}))
	err = s.Next(rules)
	details = detailsOf(t, err)
	assert.Equal(t, "The article is too short", details["lines."+lines[0].ID.String()+".body"])

	require.NoError(t, s.SubmitContent(lines[0].ID, ContentSubmission{
		Title: "Gardening tips", Body: article(12), TargetURL: "https://x.io", AnchorText: "x",
	}))
	require.NoError(t, s.Next(rules))
	assert.Equal(t, StepConfirmation, s.Step)
	assert.Equal(t, StepConfirmation, s.FurthestStep)

	// confirmation requires terms
	err = s.ReadyToConfirm(rules)
	assert.Contains(t, detailsOf(t, err), "confirmation.terms_accepted")
	require.NoError(t, s.AcceptTerms(true))
	require.NoError(t, s.ReadyToConfirm(rules))

	orderID := uuid.New()
	require.NoError(t, s.MarkSubmitted(orderID))
	assert.Equal(t, SessionStatusSubmitted, s.Status)
	assert.Equal(t, orderID, *s.OrderID)

	// closed sessions reject edits
	assert.Error(t, s.Back())
	assert.Error(t, s.SubmitBilling(validBilling()))

	require.NoError(t, s.MarkCompleted())
	require.NoError(t, s.MarkCompleted())

	var stepEvents int
	for _, e := range s.GetDomainEvents() {
		if e.EventType() == EventTypeCheckoutStepCompleted {
			stepEvents++
		}
	}
	assert.Equal(t, 4, stepEvents)
}

func TestSession_Navigation(t *testing.T) {
	s, err := NewSession(uuid.New(), testLines(), time.Hour)
	require.NoError(t, err)

	assert.Error(t, s.Back(), "cannot go back from the first step")
	assert.Error(t, s.GoTo(StepBilling, DefaultRules()), "cannot jump ahead")
	assert.Error(t, s.SubmitBilling(validBilling()), "cannot fill a step not reached yet")

	require.NoError(t, s.Next(DefaultRules()))
	require.NoError(t, s.SelectPaymentMethod(PaymentMethodBankTransfer))
	require.NoError(t, s.Next(DefaultRules()))
	assert.Equal(t, StepBilling, s.Step)

	require.NoError(t, s.GoTo(StepCartReview, DefaultRules()))
	assert.Equal(t, StepCartReview, s.Step)
	assert.Equal(t, StepBilling, s.FurthestStep)

	require.NoError(t, s.GoTo(StepBilling, DefaultRules()))
	require.NoError(t, s.Back())
	assert.Equal(t, StepPaymentMethod, s.Step)

	assert.Error(t, s.GoTo(Step("shipping"), DefaultRules()))
}

func TestSession_GoToRevalidatesSkippedSteps(t *testing.T) {
	rules := Rules{MinArticleWords: 1}
	lines := testLines()
	s, err := NewSession(uuid.New(), lines, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Next(rules))
	require.NoError(t, s.SelectPaymentMethod(PaymentMethodCard))
	require.NoError(t, s.Next(rules))
	require.NoError(t, s.SubmitBilling(validBilling()))
	require.NoError(t, s.Next(rules))
	for _, l := range lines {
		require.NoError(t, s.SubmitContent(l.ID, ContentSubmission{
			Title: "Post", Body: "text", TargetURL: "https://x.io", AnchorText: "x",
		}))
	}
	require.NoError(t, s.Next(rules))
	require.Equal(t, StepConfirmation, s.Step)

	require.NoError(t, s.GoTo(StepBilling, rules))
	require.NoError(t, s.SubmitBilling(BillingInfo{}))

	err = s.GoTo(StepConfirmation, rules)
	require.ErrorIs(t, err, ErrStepIncomplete)
	details := detailsOf(t, err)
	for _, field := range []string{"full_name", "email", "address_line1", "city", "postal_code", "country"} {
		assert.Contains(t, details, field)
	}
	assert.Equal(t, StepBilling, s.Step)

	require.NoError(t, s.SubmitBilling(validBilling()))
	require.NoError(t, s.GoTo(StepConfirmation, rules))
	assert.Equal(t, StepConfirmation, s.Step)
}

func TestSession_SubmitContentRejectsForeignFileKey(t *testing.T) {
	lines := testLines()
	s, err := NewSession(uuid.New(), lines, time.Hour)
	require.NoError(t, err)
	s.FurthestStep = StepContentUpload
	s.Step = StepContentUpload

	err = s.SubmitContent(lines[0].ID, ContentSubmission{FileKey: "checkout/other/doc.pdf"})
	assert.Error(t, err)

	err = s.SubmitContent(uuid.New(), ContentSubmission{Title: "x"})
	assert.ErrorIs(t, err, ErrLineNotFound)

	assert.NoError(t, s.CanUpload(lines[0].ID))
}

func TestSession_Expiry(t *testing.T) {
	s, err := NewSession(uuid.New(), testLines(), time.Hour)
	require.NoError(t, err)
	s.ExpiresAt = time.Now().Add(-time.Minute)

	assert.True(t, s.IsExpired(time.Now()))
	assert.ErrorIs(t, s.Next(DefaultRules()), ErrSessionExpired)

	s.Expire()
	assert.Equal(t, SessionStatusExpired, s.Status)
	assert.False(t, s.IsExpired(time.Now()))
}

func TestSession_Abandon(t *testing.T) {
	s, err := NewSession(uuid.New(), testLines(), time.Hour)
	require.NoError(t, err)
	s.ClearDomainEvents()

	s.Abandon()
	assert.Equal(t, SessionStatusAbandoned, s.Status)
	require.Len(t, s.GetDomainEvents(), 1)

	s.Abandon()
	assert.Len(t, s.GetDomainEvents(), 1)
}

func TestStep_Order(t *testing.T) {
	next, ok := StepCartReview.Next()
	assert.True(t, ok)
	assert.Equal(t, StepPaymentMethod, next)

	_, ok = StepConfirmation.Next()
	assert.False(t, ok)

	prev, ok := StepConfirmation.Prev()
	assert.True(t, ok)
	assert.Equal(t, StepContentUpload, prev)

	assert.Equal(t, -1, Step("x").Index())
}

func TestIsEmailValid(t *testing.T) {
	valid := []string{"a@b.co", "first.last+tag@sub.domain.org"}
	invalid := []string{"", "a@b", "a b@c.io", "@c.io", "a@.io x"}
	for _, e := range valid {
		assert.True(t, IsEmailValid(e), e)
	}
	for _, e := range invalid {
		assert.False(t, IsEmailValid(e), e)
	}
}
