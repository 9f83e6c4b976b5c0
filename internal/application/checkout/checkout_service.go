package checkout

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/event"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound  = shared.NewDomainError("CHECKOUT_NOT_FOUND", "Checkout session not found")
	ErrNoActiveSession  = shared.NewDomainError("CHECKOUT_NOT_FOUND", "There is no checkout in progress")
	ErrLinesUnavailable = shared.NewDomainError("CHECKOUT_LINES_UNAVAILABLE", "Some placements in the cart can no longer be ordered; remove them and try again")
	ErrUploadsDisabled  = shared.NewDomainError("UPLOADS_DISABLED", "Document uploads are not available; paste the article text instead")
	ErrFileType         = shared.NewDomainError("INVALID_FILE_TYPE", "Upload a .doc, .docx, .pdf, .txt, .md or .odt document")
	ErrUploadMissing    = shared.NewDomainError("UPLOAD_NOT_FOUND", "The uploaded document was not found; upload it again")
	ErrUploadTooLarge   = shared.NewDomainError("UPLOAD_TOO_LARGE", "The uploaded document exceeds the size limit")
)

// DefaultMaxUploadSize caps article documents at 10MB
const DefaultMaxUploadSize int64 = 10 << 20

// allowedDocumentTypes maps accepted extensions to the content type used when the client sends none
var allowedDocumentTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".odt":  "application/vnd.oasis.opendocument.text",
}

// CartReader is the part of the cart service checkout depends on
type CartReader interface {
	// Items returns the remote cart lines; the backup is never used for checkout
	Items(ctx context.Context, buyerID uuid.UUID) ([]cart.Item, error)
	DiscardBackup(ctx context.Context, buyerID uuid.UUID) error
}

// PaymentStarter opens a hosted card payment page for a new order
type PaymentStarter interface {
	StartPayment(ctx context.Context, o *order.Order) (*PaymentRedirect, error)
}

// Options are the tunable parts of the checkout flow
type Options struct {
	SessionTTL    time.Duration
	Rules         checkout.Rules
	MaxUploadSize int64
	BankTransfer  BankTransferDetails
}

// CheckoutService drives the five-step checkout wizard and places orders
type CheckoutService struct {
	sessionRepo    checkout.SessionRepository
	outletRepo     catalog.MediaOutletRepository
	carts          CartReader
	txScope        TransactionScope
	storage        ContentStorage
	payments       PaymentStarter
	opts           Options
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	sessionRepo checkout.SessionRepository,
	outletRepo catalog.MediaOutletRepository,
	carts CartReader,
	txScope TransactionScope,
	opts Options,
	logger *zap.Logger,
) *CheckoutService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = checkout.DefaultSessionTTL
	}
	if opts.Rules.MinArticleWords <= 0 {
		opts.Rules = checkout.DefaultRules()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}
	return &CheckoutService{
		sessionRepo: sessionRepo,
		outletRepo:  outletRepo,
		carts:       carts,
		txScope:     txScope,
		opts:        opts,
		logger:      logger,
	}
}

// SetContentStorage enables document uploads
func (s *CheckoutService) SetContentStorage(storage ContentStorage) {
	s.storage = storage
}

// SetPaymentStarter enables card payments
func (s *CheckoutService) SetPaymentStarter(payments PaymentStarter) {
	s.payments = payments
}

// SetEventPublisher sets the event publisher for checkout and order events
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Start opens a new wizard over the buyer's cart, re-quoting every line.
// An active session the buyer already had is abandoned.
func (s *CheckoutService) Start(ctx context.Context, buyerID uuid.UUID) (*SessionResponse, error) {
	items, err := s.carts.Items(ctx, buyerID)
	if err != nil {
		s.logger.Error("Cannot read cart for checkout", zap.String("buyer_id", buyerID.String()), zap.Error(err))
		return nil, cart.ErrCartReadOnly
	}
	if len(items) == 0 {
		return nil, checkout.ErrEmptyCart
	}

	lines, err := s.quoteLines(ctx, buyerID, items)
	if err != nil {
		return nil, err
	}

	previous, err := s.sessionRepo.FindActiveByBuyer(ctx, buyerID)
	switch {
	case err == nil:
		previous.Abandon()
		if err := s.sessionRepo.Save(ctx, previous); err != nil {
			return nil, err
		}
		s.publish(ctx, previous)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	session, err := checkout.NewSession(buyerID, lines, s.opts.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	s.publish(ctx, session)

	s.logger.Info("Checkout started",
		zap.String("session_id", session.ID.String()),
		zap.String("buyer_id", buyerID.String()),
		zap.Int("lines", len(lines)),
		zap.String("total", session.Total.String()))
	return ToSessionResponse(session, s.opts.Rules), nil
}

// Get returns one of the buyer's sessions
func (s *CheckoutService) Get(ctx context.Context, buyerID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.load(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	return ToSessionResponse(session, s.opts.Rules), nil
}

// Current returns the buyer's session in progress
func (s *CheckoutService) Current(ctx context.Context, buyerID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	return ToSessionResponse(session, s.opts.Rules), nil
}

// SelectPaymentMethod saves the payment step
func (s *CheckoutService) SelectPaymentMethod(ctx context.Context, buyerID, sessionID uuid.UUID, req SelectPaymentMethodRequest) (*SessionResponse, error) {
	return s.mutate(ctx, buyerID, sessionID, func(session *checkout.Session) error {
		return session.SelectPaymentMethod(checkout.PaymentMethod(req.Method))
	})
}

// SubmitBilling saves the billing step
func (s *CheckoutService) SubmitBilling(ctx context.Context, buyerID, sessionID uuid.UUID, req BillingRequest) (*SessionResponse, error) {
	return s.mutate(ctx, buyerID, sessionID, func(session *checkout.Session) error {
		return session.SubmitBilling(req.toDomain())
	})
}

// SubmitContent saves the article for one line. A referenced document must already be uploaded.
func (s *CheckoutService) SubmitContent(ctx context.Context, buyerID, sessionID, lineID uuid.UUID, req ContentRequest) (*SessionResponse, error) {
	return s.mutate(ctx, buyerID, sessionID, func(session *checkout.Session) error {
		content := req.toDomain()
		if err := session.SubmitContent(lineID, content); err != nil {
			return err
		}
		if key := strings.TrimSpace(content.FileKey); key != "" {
			return s.checkUpload(ctx, key)
		}
		return nil
	})
}

// RequestContentUpload returns a presigned PUT for an article document of one line
func (s *CheckoutService) RequestContentUpload(ctx context.Context, buyerID, sessionID, lineID uuid.UUID, req UploadRequest) (*UploadTarget, error) {
	if s.storage == nil {
		return nil, ErrUploadsDisabled
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(req.Filename)))
	defaultType, ok := allowedDocumentTypes[ext]
	if !ok {
		return nil, ErrFileType
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = defaultType
	}

	session, err := s.load(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.CanUpload(lineID); err != nil {
		return nil, err
	}

	key := session.UploadPrefix(lineID) + uuid.NewString() + ext
	target, err := s.storage.PresignUpload(ctx, key, contentType, s.opts.MaxUploadSize)
	if err != nil {
		s.logger.Error("Failed to presign content upload", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return target, nil
}

// Next validates the current step and advances one step
func (s *CheckoutService) Next(ctx context.Context, buyerID, sessionID uuid.UUID) (*SessionResponse, error) {
	return s.mutate(ctx, buyerID, sessionID, func(session *checkout.Session) error {
		return session.Next(s.opts.Rules)
	})
}

// Back moves one step back
func (s *CheckoutService) Back(ctx context.Context, buyerID, sessionID uuid.UUID) (*SessionResponse, error) {
	return s.mutate(ctx, buyerID, sessionID, func(session *checkout.Session) error {
		return session.Back()
	})
}

// GoTo jumps to a step already reached
func (s *CheckoutService) GoTo(ctx context.Context, buyerID, sessionID uuid.UUID, req GoToRequest) (*SessionResponse, error) {
	return s.mutate(ctx, buyerID, sessionID, func(session *checkout.Session) error {
		return session.GoTo(checkout.Step(req.Step), s.opts.Rules)
	})
}

// Confirm places the order. The order, the session submission and the cart
// clearing commit together; the payment page is opened afterwards, so a
// gateway failure leaves a payable order behind.
func (s *CheckoutService) Confirm(ctx context.Context, buyerID, sessionID uuid.UUID, req ConfirmRequest) (*ConfirmResult, error) {
	session, err := s.load(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.AcceptTerms(req.TermsAccepted); err != nil {
		return nil, err
	}
	if err := session.ReadyToConfirm(s.opts.Rules); err != nil {
		return nil, err
	}
	for _, line := range session.Lines {
		if key := session.Contents[line.ID].FileKey; key != "" {
			if err := s.checkUpload(ctx, key); err != nil {
				return nil, err
			}
		}
	}

	var o *order.Order
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.OrderNumbers().NextOrderNumber(ctx, shared.Now())
		if err != nil {
			return err
		}
		o, err = order.NewOrderFromCheckout(number, session)
		if err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		if err := session.MarkSubmitted(o.ID); err != nil {
			return err
		}
		if err := repos.Sessions().Save(ctx, session); err != nil {
			return err
		}
		return repos.CartItems().DeleteAll(ctx, buyerID)
	})
	if err != nil {
		s.logger.Error("Order confirmation failed",
			zap.String("session_id", sessionID.String()),
			zap.String("buyer_id", buyerID.String()),
			zap.Error(err))
		return nil, err
	}

	if err := s.carts.DiscardBackup(ctx, buyerID); err != nil {
		s.logger.Warn("Failed to delete cart backup after order", zap.String("buyer_id", buyerID.String()), zap.Error(err))
	}
	s.publish(ctx, session, o)

	s.logger.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("total", o.Total.String()))

	result := &ConfirmResult{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Total:         o.Total.Amount(),
		Currency:      string(o.Currency),
		PaymentMethod: string(o.PaymentMethod),
	}

	switch o.PaymentMethod {
	case checkout.PaymentMethodBankTransfer:
		result.BankTransfer = &BankTransferInstructions{
			BankTransferDetails: s.opts.BankTransfer,
			Reference:           o.OrderNumber,
			Amount:              o.Total.Amount(),
			Currency:            string(o.Currency),
		}
	case checkout.PaymentMethodCard:
		if s.payments == nil {
			result.PaymentError = payment.CategorySystemIssue.Message()
			break
		}
		redirect, err := s.payments.StartPayment(ctx, o)
		if err != nil {
			s.logger.Error("Failed to open payment page", zap.String("order_id", o.ID.String()), zap.Error(err))
			result.PaymentError = userMessage(err)
			break
		}
		result.Payment = redirect
	}
	return result, nil
}

// ExpireStaleSessions closes active sessions past their TTL
func (s *CheckoutService) ExpireStaleSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.ExpireStale(ctx, shared.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired stale checkout sessions", zap.Int64("count", n))
	}
	return n, nil
}

func (s *CheckoutService) quoteLines(ctx context.Context, buyerID uuid.UUID, items []cart.Item) ([]checkout.Line, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.OutletID)
	}
	outlets, err := s.outletRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.MediaOutlet, len(outlets))
	for _, o := range outlets {
		byID[o.ID] = o
	}

	lines := make([]checkout.Line, 0, len(items))
	unavailable := map[string]string{}
	for _, it := range items {
		outlet, ok := byID[it.OutletID]
		if !ok {
			unavailable[it.ID.String()] = catalog.ErrOutletUnavailable.Message
			continue
		}
		if outlet.IsOwnedBy(buyerID) {
			unavailable[it.ID.String()] = cart.ErrOwnOutlet.Message
			continue
		}
		price, err := outlet.Quote(it.Niche)
		if err != nil {
			unavailable[it.ID.String()] = err.Error()
			continue
		}
		lines = append(lines, checkout.Line{
			ID:           it.ID,
			OutletID:     outlet.ID,
			PublisherID:  outlet.PublisherID,
			OutletName:   outlet.Name,
			OutletDomain: outlet.Domain,
			Niche:        it.Niche,
			Price:        price,
			TargetURL:    it.TargetURL,
			AnchorText:   it.AnchorText,
			Notes:        it.Notes,
		})
	}
	if len(unavailable) > 0 {
		return nil, ErrLinesUnavailable.WithDetails(unavailable)
	}
	return lines, nil
}

func (s *CheckoutService) load(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkout.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.BuyerID != buyerID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *CheckoutService) mutate(ctx context.Context, buyerID, sessionID uuid.UUID, fn func(*checkout.Session) error) (*SessionResponse, error) {
	session, err := s.load(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}
	s.publish(ctx, session)
	return ToSessionResponse(session, s.opts.Rules), nil
}

func (s *CheckoutService) checkUpload(ctx context.Context, key string) error {
	if s.storage == nil {
		return ErrUploadsDisabled
	}
	info, err := s.storage.Stat(ctx, key)
	if err != nil {
		s.logger.Error("Failed to stat uploaded document", zap.String("key", key), zap.Error(err))
		return err
	}
	if info == nil {
		return ErrUploadMissing
	}
	if info.Size > s.opts.MaxUploadSize {
		return ErrUploadTooLarge
	}
	return nil
}

func (s *CheckoutService) publish(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if err := event.PublishAggregateEvents(ctx, s.eventPublisher, aggregates...); err != nil {
		s.logger.Warn("Failed to publish checkout events", zap.Error(err))
	}
}

func userMessage(err error) string {
	var perr *payment.Error
	if errors.As(err, &perr) {
		return perr.UserMessage()
	}
	return payment.CategoryOf(err).Message()
}
