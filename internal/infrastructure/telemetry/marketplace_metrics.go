package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// MarketplaceStats reports current row counts for the status gauges.
type MarketplaceStats interface {
	OutletsByStatus(ctx context.Context) (map[string]int64, error)
	OrdersByStatus(ctx context.Context) (map[string]int64, error)
}

// MarketplaceMetrics counts the checkout funnel, orders, payments and
// placements from domain events. It also records payment gateway errors.
type MarketplaceMetrics struct {
	logger *zap.Logger

	checkoutsStarted   *Counter
	checkoutSteps      *Counter
	checkoutsAbandoned *Counter
	ordersCreated      *Counter
	orderAmount        *Histogram
	payments           *Counter
	refunds            *Counter
	refundAmount       *Histogram
	placements         *Counter
	paymentErrors      *Counter
}

// NewMarketplaceMetrics creates the instruments on meters. When stats is
// non-nil, outlet and order status gauges are observed on each collection.
func NewMarketplaceMetrics(meters *MeterProvider, stats MarketplaceStats, logger *zap.Logger) (*MarketplaceMetrics, error) {
	meter := meters.Meter("linkmarket.business")
	m := &MarketplaceMetrics{logger: logger}

	counters := []struct {
		dst  **Counter
		name string
		desc string
		unit string
	}{
		{&m.checkoutsStarted, "linkmarket_checkout_started_total", "Checkout wizards started", "{session}"},
		{&m.checkoutSteps, "linkmarket_checkout_step_completed_total", "Checkout steps completed by step", "{step}"},
		{&m.checkoutsAbandoned, "linkmarket_checkout_abandoned_total", "Checkout sessions replaced before submission", "{session}"},
		{&m.ordersCreated, "linkmarket_orders_created_total", "Orders created by payment method", "{order}"},
		{&m.payments, "linkmarket_payments_total", "Payment outcomes", "{payment}"},
		{&m.refunds, "linkmarket_refunds_total", "Refunded orders", "{refund}"},
		{&m.placements, "linkmarket_placements_total", "Placement decisions by publishers", "{item}"},
		{&m.paymentErrors, "linkmarket_payment_errors_total", "Payment gateway errors by operation and category", "{error}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	if m.orderAmount, err = NewHistogram(meter, HistogramOpts{
		Name: "linkmarket_order_amount", Description: "Order totals", Unit: "{currency}", Boundaries: OrderAmountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.refundAmount, err = NewHistogram(meter, HistogramOpts{
		Name: "linkmarket_refund_amount", Description: "Refunded amounts", Unit: "{currency}", Boundaries: OrderAmountBuckets,
	}); err != nil {
		return nil, err
	}

	if stats != nil {
		if err := m.observeStatuses(meter, stats); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MarketplaceMetrics) observeStatuses(meter metric.Meter, stats MarketplaceStats) error {
	outlets, err := meter.Int64ObservableGauge("linkmarket_outlets",
		metric.WithDescription("Media outlets by status"), metric.WithUnit("{outlet}"))
	if err != nil {
		return err
	}
	orders, err := meter.Int64ObservableGauge("linkmarket_orders",
		metric.WithDescription("Orders by status"), metric.WithUnit("{order}"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		if counts, err := stats.OutletsByStatus(ctx); err != nil {
			m.logger.Warn("Failed to collect outlet counts", zap.Error(err))
		} else {
			for status, n := range counts {
				o.ObserveInt64(outlets, n, metric.WithAttributes(AttrStatus.String(status)))
			}
		}
		if counts, err := stats.OrdersByStatus(ctx); err != nil {
			m.logger.Warn("Failed to collect order counts", zap.Error(err))
		} else {
			for status, n := range counts {
				o.ObserveInt64(orders, n, metric.WithAttributes(AttrStatus.String(status)))
			}
		}
		return nil
	}, outlets, orders)
	return err
}

// EventTypes implements shared.EventHandler
func (m *MarketplaceMetrics) EventTypes() []string {
	return []string{
		checkout.EventTypeCheckoutStarted,
		checkout.EventTypeCheckoutStepCompleted,
		checkout.EventTypeCheckoutAbandoned,
		order.EventTypeOrderCreated,
		order.EventTypeOrderPaid,
		order.EventTypeOrderPaymentFailed,
		order.EventTypeOrderRefunded,
		order.EventTypeOrderItemAccepted,
		order.EventTypeOrderItemRejected,
		order.EventTypeOrderItemPublished,
	}
}

// Handle implements shared.EventHandler
func (m *MarketplaceMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *checkout.CheckoutStartedEvent:
		m.checkoutsStarted.Inc(ctx)
	case *checkout.CheckoutStepCompletedEvent:
		m.checkoutSteps.Inc(ctx, AttrCheckoutStep.String(string(e.Step)))
	case *checkout.CheckoutAbandonedEvent:
		m.checkoutsAbandoned.Inc(ctx, AttrCheckoutStep.String(string(e.Step)))
	case *order.OrderCreatedEvent:
		method := AttrPaymentMethod.String(e.PaymentMethod)
		m.ordersCreated.Inc(ctx, method)
		m.orderAmount.Record(ctx, amountOf(e.Total), method, currencyAttr(e.Total))
	case *order.OrderPaidEvent:
		m.payments.Inc(ctx, AttrPaymentResult.String("paid"))
	case *order.OrderPaymentFailedEvent:
		m.payments.Inc(ctx, AttrPaymentResult.String("failed"))
	case *order.OrderRefundedEvent:
		m.refunds.Inc(ctx)
		m.refundAmount.Record(ctx, amountOf(e.Amount), currencyAttr(e.Amount))
	case *order.OrderItemAcceptedEvent:
		m.placements.Inc(ctx, AttrStatus.String(string(order.ItemStatusAccepted)), AttrNiche.String(string(e.Niche)))
	case *order.OrderItemRejectedEvent:
		m.placements.Inc(ctx, AttrStatus.String(string(order.ItemStatusRejected)), AttrNiche.String(string(e.Niche)))
	case *order.OrderItemPublishedEvent:
		m.placements.Inc(ctx, AttrStatus.String(string(order.ItemStatusPublished)), AttrNiche.String(string(e.Niche)))
	}
	return nil
}

// RecordPaymentError counts a failed gateway call
func (m *MarketplaceMetrics) RecordPaymentError(ctx context.Context, operation string, category payment.ErrorCategory) {
	m.paymentErrors.Inc(ctx, AttrOperation.String(operation), AttrErrorCategory.String(category.String()))
}

func amountOf(m valueobject.Money) float64 {
	return m.Amount().InexactFloat64()
}

func currencyAttr(m valueobject.Money) attribute.KeyValue {
	return AttrCurrency.String(string(m.Currency()))
}

var _ shared.EventHandler = (*MarketplaceMetrics)(nil)
