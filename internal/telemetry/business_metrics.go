package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	// Checkout
	CheckoutAttempts *prometheus.CounterVec
	CheckoutDuration prometheus.Histogram
	StockConflicts   prometheus.Counter
	OrderValue       prometheus.Histogram
	OrderItemCount   prometheus.Histogram

	// Cart
	CartUpdated *prometheus.CounterVec

	// Orders
	OrderStatusChanges *prometheus.CounterVec

	// Reviews and the rating aggregator
	ReviewsCreated *prometheus.CounterVec
	RatingUpdates  *prometheus.CounterVec
	RatingQueue    prometheus.Gauge

	// Auth
	Signups     prometheus.Counter
	Logins      *prometheus.CounterVec
	TokenRevoke prometheus.Counter
}

// NewBusinessMetrics creates business metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "epharmacy"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Checkout
		// =======================================================================
		CheckoutAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_attempts_total",
				Help:      "Checkout attempts by outcome (ok or the failure reason)",
			},
			[]string{"outcome"},
		),
		CheckoutDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_duration_seconds",
				Help:      "Time spent in the checkout transaction",
				Buckets:   prometheus.DefBuckets,
			},
		),
		StockConflicts: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_conflicts_total",
				Help:      "Checkouts aborted because stock changed concurrently",
			},
		),
		OrderValue: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order totals in currency units",
				Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),
		OrderItemCount: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
		),

		// =======================================================================
		// Cart
		// =======================================================================
		CartUpdated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updates_total",
				Help:      "Cart replacements by outcome",
			},
			[]string{"outcome"},
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrderStatusChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_changes_total",
				Help:      "Admin order status transitions by target status",
			},
			[]string{"status"},
		),

		// =======================================================================
		// Reviews
		// =======================================================================
		ReviewsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reviews_created_total",
				Help:      "Reviews created by star rating",
			},
			[]string{"rating"},
		),
		RatingUpdates: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rating_updates_total",
				Help:      "Rating aggregate updates by status (applied, failed, dropped)",
			},
			[]string{"status"},
		),
		RatingQueue: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rating_queue_depth",
				Help:      "Rating updates waiting to be applied",
			},
		),

		// =======================================================================
		// Auth
		// =======================================================================
		Signups: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "signups_total",
				Help:      "Accounts registered",
			},
		),
		Logins: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "logins_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"},
		),
		TokenRevoke: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tokens_revoked_total",
				Help:      "Access tokens revoked by logout",
			},
		),
	}
}

// RecordCheckout records a checkout outcome. outcome is "ok" or a failure reason.
func (m *BusinessMetrics) RecordCheckout(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CheckoutAttempts.WithLabelValues(outcome).Inc()
	m.CheckoutDuration.Observe(seconds)
}

// RecordOrder records a placed order's value and unit count.
func (m *BusinessMetrics) RecordOrder(total float64, units int) {
	if m == nil {
		return
	}
	m.OrderValue.Observe(total)
	m.OrderItemCount.Observe(float64(units))
}

// RecordStockConflict counts a checkout that lost a stock race.
func (m *BusinessMetrics) RecordStockConflict() {
	if m == nil {
		return
	}
	m.StockConflicts.Inc()
}

// RecordCartUpdate counts a cart replacement.
func (m *BusinessMetrics) RecordCartUpdate(outcome string) {
	if m == nil {
		return
	}
	m.CartUpdated.WithLabelValues(outcome).Inc()
}

// RecordOrderStatus counts an admin status change.
func (m *BusinessMetrics) RecordOrderStatus(status string) {
	if m == nil {
		return
	}
	m.OrderStatusChanges.WithLabelValues(status).Inc()
}

// RecordReview counts a created review.
func (m *BusinessMetrics) RecordReview(rating string) {
	if m == nil {
		return
	}
	m.ReviewsCreated.WithLabelValues(rating).Inc()
}

// RecordRatingUpdate counts a rating aggregate update result.
func (m *BusinessMetrics) RecordRatingUpdate(status string) {
	if m == nil {
		return
	}
	m.RatingUpdates.WithLabelValues(status).Inc()
}

// SetRatingQueueDepth reports the rating queue length.
func (m *BusinessMetrics) SetRatingQueueDepth(n int) {
	if m == nil {
		return
	}
	m.RatingQueue.Set(float64(n))
}

// RecordSignup counts a registration.
func (m *BusinessMetrics) RecordSignup() {
	if m == nil {
		return
	}
	m.Signups.Inc()
}

// RecordLogin counts a login attempt. result is "ok" or "failed".
func (m *BusinessMetrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// RecordLogout counts a revoked token.
func (m *BusinessMetrics) RecordLogout() {
	if m == nil {
		return
	}
	m.TokenRevoke.Inc()
}
