package metrics

import "github.com/prometheus/client_golang/prometheus"

// PlatformMetrics exposes counters/histograms for the booking, tracking,
// recommendation and payment flows.
type PlatformMetrics struct {
	bookingsTotal       *prometheus.CounterVec
	cancellationsTotal  prometheus.Counter
	reschedulesTotal    prometheus.Counter
	trackingTransitions *prometheus.CounterVec
	recommendTotal      *prometheus.CounterVec
	recommendLatency    *prometheus.HistogramVec
	paymentIntentsTotal *prometheus.CounterVec
}

func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	m := &PlatformMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physiohome",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Total appointments booked",
		}, []string{"assignment"}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "physiohome",
			Subsystem: "bookings",
			Name:      "cancelled_total",
			Help:      "Total appointments cancelled",
		}),
		reschedulesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "physiohome",
			Subsystem: "bookings",
			Name:      "rescheduled_total",
			Help:      "Total appointments rescheduled",
		}),
		trackingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physiohome",
			Subsystem: "tracking",
			Name:      "transitions_total",
			Help:      "Tracking status transitions",
		}, []string{"from", "to"}),
		recommendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physiohome",
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Total intake recommendation requests",
		}, []string{"provider", "status"}),
		recommendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "physiohome",
			Subsystem: "recommend",
			Name:      "latency_seconds",
			Help:      "Latency of recommendation calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		paymentIntentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physiohome",
			Subsystem: "payments",
			Name:      "intents_total",
			Help:      "Total payment intent creations",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.bookingsTotal,
		m.cancellationsTotal,
		m.reschedulesTotal,
		m.trackingTransitions,
		m.recommendTotal,
		m.recommendLatency,
		m.paymentIntentsTotal,
	)
	return m
}

func (m *PlatformMetrics) ObserveBooking(matched bool) {
	if m == nil {
		return
	}
	label := "defaulted"
	if matched {
		label = "matched"
	}
	m.bookingsTotal.WithLabelValues(label).Inc()
}

func (m *PlatformMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *PlatformMetrics) ObserveReschedule() {
	if m == nil {
		return
	}
	m.reschedulesTotal.Inc()
}

func (m *PlatformMetrics) ObserveTrackingTransition(from, to string) {
	if m == nil {
		return
	}
	m.trackingTransitions.WithLabelValues(from, to).Inc()
}

func (m *PlatformMetrics) ObserveRecommendation(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.recommendTotal.WithLabelValues(provider, status).Inc()
	m.recommendLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *PlatformMetrics) ObservePaymentIntent(status string) {
	if m == nil {
		return
	}
	m.paymentIntentsTotal.WithLabelValues(status).Inc()
}
