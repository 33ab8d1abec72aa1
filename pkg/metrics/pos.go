package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout outcomes used as the status label.
const (
	CheckoutRecorded = "recorded"
	CheckoutRejected = "rejected"
	CheckoutFailed   = "failed"
)

// POSMetrics records checkout and receipt activity.
type POSMetrics struct {
	checkouts      *prometheus.CounterVec
	printed        *prometheus.CounterVec
	printFailures  *prometheus.CounterVec
	renderDuration prometheus.Histogram
}

// NewPOSMetrics registers the POS metrics on the provided registerer. A nil
// registerer returns a no-op recorder.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"status"})
	printed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipts_printed_total",
		Help: "Receipts handed to a print sink.",
	}, []string{"sink"})
	printFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_print_failures_total",
		Help: "Receipts a print sink refused.",
	}, []string{"sink"})
	render := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "receipt_render_seconds",
		Help:    "Time spent laying out receipt text.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
	})
	reg.MustRegister(checkouts, printed, printFailures, render)
	return &POSMetrics{
		checkouts:      checkouts,
		printed:        printed,
		printFailures:  printFailures,
		renderDuration: render,
	}
}

// IncCheckout counts a checkout attempt with the given status.
func (m *POSMetrics) IncCheckout(status string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(status)).Inc()
}

// ReceiptPrinted counts a successful hand-off to sink.
func (m *POSMetrics) ReceiptPrinted(sink string) {
	if m == nil || m.printed == nil {
		return
	}
	m.printed.WithLabelValues(normalizeLabel(sink)).Inc()
}

// ReceiptPrintFailed counts a failed hand-off to sink.
func (m *POSMetrics) ReceiptPrintFailed(sink string) {
	if m == nil || m.printFailures == nil {
		return
	}
	m.printFailures.WithLabelValues(normalizeLabel(sink)).Inc()
}

// ObserveReceiptRender records how long a receipt took to lay out.
func (m *POSMetrics) ObserveReceiptRender(d time.Duration) {
	if m == nil || m.renderDuration == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}

// Handler exposes the registry in the prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
