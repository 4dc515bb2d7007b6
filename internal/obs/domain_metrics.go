package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts price quote outcomes.
	QuoteTotal *prometheus.CounterVec
	// QuoteDuration records price calculation latency in milliseconds.
	QuoteDuration *prometheus.HistogramVec
	// RuleInertTotal counts pricing rules skipped as malformed during evaluation.
	RuleInertTotal prometheus.Counter
	// PaymentRecordTotal counts payment recording outcomes.
	PaymentRecordTotal *prometheus.CounterVec
	// InvoiceGenerateTotal counts invoice generation outcomes.
	InvoiceGenerateTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quote_total",
			Help:      "Count of price quote outcomes.",
		}, []string{"service_type", "result"})
		QuoteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_quote_duration_ms",
			Help:      "Latency of price calculations in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"service_type"})
		RuleInertTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_rule_inert_total",
			Help:      "Count of pricing rules skipped because of an unrecognised field, operator or action.",
		})
		PaymentRecordTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_record_total",
			Help:      "Count of payment recording outcomes.",
		}, []string{"method", "result"})
		InvoiceGenerateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_generate_total",
			Help:      "Count of invoice generation outcomes.",
		}, []string{"result"})
		reg.MustRegister(QuoteTotal, QuoteDuration, RuleInertTotal, PaymentRecordTotal, InvoiceGenerateTotal)
	})
}
