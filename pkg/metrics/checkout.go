package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts checkout submissions and payment settlements.
type CheckoutMetrics struct {
	submissions *prometheus.CounterVec
	settlements *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_settlements_total",
		Help: "Deposit payment webhook settlements by result.",
	}, []string{"result"})
	reg.MustRegister(submissions, settlements)
	return &CheckoutMetrics{submissions: submissions, settlements: settlements}
}

// IncSubmission records one submission outcome (created, blocked, conflict, error).
func (c *CheckoutMetrics) IncSubmission(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	c.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncSettlement records one payment result (paid, failed, duplicate).
func (c *CheckoutMetrics) IncSettlement(result string) {
	if c == nil || c.settlements == nil {
		return
	}
	c.settlements.WithLabelValues(normalizeLabel(result)).Inc()
}
