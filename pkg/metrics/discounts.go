package metrics

import "github.com/prometheus/client_golang/prometheus"

// DiscountMetrics tracks batch discount applications.
type DiscountMetrics struct {
	batches *prometheus.CounterVec
	entries prometheus.Counter
}

// NewDiscountMetrics registers the discount metrics on the provided registerer.
func NewDiscountMetrics(reg prometheus.Registerer) *DiscountMetrics {
	if reg == nil {
		return &DiscountMetrics{}
	}
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pricing",
		Name:      "discount_batches_total",
		Help:      "Discount batches applied, by outcome.",
	}, []string{"outcome"})
	entries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pricing",
		Name:      "discount_overrides_written_total",
		Help:      "Price-mapping overrides inserted or updated.",
	})
	reg.MustRegister(batches, entries)
	return &DiscountMetrics{batches: batches, entries: entries}
}

// BatchApplied records a successful batch and the rows it touched.
func (d *DiscountMetrics) BatchApplied(affected int) {
	if d == nil || d.batches == nil {
		return
	}
	d.batches.WithLabelValues("applied").Inc()
	d.entries.Add(float64(affected))
}

// BatchRejected records a batch that failed validation or persistence.
func (d *DiscountMetrics) BatchRejected() {
	if d == nil || d.batches == nil {
		return
	}
	d.batches.WithLabelValues("rejected").Inc()
}
