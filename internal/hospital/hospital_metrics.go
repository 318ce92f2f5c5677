package hospital

import "github.com/prometheus/client_golang/prometheus"

var (
	bedsAvailableDesc = prometheus.NewDesc(
		"wardline_hospital_beds_available",
		"Free beds per hospital.",
		[]string{"hospital"}, nil,
	)
	bedsTotalDesc = prometheus.NewDesc(
		"wardline_hospital_beds_total",
		"Free beds across all hospitals.",
		nil, nil,
	)
)

// Collector exports registry bed counts, read at scrape time.
type Collector struct {
	registry *Registry
}

// NewCollector returns a prometheus.Collector for r.
func NewCollector(r *Registry) *Collector {
	return &Collector{registry: r}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- bedsAvailableDesc
	ch <- bedsTotalDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	total := 0
	for _, h := range c.registry.Snapshot() {
		total += h.BedsAvailable
		ch <- prometheus.MustNewConstMetric(bedsAvailableDesc, prometheus.GaugeValue, float64(h.BedsAvailable), h.Name)
	}
	ch <- prometheus.MustNewConstMetric(bedsTotalDesc, prometheus.GaugeValue, float64(total))
}
