package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxConcurrentScrapes bounds parallel scrapes of the metrics endpoint.
const maxConcurrentScrapes = 4

// Handler returns an HTTP handler serving the collector's registry.
//
// Example:
//
//	collector := metrics.NewCollector(cfg, nil)
//	mux.Handle("/metrics", collector.Handler())
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics:   true,
			MaxRequestsInFlight: maxConcurrentScrapes,
			ErrorHandling:       promhttp.ContinueOnError,
		},
	)
}
