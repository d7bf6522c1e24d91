package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the collector's registry in Prometheus exposition
// format. The API server mounts it at telemetry.metrics.path, normally
// "/metrics".
//
// Scrape errors on individual metrics do not fail the whole response; a
// partially broken collector still exposes everything it can, which
// matters when the run gauges are the thing being debugged.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
