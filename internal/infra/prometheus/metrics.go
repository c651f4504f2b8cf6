package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	linkOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portallink",
		Name:      "link_operations_total",
		Help:      "Entity-portal link operations by kind, operation and outcome.",
	}, []string{"kind", "operation", "outcome"})

	slugProbes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "portallink",
		Name:      "slug_probes",
		Help:      "Candidates tried before a free slug was found.",
		Buckets:   []float64{1, 2, 3, 5, 10, 25, 100},
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portallink",
		Name:      "highlight_cache_lookups_total",
		Help:      "Highlight cache lookups by result.",
	}, []string{"result"})
)

// ObserveLinkOperation counts one operation. Errors matching one of the
// expected sentinels are labelled by name, everything else as "error".
func ObserveLinkOperation(kind, operation string, err error, expected map[string]error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		for label, target := range expected {
			if errors.Is(err, target) {
				outcome = label
				break
			}
		}
	}
	linkOperations.WithLabelValues(kind, operation, outcome).Inc()
}

// ObserveSlugProbes records how many candidates slug generation tried.
func ObserveSlugProbes(n int) {
	slugProbes.Observe(float64(n))
}

// ObserveCacheLookup records a highlight cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
