package detector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tl_detector_cycles_total",
		Help: "Observation cycles run by the detector",
	})

	observationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tl_detector_observations_total",
		Help: "Raw per-cycle color observations fed to the debouncer",
	}, []string{"color"})

	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tl_detector_commits_total",
		Help: "Debounced decisions committed, by stable color",
	}, []string{"color"})

	publishedWaypoint = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tl_detector_published_waypoint",
		Help: "Last published stop waypoint (-1 means no stop)",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tl_detector_cycle_duration_seconds",
		Help:    "Wall time of one observation cycle",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})

	indexBuilt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tl_detector_route_index_built",
		Help: "1 once the light to waypoint index has been built",
	})
)
