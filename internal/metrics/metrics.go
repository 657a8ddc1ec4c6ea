package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_searches_total",
			Help: "Off-market searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_search_duration_seconds",
			Help:    "Wall time of one off-market search",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60, 120},
		},
	)

	StageCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_stage_candidates",
			Help:    "Candidates leaving each pipeline stage",
			Buckets: []float64{0, 5, 10, 15, 30, 60, 80, 120, 200},
		},
		[]string{"stage"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_provider_requests_total",
			Help: "Outbound provider calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	ReviewVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_review_verdicts_total",
			Help: "Review outcomes: kept, rejected, malformed, failed",
		},
		[]string{"result"},
	)

	GeocodeCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_geocode_cache_total",
			Help: "Geocode cache lookups by result",
		},
		[]string{"result"},
	)
)

func Handler() http.Handler { return promhttp.Handler() }
