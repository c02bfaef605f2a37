package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation and model lifecycle metrics.
var (
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamerec",
			Name:      "recommendations_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"kind", "status"}, // kind: by_id / by_text
	)

	RecommendationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamerec",
			Name:      "recommendation_duration_seconds",
			Help:      "Recommendation computation duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
		[]string{"kind"},
	)

	RecommendationResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gamerec",
			Name:      "recommendation_results",
			Help:      "Number of results returned per recommendation request",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		},
		[]string{"kind"},
	)

	ModelLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamerec",
			Name:      "model_loads_total",
			Help:      "Model load attempts by serving source",
		},
		[]string{"source", "status"}, // source: primary / fallback / none
	)

	ModelGames = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamerec",
			Name:      "model_games",
			Help:      "Number of games in the loaded model",
		},
	)

	ModelFeatures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gamerec",
			Name:      "model_features",
			Help:      "Number of feature columns in the loaded model",
		},
	)

	TrainingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gamerec",
			Name:      "training_duration_seconds",
			Help:      "Model training duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

var modelMetricsRegistered bool

// RegisterModelMetrics registers recommendation and model metrics. Must be called once from main.
func RegisterModelMetrics() {
	if modelMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecommendationsTotal)
	prometheus.MustRegister(RecommendationDuration)
	prometheus.MustRegister(RecommendationResults)
	prometheus.MustRegister(ModelLoadsTotal)
	prometheus.MustRegister(ModelGames)
	prometheus.MustRegister(ModelFeatures)
	prometheus.MustRegister(TrainingDuration)
	modelMetricsRegistered = true
}
