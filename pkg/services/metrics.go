package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal 予測件数
	// Labels:
	//   - mode: "single", "batch"
	//   - outcome: "model", "full_discount", "validation_error", "unknown_category", "unavailable", "error"
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revenue_predictions_total",
			Help: "Total number of revenue prediction attempts",
		},
		[]string{"mode", "outcome"},
	)

	// BatchSize バッチ予測のレコード数
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revenue_prediction_batch_size",
			Help:    "Number of records per batch prediction request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// HTTPRequestDuration リクエスト処理時間
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "path", "status"},
	)

	// ModelLoaded 成果物の読み込み状態 (1=読み込み済み)
	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "revenue_model_loaded",
			Help: "Whether the regression model and encoders are loaded (1) or not (0)",
		},
	)
)
