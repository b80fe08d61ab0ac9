package handlers

import (
	config "revenue-prediction-api/configs"
	"revenue-prediction-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter ルーティングとミドルウェアを設定したGinエンジンを返す。
// cmd/server と api/index.go の両方から使う
func NewRouter(cfg *config.Config, predictionService *services.PredictionService, monitoringService *services.MonitoringService, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ハンドラーの初期化
	predictionHandler := NewPredictionHandler(predictionService, cfg.APIVersion, logger)
	monitoringHandler := NewMonitoringHandler(monitoringService)

	// ミドルウェアの登録
	r.Use(gin.Recovery())
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.New(corsConfig(cfg)))

	r.GET("/", predictionHandler.Home)
	r.GET("/status", predictionHandler.Status)
	r.GET("/health", predictionHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 予測API
	r.POST("/predict", predictionHandler.Predict)
	r.POST("/predict/batch", predictionHandler.PredictBatch)
	r.GET("/model/info", predictionHandler.ModelInfo)

	// モニタリングAPI
	v1 := r.Group("/api/v1")
	{
		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	c.AddExposeHeaders(services.RequestIDHeader)
	return c
}
