package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "revenue-prediction-api/configs"
	"revenue-prediction-api/pkg/handlers"
	"revenue-prediction-api/pkg/logger"
	"revenue-prediction-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()

	zl, err := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("FATAL: ロガーの初期化に失敗しました: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 成果物の読み込み（失敗しても起動し、model_loaded=false を返す）
	artifacts := services.LoadArtifactsOrWarn(services.ArtifactPaths{
		Model:          cfg.ModelPath(),
		ProductEncoder: cfg.ProductEncoderPath(),
		SegmentEncoder: cfg.SegmentEncoderPath(),
	}, zl)

	// サービスの初期化
	predictionService := services.NewPredictionService(artifacts, services.SystemClock{}, zl)
	monitoringService := services.NewMonitoringService(zl.Named("http"), services.SystemClock{})

	r := handlers.NewRouter(cfg, predictionService, monitoringService, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		zl.Info("Starting Revenue Prediction API server", zap.String("addr", srv.Addr), zap.Bool("model_loaded", predictionService.Ready()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("Server shutdown failed", zap.Error(err))
		return
	}
	zl.Info("Server stopped")
}
