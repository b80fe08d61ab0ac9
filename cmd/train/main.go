package main

import (
	"flag"
	"log"

	config "revenue-prediction-api/configs"
	"revenue-prediction-api/pkg/logger"
	"revenue-prediction-api/pkg/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	cfg := config.LoadConfig()

	dataPath := flag.String("data", cfg.DataPath, "学習データのパス (.csv または .xlsx)")
	outDir := flag.String("out", cfg.ModelDir, "成果物の出力ディレクトリ")
	testSize := flag.Float64("test-size", services.DefaultTestSize, "評価用データの割合")
	seed := flag.Int64("seed", services.DefaultRandomSeed, "分割用の乱数シード")
	flag.Parse()

	zl, err := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("FATAL: ロガーの初期化に失敗しました: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	rows, err := services.LoadDataset(*dataPath)
	if err != nil {
		zl.Fatal("学習データの読み込みに失敗しました", zap.String("path", *dataPath), zap.Error(err))
	}
	zl.Info("学習データを読み込みました", zap.String("path", *dataPath), zap.Int("rows", len(rows)))

	trainer := services.NewTrainingService(zl.Named("train"), services.SystemClock{})
	artifacts, err := trainer.Train(rows, services.TrainingOptions{TestSize: *testSize, RandomSeed: *seed})
	if err != nil {
		zl.Fatal("学習に失敗しました", zap.Error(err))
	}

	// 出力先だけ差し替え、ファイル名は設定に従う
	cfg.ModelDir = *outDir
	paths := services.ArtifactPaths{
		Model:          cfg.ModelPath(),
		ProductEncoder: cfg.ProductEncoderPath(),
		SegmentEncoder: cfg.SegmentEncoderPath(),
	}
	if err := services.SaveArtifacts(paths, artifacts); err != nil {
		zl.Fatal("成果物の保存に失敗しました", zap.Error(err))
	}

	m := artifacts.Training.Metrics
	zl.Info("✓ 学習が完了しました",
		zap.String("model", paths.Model),
		zap.String("le_product", paths.ProductEncoder),
		zap.String("le_segment", paths.SegmentEncoder),
		zap.Float64("mae", m.MAE),
		zap.Float64("rmse", m.RMSE),
		zap.Float64("r2", m.R2),
	)
}
