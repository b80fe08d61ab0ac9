package services

import (
	"fmt"
	"math"
	"math/rand"

	"revenue-prediction-api/pkg/models"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// 学習の既定値
const (
	DefaultTestSize   = 0.2
	DefaultRandomSeed = 42
)

// TrainingOptions 学習時の分割設定
type TrainingOptions struct {
	TestSize   float64
	RandomSeed int64
}

// DefaultTrainingOptions 80/20分割・シード42
func DefaultTrainingOptions() TrainingOptions {
	return TrainingOptions{TestSize: DefaultTestSize, RandomSeed: DefaultRandomSeed}
}

// TrainingService 過去データから線形回帰モデルとラベルエンコーダーを作るオフライン処理
type TrainingService struct {
	logger *zap.Logger
	clock  Clock
}

// NewTrainingService 新しい学習サービスを作成
func NewTrainingService(logger *zap.Logger, clock Clock) *TrainingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TrainingService{logger: logger, clock: clock}
}

// Train エンコーダーの当てはめ→特徴量作成→分割→OLS→評価を行い、成果物一式を返す
func (ts *TrainingService) Train(rows []SalesRow, opts TrainingOptions) (*Artifacts, error) {
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		return nil, fmt.Errorf("TestSizeは0より大きく1未満である必要があります: %v", opts.TestSize)
	}
	n := len(rows)
	ts.logger.Info("学習を開始します",
		zap.Int("rows", n),
		zap.String("target", RevenueTarget),
		zap.Float64("test_size", opts.TestSize),
		zap.Int64("random_seed", opts.RandomSeed),
	)

	// 1. カテゴリ列のエンコーダーをデータ全体で当てはめる
	products := make([]string, n)
	segments := make([]string, n)
	for i, r := range rows {
		products[i] = r.ProductCategory
		segments[i] = r.CustomerSegment
	}
	productEncoder, err := FitLabelEncoder(models.FieldProductCategory, products)
	if err != nil {
		return nil, fmt.Errorf("商品カテゴリのエンコードに失敗: %w", err)
	}
	segmentEncoder, err := FitLabelEncoder(models.FieldCustomerSegment, segments)
	if err != nil {
		return nil, fmt.Errorf("顧客セグメントのエンコードに失敗: %w", err)
	}
	ts.logger.Info("カテゴリを検出しました",
		zap.Strings("product_categories", productEncoder.Classes()),
		zap.Strings("customer_segments", segmentEncoder.Classes()),
	)

	// 2. 特徴量と目的変数（Revenue = Effective_Price × Units_Sold）
	X := make([]FeatureVector, n)
	y := make([]float64, n)
	for i, r := range rows {
		ep := EffectivePrice(r.Price, r.Discount)
		X[i] = BuildFeatureVector(ep, r.Discount, r.MarketingSpend, r.Date.Day(), int(r.Date.Month()))
		y[i] = ep * r.UnitsSold
	}

	// 3. 固定シードで学習/評価に分割
	trainIdx, testIdx, err := splitIndices(n, opts.TestSize, opts.RandomSeed)
	if err != nil {
		return nil, err
	}
	ts.logger.Info("データを分割しました", zap.Int("train", len(trainIdx)), zap.Int("test", len(testIdx)))

	// 4. 最小二乗法
	model, err := FitLinearRegression(pick(X, trainIdx), pick(y, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("線形回帰の学習に失敗: %w", err)
	}

	// 5. ホールドアウト評価
	testX := pick(X, testIdx)
	testY := pick(y, testIdx)
	pred := make([]float64, len(testX))
	for i, x := range testX {
		pred[i] = model.Predict(x)
	}
	metrics := EvaluateRegression(testY, pred)
	ts.logger.Info("評価結果",
		zap.Float64("mae", metrics.MAE),
		zap.Float64("rmse", metrics.RMSE),
		zap.Float64("r2", metrics.R2),
	)

	return &Artifacts{
		Model:          model,
		ProductEncoder: productEncoder,
		SegmentEncoder: segmentEncoder,
		Training: &models.TrainingSummary{
			TrainedAt:  ts.clock.Now().UTC(),
			TotalRows:  n,
			TrainRows:  len(trainIdx),
			TestRows:   len(testIdx),
			TestSize:   opts.TestSize,
			RandomSeed: opts.RandomSeed,
			Target:     RevenueTarget,
			Metrics:    metrics,
		},
	}, nil
}

// EvaluateRegression MAE, RMSE, 決定係数を計算する
func EvaluateRegression(actual, predicted []float64) models.TrainingMetrics {
	n := float64(len(actual))
	if n == 0 {
		return models.TrainingMetrics{}
	}
	r2 := stat.RSquaredFrom(predicted, actual, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		// 評価データの分散が0のときは定義できない
		r2 = 0
	}
	return models.TrainingMetrics{
		MAE:  floats.Distance(actual, predicted, 1) / n,
		RMSE: floats.Distance(actual, predicted, 2) / math.Sqrt(n),
		R2:   r2,
	}
}

// splitIndices シャッフルした添字を評価用 ceil(n×testSize) 件と学習用に分ける
func splitIndices(n int, testSize float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(float64(n) * testSize))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, fmt.Errorf("分割後のデータが空になります: rows=%d test_size=%v", n, testSize)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

func pick[T any](values []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}
