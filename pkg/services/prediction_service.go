package services

import (
	"errors"
	"fmt"
	"math"

	"revenue-prediction-api/pkg/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PredictionService 読み込み済みの成果物で売上を予測するサービス。
// 起動後は成果物を読むだけなのでロックは不要
type PredictionService struct {
	artifacts *Artifacts
	pipeline  *FeaturePipeline
	logger    *zap.Logger
}

// NewPredictionService 新しい予測サービスを作成。artifactsがnilの場合は未準備状態になる
func NewPredictionService(artifacts *Artifacts, clock Clock, logger *zap.Logger) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PredictionService{
		artifacts: artifacts,
		logger:    logger,
	}
	if s.Ready() {
		s.pipeline = NewFeaturePipeline(clock, artifacts.ProductEncoder, artifacts.SegmentEncoder)
		ModelLoaded.Set(1)
	} else {
		ModelLoaded.Set(0)
	}
	return s
}

// Ready モデルと両エンコーダーが揃っているか
func (s *PredictionService) Ready() bool {
	return s.artifacts != nil &&
		s.artifacts.Model != nil &&
		s.artifacts.ProductEncoder != nil &&
		s.artifacts.SegmentEncoder != nil
}

// PredictOne 1レコードの売上を予測する
func (s *PredictionService) PredictOne(record models.RawRecord) (models.PredictionResult, error) {
	if !s.Ready() {
		PredictionsTotal.WithLabelValues("single", "unavailable").Inc()
		return models.PredictionResult{}, ErrServiceUnavailable
	}
	result, outcome, err := s.predict(record)
	PredictionsTotal.WithLabelValues("single", outcome).Inc()
	return result, err
}

// PredictBatch 全レコードを予測する。1件でも不正なら全体を失敗とし、部分的な結果は返さない
func (s *PredictionService) PredictBatch(records []models.RawRecord) ([]models.PredictionResult, error) {
	if !s.Ready() {
		PredictionsTotal.WithLabelValues("batch", "unavailable").Inc()
		return nil, ErrServiceUnavailable
	}
	if len(records) == 0 {
		PredictionsTotal.WithLabelValues("batch", "validation_error").Inc()
		return nil, &ValidationError{Field: "records", Message: "records must contain at least one record"}
	}
	BatchSize.Observe(float64(len(records)))

	results := make([]models.PredictionResult, 0, len(records))
	outcomes := make(map[string]int)
	for i, record := range records {
		result, outcome, err := s.predict(record)
		if err != nil {
			PredictionsTotal.WithLabelValues("batch", outcome).Inc()
			s.logger.Debug("バッチ予測を中断しました", zap.Int("record_index", i), zap.Error(err))
			return nil, &BatchRecordError{Index: i, Err: err}
		}
		outcomes[outcome]++
		results = append(results, result)
	}
	for outcome, n := range outcomes {
		PredictionsTotal.WithLabelValues("batch", outcome).Add(float64(n))
	}
	return results, nil
}

// ModelInfo 読み込み済みモデルの概要
func (s *PredictionService) ModelInfo() (models.ModelInfo, error) {
	if !s.Ready() {
		return models.ModelInfo{}, ErrServiceUnavailable
	}
	info := models.ModelInfo{
		FeatureOrder:      FeatureOrder[:],
		ProductCategories: s.artifacts.ProductEncoder.Classes(),
		CustomerSegments:  s.artifacts.SegmentEncoder.Classes(),
		Training:          s.artifacts.Training,
	}
	if lm, ok := s.artifacts.Model.(*LinearModel); ok {
		info.Intercept = lm.Intercept()
		info.Coefficients = make(map[string]float64, NumFeatures)
		for i, c := range lm.Coefficients() {
			info.Coefficients[FeatureOrder[i]] = c
		}
	}
	return info, nil
}

// predict パイプライン→モデル→丸め。outcomeはメトリクス用のラベル
func (s *PredictionService) predict(record models.RawRecord) (models.PredictionResult, string, error) {
	features, input, err := s.pipeline.Transform(record)
	if err != nil {
		return models.PredictionResult{}, outcomeOf(err), err
	}

	// 割引100%は売上0が確定するためモデルを呼ばない
	if input.Discount == 100 {
		return newResult(0, input), "full_discount", nil
	}

	raw := s.artifacts.Model.Predict(features)
	value, err := roundTo2(raw)
	if err != nil {
		return models.PredictionResult{}, "error", err
	}
	return newResult(value, input), "model", nil
}

func newResult(value float64, input models.NormalizedInput) models.PredictionResult {
	return models.PredictionResult{
		PredictedValue:   value,
		PredictedRevenue: value,
		Input:            input,
	}
}

// roundTo2 小数第2位に丸める（0.5は0から遠い方へ）。
// 10進表記で丸めるので、102.675のような2進で正確に表せない値は102.68になる（2進値のまま丸める方式では102.67）
func roundTo2(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("予測値が有限ではありません: %v", v)
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64(), nil
}

func outcomeOf(err error) string {
	var ve *ValidationError
	var ue *UnknownCategoryError
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &ue):
		return "unknown_category"
	default:
		return "error"
	}
}
