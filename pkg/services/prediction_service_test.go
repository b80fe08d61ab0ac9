package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"revenue-prediction-api/pkg/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRegressor 呼び出し回数を数えるテスト用モデル
type countingRegressor struct {
	calls int
	value float64
	last  FeatureVector
}

func (r *countingRegressor) Predict(x FeatureVector) float64 {
	r.calls++
	r.last = x
	return r.value
}

func newTestArtifacts(t *testing.T, model Regressor) *Artifacts {
	t.Helper()
	product, err := NewLabelEncoder(models.FieldProductCategory, []string{"Books", "Electronics", "Toys"})
	require.NoError(t, err)
	segment, err := NewLabelEncoder(models.FieldCustomerSegment, []string{"Occasional", "Premium", "Regular"})
	require.NoError(t, err)
	return &Artifacts{Model: model, ProductEncoder: product, SegmentEncoder: segment}
}

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestPredictionService_PredictOne(t *testing.T) {
	model := &countingRegressor{value: 1234.5678}
	svc := NewPredictionService(newTestArtifacts(t, model), FixedClock{T: testNow}, nil)
	require.True(t, svc.Ready())

	record := baseRecord()
	record["Date"] = "15-06-2024"

	result, err := svc.PredictOne(record)
	require.NoError(t, err)

	assert.Equal(t, 1, model.calls)
	assert.Equal(t, FeatureVector{450, 10, 1000, 15, 6}, model.last)
	assert.Equal(t, 1234.57, result.PredictedValue)
	assert.Equal(t, result.PredictedValue, result.PredictedRevenue)
	assert.Equal(t, "Electronics", result.Input.ProductCategory)
}

func TestPredictionService_FullDiscountSkipsModel(t *testing.T) {
	model := &countingRegressor{value: 999}
	svc := NewPredictionService(newTestArtifacts(t, model), FixedClock{T: testNow}, nil)

	record := baseRecord()
	record["Discount"] = 100.0

	result, err := svc.PredictOne(record)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.PredictedValue)
	assert.Equal(t, 0.0, result.Input.EffectivePrice)
	assert.Equal(t, 0, model.calls)
}

func TestPredictionService_InvalidInputSkipsModel(t *testing.T) {
	model := &countingRegressor{value: 999}
	svc := NewPredictionService(newTestArtifacts(t, model), FixedClock{T: testNow}, nil)

	record := baseRecord()
	record["Discount"] = 150.0

	_, err := svc.PredictOne(record)
	require.Error(t, err)
	assert.Equal(t, models.FieldDiscount, ErrorField(err))
	assert.Equal(t, 0, model.calls)
}

func TestPredictionService_Rounding(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{-1.005, -1.01},
		{10, 10},
		{0.004, 0},
		// 10進表記の102.675を0から遠い方へ丸める
		{102.675, 102.68},
	}
	for _, tt := range tests {
		got, err := roundTo2(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "raw=%v", tt.raw)
	}

	_, err := roundTo2(math.NaN())
	assert.Error(t, err)
}

func TestPredictionService_NonFiniteModelOutput(t *testing.T) {
	model := &countingRegressor{value: math.NaN()}
	svc := NewPredictionService(newTestArtifacts(t, model), FixedClock{T: testNow}, nil)

	_, err := svc.PredictOne(baseRecord())
	require.Error(t, err)
	assert.False(t, IsClientError(err))
}

func TestPredictionService_Unavailable(t *testing.T) {
	svc := NewPredictionService(nil, FixedClock{T: testNow}, nil)
	assert.False(t, svc.Ready())

	_, err := svc.PredictOne(baseRecord())
	assert.True(t, errors.Is(err, ErrServiceUnavailable))

	_, err = svc.PredictBatch([]models.RawRecord{baseRecord()})
	assert.True(t, errors.Is(err, ErrServiceUnavailable))

	_, err = svc.ModelInfo()
	assert.True(t, errors.Is(err, ErrServiceUnavailable))

	// エンコーダーが片方欠けていても未準備
	partial := newTestArtifacts(t, &countingRegressor{})
	partial.SegmentEncoder = nil
	assert.False(t, NewPredictionService(partial, nil, nil).Ready())
}

func TestPredictionService_PredictBatch(t *testing.T) {
	model, err := NewLinearModel(100, []float64{2, 0, 0, 0, 0}, FeatureOrder[:])
	require.NoError(t, err)
	svc := NewPredictionService(newTestArtifacts(t, model), FixedClock{T: testNow}, nil)

	first := baseRecord()
	second := baseRecord()
	second["Price"] = 200.0
	second["Discount"] = 0.0
	third := baseRecord()
	third["Discount"] = 100.0

	records := []models.RawRecord{first, second, third}
	results, err := svc.PredictBatch(records)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// 入力順を保ち、単体予測と同じ値になる
	assert.Equal(t, 1000.0, results[0].PredictedValue)
	assert.Equal(t, 500.0, results[1].PredictedValue)
	assert.Equal(t, 0.0, results[2].PredictedValue)
	for i, r := range records {
		single, err := svc.PredictOne(r)
		require.NoError(t, err)
		assert.Equal(t, single.PredictedValue, results[i].PredictedValue)
	}
}

func TestPredictionService_PredictBatchFailsAtomically(t *testing.T) {
	model := &countingRegressor{value: 1}
	svc := NewPredictionService(newTestArtifacts(t, model), FixedClock{T: testNow}, nil)

	bad := baseRecord()
	delete(bad, "Price")

	results, err := svc.PredictBatch([]models.RawRecord{baseRecord(), bad, baseRecord()})
	require.Error(t, err)
	assert.Nil(t, results)

	var be *BatchRecordError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Index)
	assert.Equal(t, models.FieldPrice, ErrorField(err))
	assert.True(t, IsClientError(err))
	// 不正なレコード以降は処理しない
	assert.Equal(t, 1, model.calls)
}

func TestPredictionService_PredictBatchEmpty(t *testing.T) {
	svc := NewPredictionService(newTestArtifacts(t, &countingRegressor{}), FixedClock{T: testNow}, nil)

	_, err := svc.PredictBatch(nil)
	require.Error(t, err)
	assert.Equal(t, "records", ErrorField(err))
}

func TestPredictionService_ModelInfo(t *testing.T) {
	model, err := NewLinearModel(5, []float64{1, 2, 3, 4, 5}, FeatureOrder[:])
	require.NoError(t, err)
	artifacts := newTestArtifacts(t, model)
	artifacts.Training = &models.TrainingSummary{TotalRows: 10, Target: RevenueTarget}
	svc := NewPredictionService(artifacts, nil, nil)

	info, err := svc.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, FeatureOrder[:], info.FeatureOrder)
	assert.Equal(t, 5.0, info.Intercept)
	assert.Equal(t, 3.0, info.Coefficients["Marketing_Spend"])
	assert.Equal(t, []string{"Books", "Electronics", "Toys"}, info.ProductCategories)
	assert.Equal(t, 10, info.Training.TotalRows)
}

func TestPredictionService_PredictBatchCountsOutcomes(t *testing.T) {
	svc := NewPredictionService(newTestArtifacts(t, &countingRegressor{value: 10}), FixedClock{T: testNow}, nil)

	model := PredictionsTotal.WithLabelValues("batch", "model")
	fullDiscount := PredictionsTotal.WithLabelValues("batch", "full_discount")
	beforeModel := testutil.ToFloat64(model)
	beforeFull := testutil.ToFloat64(fullDiscount)

	free := baseRecord()
	free["Discount"] = 100.0
	_, err := svc.PredictBatch([]models.RawRecord{baseRecord(), free, free})
	require.NoError(t, err)

	// 割引100%のレコードはモデル予測として数えない
	assert.Equal(t, beforeModel+1, testutil.ToFloat64(model))
	assert.Equal(t, beforeFull+2, testutil.ToFloat64(fullDiscount))
}
