package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLinearRegression_RecoversCoefficients(t *testing.T) {
	intercept := 12.5
	coefs := []float64{3.2, -1.5, 0.04, 2.0, -7.25}

	rng := rand.New(rand.NewSource(7))
	n := 200
	X := make([]FeatureVector, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = FeatureVector{
			rng.Float64() * 1000,
			float64(rng.Intn(51)),
			rng.Float64() * 10000,
			float64(1 + rng.Intn(31)),
			float64(1 + rng.Intn(12)),
		}
		y[i] = intercept
		for j := 0; j < NumFeatures; j++ {
			y[i] += coefs[j] * X[i][j]
		}
	}

	model, err := FitLinearRegression(X, y)
	require.NoError(t, err)

	assert.InDelta(t, intercept, model.Intercept(), 1e-6)
	for j, c := range model.Coefficients() {
		assert.InDelta(t, coefs[j], c, 1e-6, FeatureOrder[j])
	}
	assert.InDelta(t, y[0], model.Predict(X[0]), 1e-6)
}

func TestFitLinearRegression_InsufficientRows(t *testing.T) {
	X := make([]FeatureVector, 5)
	y := make([]float64, 5)
	_, err := FitLinearRegression(X, y)
	assert.Error(t, err)

	_, err = FitLinearRegression(make([]FeatureVector, 10), make([]float64, 9))
	assert.Error(t, err)
}

func TestNewLinearModel(t *testing.T) {
	t.Run("正常系", func(t *testing.T) {
		m, err := NewLinearModel(1, []float64{1, 2, 3, 4, 5}, FeatureOrder[:])
		require.NoError(t, err)
		// 1 + 1*1 + 2*1 + 3*1 + 4*1 + 5*1
		assert.Equal(t, 16.0, m.Predict(FeatureVector{1, 1, 1, 1, 1}))
	})

	t.Run("特徴量の順序が異なる", func(t *testing.T) {
		names := []string{"Discount", "Effective_Price", "Marketing_Spend", "Day", "Month"}
		_, err := NewLinearModel(0, []float64{1, 2, 3, 4, 5}, names)
		assert.Error(t, err)
	})

	t.Run("係数の数が不正", func(t *testing.T) {
		_, err := NewLinearModel(0, []float64{1, 2, 3}, FeatureOrder[:])
		assert.Error(t, err)
	})

	t.Run("係数はコピーを返す", func(t *testing.T) {
		m, err := NewLinearModel(0, []float64{1, 2, 3, 4, 5}, FeatureOrder[:])
		require.NoError(t, err)
		c := m.Coefficients()
		c[0] = 100
		assert.Equal(t, 1.0, m.Coefficients()[0])
	})
}
