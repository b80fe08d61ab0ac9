package services

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NumFeatures モデルの入力次元
const NumFeatures = 5

// FeatureOrder 学習時と推論時で共有する特徴量の順序。変更すると予測が黙って壊れる
var FeatureOrder = [NumFeatures]string{
	"Effective_Price",
	"Discount",
	"Marketing_Spend",
	"Day",
	"Month",
}

// FeatureVector 固定順序の特徴量ベクトル
type FeatureVector [NumFeatures]float64

// Regressor 特徴量ベクトルからスカラー値を予測するモデル
type Regressor interface {
	Predict(x FeatureVector) float64
}

// LinearModel 切片付き線形回帰モデル（読み込み後は不変）
type LinearModel struct {
	intercept    float64
	coefficients [NumFeatures]float64
}

// NewLinearModel 係数と特徴量名から線形モデルを構築する。
// 特徴量名がFeatureOrderと一致しない場合はエラー
func NewLinearModel(intercept float64, coefficients []float64, featureNames []string) (*LinearModel, error) {
	if len(coefficients) != NumFeatures {
		return nil, fmt.Errorf("係数の数が不正です: %d (期待値 %d)", len(coefficients), NumFeatures)
	}
	if len(featureNames) != NumFeatures {
		return nil, fmt.Errorf("特徴量名の数が不正です: %d (期待値 %d)", len(featureNames), NumFeatures)
	}
	for i, name := range featureNames {
		if name != FeatureOrder[i] {
			return nil, fmt.Errorf("特徴量の順序が学習時と一致しません: 位置%d は %q (期待値 %q)", i, name, FeatureOrder[i])
		}
	}
	m := &LinearModel{intercept: intercept}
	copy(m.coefficients[:], coefficients)
	return m, nil
}

// Predict 線形予測 intercept + Σ coef_i * x_i
func (m *LinearModel) Predict(x FeatureVector) float64 {
	y := m.intercept
	for i := 0; i < NumFeatures; i++ {
		y += m.coefficients[i] * x[i]
	}
	return y
}

// Intercept 切片
func (m *LinearModel) Intercept() float64 { return m.intercept }

// Coefficients FeatureOrder順の係数
func (m *LinearModel) Coefficients() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, m.coefficients[:])
	return out
}

// FitLinearRegression 最小二乗法で切片付き線形回帰を当てはめる（QR分解）
func FitLinearRegression(X []FeatureVector, y []float64) (*LinearModel, error) {
	n := len(y)
	if len(X) != n {
		return nil, fmt.Errorf("説明変数と目的変数の行数が一致しません: %d != %d", len(X), n)
	}
	cols := NumFeatures + 1
	if n < cols {
		return nil, fmt.Errorf("学習データが不足しています: %d行 (最低%d行)", n, cols)
	}

	a := mat.NewDense(n, cols, nil)
	for i, row := range X {
		a.Set(i, 0, 1)
		for j := 0; j < NumFeatures; j++ {
			a.Set(i, j+1, row[j])
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(a)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, b); err != nil {
		return nil, fmt.Errorf("最小二乗解の計算に失敗しました: %w", err)
	}

	coefs := make([]float64, NumFeatures)
	for j := 0; j < NumFeatures; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}
	return NewLinearModel(beta.AtVec(0), coefs, FeatureOrder[:])
}
