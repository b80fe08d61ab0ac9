package models

import "time"

// 入力レコードのフィールド名（学習データの列名と一致させる）
const (
	FieldProductCategory = "Product_Category"
	FieldPrice           = "Price"
	FieldDiscount        = "Discount"
	FieldCustomerSegment = "Customer_Segment"
	FieldMarketingSpend  = "Marketing_Spend"
	FieldDate            = "Date"
	FieldDay             = "Day"
	FieldMonth           = "Month"
)

// RequiredFields 必須フィールド（検証はこの順序で行う）
var RequiredFields = []string{
	FieldProductCategory,
	FieldPrice,
	FieldDiscount,
	FieldCustomerSegment,
	FieldMarketingSpend,
}

// DateSource 日付特徴量の取得元
const (
	DateSourceExplicit = "explicit" // Day/Monthが直接指定された
	DateSourceDate     = "date"     // Dateをパースした
	DateSourceClock    = "clock"    // 現在日付で補完した
)

// RawRecord リクエストで受け取る購買レコード（1リクエストの間だけ生存する）
type RawRecord map[string]interface{}

// NormalizedInput パース済みの入力エコー
type NormalizedInput struct {
	ProductCategory     string  `json:"Product_Category"`
	ProductCategoryCode int     `json:"Product_Category_Code"`
	Price               float64 `json:"Price"`
	Discount            float64 `json:"Discount"`
	CustomerSegment     string  `json:"Customer_Segment"`
	CustomerSegmentCode int     `json:"Customer_Segment_Code"`
	MarketingSpend      float64 `json:"Marketing_Spend"`
	EffectivePrice      float64 `json:"Effective_Price"`
	Day                 int     `json:"Day"`
	Month               int     `json:"Month"`
	Date                string  `json:"Date,omitempty"`
	DateSource          string  `json:"date_source"`
}

// PredictionResult 1レコード分の予測結果
type PredictionResult struct {
	PredictedValue float64 `json:"predicted_value"`
	// PredictedRevenue フロントエンド互換のため同じ値を返す
	PredictedRevenue float64         `json:"predicted_revenue"`
	Input            NormalizedInput `json:"input"`
}

// PredictionResponse POST /predict のレスポンス
type PredictionResponse struct {
	Status string `json:"status"`
	PredictionResult
}

// BatchPredictionRequest POST /predict/batch のリクエスト
type BatchPredictionRequest struct {
	Records []RawRecord `json:"records" binding:"required"`
}

// BatchPredictionResponse POST /predict/batch のレスポンス
type BatchPredictionResponse struct {
	Status       string             `json:"status"`
	TotalRecords int                `json:"total_records"`
	Predictions  []PredictionResult `json:"predictions"`
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error       string `json:"error"`
	Field       string `json:"field,omitempty"`
	RecordIndex *int   `json:"record_index,omitempty"`
}

// ServiceInfo GET / のレスポンス
type ServiceInfo struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded bool   `json:"model_loaded"`
}

// StatusInfo GET /status のレスポンス
type StatusInfo struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	APIVersion  string `json:"api_version"`
}

// TrainingMetrics ホールドアウトでの評価指標
type TrainingMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// TrainingSummary 学習実行のメタデータ（モデルと一緒に保存される）
type TrainingSummary struct {
	TrainedAt  time.Time       `json:"trained_at"`
	TotalRows  int             `json:"total_rows"`
	TrainRows  int             `json:"train_rows"`
	TestRows   int             `json:"test_rows"`
	TestSize   float64         `json:"test_size"`
	RandomSeed int64           `json:"random_seed"`
	Target     string          `json:"target"`
	Metrics    TrainingMetrics `json:"metrics"`
}

// ModelInfo GET /model/info のレスポンス
type ModelInfo struct {
	FeatureOrder      []string           `json:"feature_order"`
	Intercept         float64            `json:"intercept"`
	Coefficients      map[string]float64 `json:"coefficients"`
	ProductCategories []string           `json:"product_categories"`
	CustomerSegments  []string           `json:"customer_segments"`
	Training          *TrainingSummary   `json:"training,omitempty"`
}
