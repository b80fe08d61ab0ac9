package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"revenue-prediction-api/pkg/models"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// RevenueTarget 学習の目的変数名
const RevenueTarget = "Revenue"

// Artifacts 学習で作られ、起動時に一度だけ読み込まれる不変の成果物一式
type Artifacts struct {
	Model          Regressor
	ProductEncoder *LabelEncoder
	SegmentEncoder *LabelEncoder
	Training       *models.TrainingSummary
}

// ArtifactPaths 3つの成果物の保存先
type ArtifactPaths struct {
	Model          string
	ProductEncoder string
	SegmentEncoder string
}

// DefaultArtifactPaths ディレクトリ直下の標準ファイル名
func DefaultArtifactPaths(dir string) ArtifactPaths {
	return ArtifactPaths{
		Model:          filepath.Join(dir, "revenue_model.json"),
		ProductEncoder: filepath.Join(dir, "le_product.json"),
		SegmentEncoder: filepath.Join(dir, "le_segment.json"),
	}
}

type modelFile struct {
	Target       string                  `json:"target"`
	FeatureNames []string                `json:"feature_names"`
	Intercept    float64                 `json:"intercept"`
	Coefficients []float64               `json:"coefficients"`
	Training     *models.TrainingSummary `json:"training,omitempty"`
}

type encoderFile struct {
	Field   string   `json:"field"`
	Classes []string `json:"classes"`
}

// SaveArtifacts モデルと2つのエンコーダーをJSONで保存する
func SaveArtifacts(paths ArtifactPaths, a *Artifacts) error {
	lm, ok := a.Model.(*LinearModel)
	if !ok {
		return fmt.Errorf("保存できるのはLinearModelのみです: %T", a.Model)
	}
	if a.ProductEncoder == nil || a.SegmentEncoder == nil {
		return errors.New("エンコーダーが設定されていません")
	}

	mf := modelFile{
		Target:       RevenueTarget,
		FeatureNames: FeatureOrder[:],
		Intercept:    lm.Intercept(),
		Coefficients: lm.Coefficients(),
		Training:     a.Training,
	}
	if err := writeJSON(paths.Model, mf); err != nil {
		return err
	}
	if err := writeJSON(paths.ProductEncoder, encoderFile{Field: a.ProductEncoder.Field(), Classes: a.ProductEncoder.Classes()}); err != nil {
		return err
	}
	return writeJSON(paths.SegmentEncoder, encoderFile{Field: a.SegmentEncoder.Field(), Classes: a.SegmentEncoder.Classes()})
}

// LoadArtifacts 3つの成果物をすべて読み込む。どれか1つでも欠けていればエラー
func LoadArtifacts(paths ArtifactPaths) (*Artifacts, error) {
	var mf modelFile
	if err := readJSON(paths.Model, &mf); err != nil {
		return nil, err
	}
	if mf.Target != "" && mf.Target != RevenueTarget {
		return nil, fmt.Errorf("%s: 目的変数 %q には対応していません", paths.Model, mf.Target)
	}
	model, err := NewLinearModel(mf.Intercept, mf.Coefficients, mf.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", paths.Model, err)
	}

	product, err := loadEncoder(paths.ProductEncoder, models.FieldProductCategory)
	if err != nil {
		return nil, err
	}
	segment, err := loadEncoder(paths.SegmentEncoder, models.FieldCustomerSegment)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		Model:          model,
		ProductEncoder: product,
		SegmentEncoder: segment,
		Training:       mf.Training,
	}, nil
}

// LoadArtifactsOrWarn 読み込みに失敗した場合は警告ログを出してnilを返す。
// 成果物が無くてもサーバーは起動し、未準備状態として応答する
func LoadArtifactsOrWarn(paths ArtifactPaths, logger *zap.Logger) *Artifacts {
	if logger == nil {
		logger = zap.NewNop()
	}
	artifacts, err := LoadArtifacts(paths)
	if err != nil {
		logger.Warn("✗ Failed to load model artifacts; serving with model_loaded=false",
			zap.String("model", paths.Model),
			zap.String("le_product", paths.ProductEncoder),
			zap.String("le_segment", paths.SegmentEncoder),
			zap.Error(err),
		)
		return nil
	}
	logger.Info("✓ Revenue model loaded successfully", zap.String("model", paths.Model))
	return artifacts
}

func loadEncoder(path, field string) (*LabelEncoder, error) {
	var ef encoderFile
	if err := readJSON(path, &ef); err != nil {
		return nil, err
	}
	if ef.Field != "" && ef.Field != field {
		return nil, fmt.Errorf("%s: 列 %q のエンコーダーではありません (%q)", path, field, ef.Field)
	}
	enc, err := NewLabelEncoder(field, ef.Classes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return enc, nil
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%s のエンコードに失敗: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s の書き込みに失敗: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("成果物の読み込みに失敗: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s のデコードに失敗: %w", path, err)
	}
	return nil
}
