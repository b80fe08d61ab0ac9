package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Port               string
	Environment        string
	LogLevel           string
	APIVersion         string
	ModelDir           string
	ModelFile          string
	ProductEncoderFile string
	SegmentEncoderFile string
	DataPath           string
	AllowedOrigins     []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", "5000"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		APIVersion:         getEnv("API_VERSION", "1.0"),
		ModelDir:           getEnv("MODEL_DIR", "models"),
		ModelFile:          getEnv("MODEL_FILE", "revenue_model.json"),
		ProductEncoderFile: getEnv("LE_PRODUCT_FILE", "le_product.json"),
		SegmentEncoderFile: getEnv("LE_SEGMENT_FILE", "le_segment.json"),
		DataPath:           getEnv("DATA_PATH", filepath.Join("data", "Ecommerce_Sales_Prediction_Dataset.csv")),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// ModelPath 回帰モデルのアーティファクトパス
func (c *Config) ModelPath() string {
	return filepath.Join(c.ModelDir, c.ModelFile)
}

// ProductEncoderPath 商品カテゴリエンコーダーのアーティファクトパス
func (c *Config) ProductEncoderPath() string {
	return filepath.Join(c.ModelDir, c.ProductEncoderFile)
}

// SegmentEncoderPath 顧客セグメントエンコーダーのアーティファクトパス
func (c *Config) SegmentEncoderPath() string {
	return filepath.Join(c.ModelDir, c.SegmentEncoderFile)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList カンマ区切りの値を空要素を除いて分割する
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
