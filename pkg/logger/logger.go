// Package logger zapロガーの生成
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 環境とログレベルに応じたzapロガーを生成する。
// development環境ではコンソール形式、それ以外ではJSON形式で出力する。
func NewLogger(level, environment string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("無効なログレベルです: %q: %w", level, err)
	}

	var cfg zap.Config
	if environment == "development" || environment == "test" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// NewLoggerOrNop NewLoggerの失敗時にNopロガーへフォールバックする版
func NewLoggerOrNop(level, environment string) *zap.Logger {
	l, err := NewLogger(level, environment)
	if err != nil {
		return zap.NewNop()
	}
	return l
}
