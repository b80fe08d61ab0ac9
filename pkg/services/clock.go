package services

import "time"

// Clock 現在時刻の取得元。日付未指定時のDay/Month補完に使う
type Clock interface {
	Now() time.Time
}

// SystemClock システム時刻を返す
type SystemClock struct{}

// Now 現在時刻
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock 常に同じ時刻を返す（テスト・再現用）
type FixedClock struct {
	T time.Time
}

// Now 固定時刻
func (c FixedClock) Now() time.Time { return c.T }
