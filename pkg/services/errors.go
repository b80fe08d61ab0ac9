package services

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable モデルまたはエンコーダーが読み込まれていない
var ErrServiceUnavailable = errors.New("Model not loaded")

// ValidationError 入力の欠落・型不正・範囲外
type ValidationError struct {
	Field   string
	Message string
}

// Error メッセージはフィールド名を含む形で組み立てる
func (e *ValidationError) Error() string {
	return e.Message
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Missing field: " + field}
}

func invalidField(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UnknownCategoryError 学習時に存在しなかったカテゴリ値
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s: unknown category %q", e.Field, e.Value)
}

// BatchRecordError バッチ中のどのレコードで失敗したかを保持する
type BatchRecordError struct {
	Index int
	Err   error
}

func (e *BatchRecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *BatchRecordError) Unwrap() error {
	return e.Err
}

// ErrorField エラーが指すフィールド名を返す（該当しなければ空文字）
func ErrorField(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	var ue *UnknownCategoryError
	if errors.As(err, &ue) {
		return ue.Field
	}
	return ""
}

// IsClientError 呼び出し側の入力に起因するエラーか
func IsClientError(err error) bool {
	var ve *ValidationError
	var ue *UnknownCategoryError
	return errors.As(err, &ve) || errors.As(err, &ue)
}
