package services

import (
	"fmt"
	"sort"
)

// LabelEncoder カテゴリ文字列と連番コードの双方向マッピング。
// 学習時に一度だけ作成され、その後は変更されない。
type LabelEncoder struct {
	field   string
	classes []string
	index   map[string]int
}

// FitLabelEncoder 観測値から重複を除いてソートしたクラス一覧でエンコーダーを作る
func FitLabelEncoder(field string, values []string) (*LabelEncoder, error) {
	seen := make(map[string]struct{}, len(values))
	var classes []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(field, classes)
}

// NewLabelEncoder 保存済みのクラス一覧からエンコーダーを復元する
func NewLabelEncoder(field string, classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("%s: クラスが空です", field)
	}
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%s: クラス %q が重複しています", field, c)
		}
		index[c] = i
	}
	cp := make([]string, len(classes))
	copy(cp, classes)
	return &LabelEncoder{field: field, classes: cp, index: index}, nil
}

// Field 対象の列名
func (e *LabelEncoder) Field() string { return e.field }

// Classes クラス一覧のコピー（コード順）
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Transform カテゴリをコードに変換する。未知の値はUnknownCategoryError
func (e *LabelEncoder) Transform(value string) (int, error) {
	code, ok := e.index[value]
	if !ok {
		return 0, &UnknownCategoryError{Field: e.field, Value: value}
	}
	return code, nil
}

// InverseTransform コードをカテゴリに戻す
func (e *LabelEncoder) InverseTransform(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("%s: コード %d は範囲外です (0..%d)", e.field, code, len(e.classes)-1)
	}
	return e.classes[code], nil
}
