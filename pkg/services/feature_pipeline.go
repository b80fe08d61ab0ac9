package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"revenue-prediction-api/pkg/models"
)

// dateLayouts 日付は日-月-年の順で解釈する（ISO形式のみ例外的に許可）
var dateLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2006-01-02",
}

// FeaturePipeline 生レコードから固定順序の特徴量ベクトルを作る。
// 学習と推論の両方で同じ計算（EffectivePrice, BuildFeatureVector）を使う
type FeaturePipeline struct {
	clock          Clock
	productEncoder *LabelEncoder
	segmentEncoder *LabelEncoder
}

// NewFeaturePipeline 新しい特徴量パイプラインを作成。clockがnilならSystemClock
func NewFeaturePipeline(clock Clock, productEncoder, segmentEncoder *LabelEncoder) *FeaturePipeline {
	if clock == nil {
		clock = SystemClock{}
	}
	return &FeaturePipeline{
		clock:          clock,
		productEncoder: productEncoder,
		segmentEncoder: segmentEncoder,
	}
}

// EffectivePrice 割引後価格 Price × (1 − Discount/100)。割引100%は0
func EffectivePrice(price, discount float64) float64 {
	if discount == 100 {
		return 0
	}
	return price * (1 - discount/100)
}

// BuildFeatureVector FeatureOrder順にベクトルを組み立てる
func BuildFeatureVector(effectivePrice, discount, marketingSpend float64, day, month int) FeatureVector {
	return FeatureVector{effectivePrice, discount, marketingSpend, float64(day), float64(month)}
}

// ParseDayFirstDate 日-月-年形式の日付をパースする
func ParseDayFirstDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Transform レコードを検証し、特徴量ベクトルと正規化済み入力を返す
func (p *FeaturePipeline) Transform(record models.RawRecord) (FeatureVector, models.NormalizedInput, error) {
	var in models.NormalizedInput

	for _, field := range models.RequiredFields {
		if v, ok := record[field]; !ok || v == nil {
			return FeatureVector{}, in, missingField(field)
		}
	}

	var err error
	if in.ProductCategory, err = stringField(record, models.FieldProductCategory); err != nil {
		return FeatureVector{}, in, err
	}
	if in.Price, err = numberField(record, models.FieldPrice); err != nil {
		return FeatureVector{}, in, err
	}
	if in.Discount, err = numberField(record, models.FieldDiscount); err != nil {
		return FeatureVector{}, in, err
	}
	if in.CustomerSegment, err = stringField(record, models.FieldCustomerSegment); err != nil {
		return FeatureVector{}, in, err
	}
	if in.MarketingSpend, err = numberField(record, models.FieldMarketingSpend); err != nil {
		return FeatureVector{}, in, err
	}

	if in.Price < 0 {
		return FeatureVector{}, in, invalidField(models.FieldPrice, "Price must be non-negative")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return FeatureVector{}, in, invalidField(models.FieldDiscount, "Discount must be between 0 and 100")
	}
	if in.MarketingSpend < 0 {
		return FeatureVector{}, in, invalidField(models.FieldMarketingSpend, "Marketing_Spend must be non-negative")
	}

	if p.productEncoder != nil {
		if in.ProductCategoryCode, err = p.productEncoder.Transform(in.ProductCategory); err != nil {
			return FeatureVector{}, in, err
		}
	}
	if p.segmentEncoder != nil {
		if in.CustomerSegmentCode, err = p.segmentEncoder.Transform(in.CustomerSegment); err != nil {
			return FeatureVector{}, in, err
		}
	}

	if err := p.resolveCalendar(record, &in); err != nil {
		return FeatureVector{}, in, err
	}

	in.EffectivePrice = EffectivePrice(in.Price, in.Discount)
	return BuildFeatureVector(in.EffectivePrice, in.Discount, in.MarketingSpend, in.Day, in.Month), in, nil
}

// resolveCalendar Day/Month → Date → 現在日付 の優先順で日付特徴量を決める
func (p *FeaturePipeline) resolveCalendar(record models.RawRecord, in *models.NormalizedInput) error {
	// nullは未指定として扱う
	hasDay := record[models.FieldDay] != nil
	hasMonth := record[models.FieldMonth] != nil
	switch {
	case hasDay && hasMonth:
		day, err := intField(record, models.FieldDay, 1, 31)
		if err != nil {
			return err
		}
		month, err := intField(record, models.FieldMonth, 1, 12)
		if err != nil {
			return err
		}
		// 閏年で組み立て、2月29日は許可する
		if d := time.Date(2000, time.Month(month), day, 0, 0, 0, 0, time.UTC); d.Day() != day {
			return invalidField(models.FieldDay, "Day %d does not exist in month %d", day, month)
		}
		in.Day, in.Month, in.DateSource = day, month, models.DateSourceExplicit
		return nil
	case hasDay:
		return missingField(models.FieldMonth)
	case hasMonth:
		return missingField(models.FieldDay)
	}

	if raw, ok := record[models.FieldDate].(string); ok {
		if t, ok := ParseDayFirstDate(raw); ok {
			in.Day, in.Month = t.Day(), int(t.Month())
			in.Date = t.Format("02-01-2006")
			in.DateSource = models.DateSourceDate
			return nil
		}
	}

	now := p.clock.Now()
	in.Day, in.Month, in.DateSource = now.Day(), int(now.Month()), models.DateSourceClock
	return nil
}

func stringField(record models.RawRecord, field string) (string, error) {
	s, ok := record[field].(string)
	if !ok {
		return "", invalidField(field, "%s must be a string", field)
	}
	if strings.TrimSpace(s) == "" {
		return "", invalidField(field, "%s must not be empty", field)
	}
	return s, nil
}

func numberField(record models.RawRecord, field string) (float64, error) {
	f, ok := toFloat(record[field])
	if !ok {
		return 0, invalidField(field, "%s must be a number", field)
	}
	return f, nil
}

func intField(record models.RawRecord, field string, min, max int) (int, error) {
	f, ok := toFloat(record[field])
	if !ok || f != math.Trunc(f) {
		return 0, invalidField(field, "%s must be an integer", field)
	}
	if f < float64(min) || f > float64(max) {
		return 0, invalidField(field, "%s must be between %d and %d", field, min, max)
	}
	return int(f), nil
}

// toFloat JSON数値・数値文字列をfloat64に変換する。NaN/Infは不可
func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
