package services

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"revenue-prediction-api/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// UnitsSoldColumn 販売数の列名
const UnitsSoldColumn = "Units_Sold"

// datasetColumns 学習データの列（この順でCSV/XLSXに書き出す）
var datasetColumns = []string{
	models.FieldDate,
	models.FieldProductCategory,
	models.FieldPrice,
	models.FieldDiscount,
	models.FieldCustomerSegment,
	models.FieldMarketingSpend,
	UnitsSoldColumn,
}

// SalesRow 学習データの1行
type SalesRow struct {
	Date            time.Time
	ProductCategory string
	Price           float64
	Discount        float64
	CustomerSegment string
	MarketingSpend  float64
	UnitsSold       float64
}

// LoadDataset 拡張子に応じてCSVまたはExcel(.xlsx)の学習データを読み込む
func LoadDataset(path string) ([]SalesRow, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("Excelファイルの読み込みに失敗しました: %w", err)
		}
		defer f.Close()
		rows, err = f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("Excelシートの行取得に失敗しました: %w", err)
		}
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("CSVファイルを開けません: %w", err)
		}
		defer file.Close()
		rows, err = csv.NewReader(file).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("CSVファイルの解析に失敗しました: %w", err)
		}
	default:
		return nil, fmt.Errorf("サポートされていないファイル形式です: %s (.csv または .xlsx)", path)
	}
	return ParseDatasetRows(rows)
}

// ParseDatasetRows ヘッダー行付きの表データをSalesRowに変換する
func ParseDatasetRows(rows [][]string) ([]SalesRow, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("ヘッダー行と少なくとも1行のデータが必要です")
	}

	header := rows[0]
	idx := make(map[string]int, len(datasetColumns))
	var missing []string
	for _, col := range datasetColumns {
		i := findColumn(header, col)
		if i == -1 {
			missing = append(missing, col)
			continue
		}
		idx[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("必要な列が見つかりませんでした: %s。ヘッダー: %v", strings.Join(missing, ", "), header)
	}

	out := make([]SalesRow, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlankRow(row) {
			continue
		}
		cell := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		num := func(col string) (float64, error) {
			v, err := strconv.ParseFloat(cell(col), 64)
			if err != nil {
				return 0, fmt.Errorf("%d行目: %s が数値ではありません: %q", line, col, cell(col))
			}
			return v, nil
		}

		date, ok := ParseDayFirstDate(cell(models.FieldDate))
		if !ok {
			return nil, fmt.Errorf("%d行目: Date を解析できません: %q", line, cell(models.FieldDate))
		}
		r := SalesRow{
			Date:            date,
			ProductCategory: cell(models.FieldProductCategory),
			CustomerSegment: cell(models.FieldCustomerSegment),
		}
		var err error
		if r.Price, err = num(models.FieldPrice); err != nil {
			return nil, err
		}
		if r.Discount, err = num(models.FieldDiscount); err != nil {
			return nil, err
		}
		if r.MarketingSpend, err = num(models.FieldMarketingSpend); err != nil {
			return nil, err
		}
		if r.UnitsSold, err = num(UnitsSoldColumn); err != nil {
			return nil, err
		}
		if r.ProductCategory == "" || r.CustomerSegment == "" {
			return nil, fmt.Errorf("%d行目: カテゴリ列が空です", line)
		}
		out = append(out, r)
	}
	return out, nil
}

// WriteDatasetCSV 学習データをCSVとして書き出す
func WriteDatasetCSV(path string, rows []SalesRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("CSVファイルの作成に失敗: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(datasetColumns); err != nil {
		return fmt.Errorf("ヘッダーの書き込みに失敗: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return fmt.Errorf("行の書き込みに失敗: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteDatasetXLSX 学習データをExcelファイルとして書き出す
func WriteDatasetXLSX(path string, rows []SalesRow) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(datasetColumns))
	for i, c := range datasetColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("ヘッダーの書き込みに失敗: %w", err)
	}
	for i, r := range rows {
		values := r.record()
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("%d行目の書き込みに失敗: %w", i+2, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗: %w", err)
	}
	return f.SaveAs(path)
}

// GenerateSyntheticDataset 固定シードで再現可能な合成データを生成する（テスト・デモ用）
func GenerateSyntheticDataset(n int, seed int64) []SalesRow {
	rng := rand.New(rand.NewSource(seed))
	categories := []string{"Books", "Clothing", "Electronics", "Home Appliances", "Toys"}
	segments := []string{"Occasional", "Premium", "Regular"}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]SalesRow, n)
	for i := range rows {
		price := 10 + rng.Float64()*990
		discount := float64(rng.Intn(51))
		spend := 100 + rng.Float64()*9900
		date := start.AddDate(0, 0, rng.Intn(730))
		units := 5 + spend/250 - discount*0.05 + float64(date.Month())*0.8 + rng.NormFloat64()*4
		if units < 0 {
			units = 0
		}
		rows[i] = SalesRow{
			Date:            date,
			ProductCategory: categories[rng.Intn(len(categories))],
			Price:           roundTo(price, 2),
			Discount:        discount,
			CustomerSegment: segments[rng.Intn(len(segments))],
			MarketingSpend:  roundTo(spend, 2),
			UnitsSold:       float64(int(units)),
		}
	}
	return rows
}

func (r SalesRow) record() []string {
	return []string{
		r.Date.Format("02-01-2006"),
		r.ProductCategory,
		strconv.FormatFloat(r.Price, 'f', -1, 64),
		strconv.FormatFloat(r.Discount, 'f', -1, 64),
		r.CustomerSegment,
		strconv.FormatFloat(r.MarketingSpend, 'f', -1, 64),
		strconv.FormatFloat(r.UnitsSold, 'f', -1, 64),
	}
}

// findColumn ヘッダーから列名を大文字小文字を区別せずに探す
func findColumn(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i
		}
	}
	return -1
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
