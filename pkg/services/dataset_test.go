package services

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetCSVRoundTrip(t *testing.T) {
	rows := GenerateSyntheticDataset(25, 3)
	path := filepath.Join(t.TempDir(), "sales.csv")

	require.NoError(t, WriteDatasetCSV(path, rows))
	loaded, err := LoadDataset(path)
	require.NoError(t, err)

	if diff := cmp.Diff(rows, loaded); diff != "" {
		t.Errorf("CSVの読み書きで値が変わりました (-want +got):\n%s", diff)
	}
}

func TestDatasetXLSXRoundTrip(t *testing.T) {
	rows := GenerateSyntheticDataset(25, 3)
	path := filepath.Join(t.TempDir(), "sales.xlsx")

	require.NoError(t, WriteDatasetXLSX(path, rows))
	loaded, err := LoadDataset(path)
	require.NoError(t, err)

	if diff := cmp.Diff(rows, loaded); diff != "" {
		t.Errorf("Excelの読み書きで値が変わりました (-want +got):\n%s", diff)
	}
}

func TestLoadDataset_UnsupportedExtension(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "sales.json"))
	assert.Error(t, err)
}

func TestParseDatasetRows(t *testing.T) {
	t.Run("列名は大文字小文字を区別せず、空行は読み飛ばす", func(t *testing.T) {
		rows := [][]string{
			{"\ufeffdate", "PRODUCT_CATEGORY", "Price", "Discount", "Customer_Segment", "Marketing_Spend", "Units_Sold"},
			{"15-06-2024", "Books", "20.5", "10", "Premium", "300", "12"},
			{"", "", "", "", "", "", ""},
			{"01-01-2023", "Toys", "15", "0", "Regular", "100", "3"},
		}
		got, err := ParseDatasetRows(rows)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Books", got[0].ProductCategory)
		assert.Equal(t, 15, got[0].Date.Day())
		assert.Equal(t, 20.5, got[0].Price)
		assert.Equal(t, 3.0, got[1].UnitsSold)
	})

	t.Run("必要な列が無い", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Product_Category", "Price"},
			{"15-06-2024", "Books", "20"},
		}
		_, err := ParseDatasetRows(rows)
		assert.ErrorContains(t, err, "Units_Sold")
	})

	t.Run("数値でない値", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Product_Category", "Price", "Discount", "Customer_Segment", "Marketing_Spend", "Units_Sold"},
			{"15-06-2024", "Books", "abc", "10", "Premium", "300", "12"},
		}
		_, err := ParseDatasetRows(rows)
		assert.ErrorContains(t, err, "2行目")
	})

	t.Run("日付を解釈できない", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Product_Category", "Price", "Discount", "Customer_Segment", "Marketing_Spend", "Units_Sold"},
			{"June 15", "Books", "20", "10", "Premium", "300", "12"},
		}
		_, err := ParseDatasetRows(rows)
		assert.Error(t, err)
	})

	t.Run("データ行が無い", func(t *testing.T) {
		_, err := ParseDatasetRows([][]string{{"Date"}})
		assert.Error(t, err)
	})
}
