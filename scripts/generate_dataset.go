//go:build ignore

package main

import (
	"flag"
	"log"
	"path/filepath"
	"strings"

	"revenue-prediction-api/pkg/services"
)

func main() {
	out := flag.String("out", filepath.Join("data", "Ecommerce_Sales_Prediction_Dataset.csv"), "出力先 (.csv または .xlsx)")
	rows := flag.Int("rows", 1000, "生成する行数")
	seed := flag.Int64("seed", services.DefaultRandomSeed, "乱数シード")
	flag.Parse()

	log.Println("🚀 合成データの生成を開始します...")
	data := services.GenerateSyntheticDataset(*rows, *seed)

	var err error
	if strings.EqualFold(filepath.Ext(*out), ".xlsx") {
		err = services.WriteDatasetXLSX(*out, data)
	} else {
		err = services.WriteDatasetCSV(*out, data)
	}
	if err != nil {
		log.Fatalf("❌ 書き込みに失敗しました: %v", err)
	}
	log.Printf("✅ %d行を %s に書き出しました", len(data), *out)
}
