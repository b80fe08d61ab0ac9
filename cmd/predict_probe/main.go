package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

// 稼働中のサーバーに対して予測APIを叩き、結果をそのまま表示するデバッグ用ツール
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	baseURL := flag.String("url", "http://localhost:5000", "APIのベースURL")
	batch := flag.Bool("batch", false, "バッチ予測エンドポイントを呼び出す")
	flag.Parse()

	record := map[string]interface{}{
		"Product_Category": "Electronics",
		"Price":            500,
		"Discount":         10,
		"Customer_Segment": "Regular",
		"Marketing_Spend":  1000,
		"Date":             "15-06-2024",
	}

	path := "/predict"
	var body interface{} = record
	if *batch {
		second := map[string]interface{}{
			"Product_Category": "Books",
			"Price":            20,
			"Discount":         100,
			"Customer_Segment": "Premium",
			"Marketing_Spend":  50,
			"Day":              1,
			"Month":            1,
		}
		path = "/predict/batch"
		body = map[string]interface{}{"records": []interface{}{record, second}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("FATAL: リクエストボディの作成に失敗しました: %v", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	// --- ヘルスチェック ---
	if err := show(httpClient, http.MethodGet, strings.TrimSuffix(*baseURL, "/")+"/health", nil); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// --- 予測リクエスト ---
	fmt.Printf("\nリクエストボディ: %s\n", payload)
	if err := show(httpClient, http.MethodPost, strings.TrimSuffix(*baseURL, "/")+path, payload); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func show(client *http.Client, method, url string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	fmt.Printf("=== %s %s ===\n", method, url)
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエストの送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスの読み込みに失敗しました: %w", err)
	}
	fmt.Printf("ステータス: %s (%v)\n", resp.Status, time.Since(start).Round(time.Millisecond))
	if id := resp.Header.Get("X-Request-ID"); id != "" {
		fmt.Printf("X-Request-ID: %s\n", id)
	}
	fmt.Printf("レスポンス: %s\n", respBody)
	return nil
}
