package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"revenue-prediction-api/pkg/models"
	"revenue-prediction-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ServiceName GET / で返すサービス名
const ServiceName = "Revenue Prediction API"

// PredictionHandler 売上予測APIのハンドラー
type PredictionHandler struct {
	service    *services.PredictionService
	apiVersion string
	logger     *zap.Logger
}

// NewPredictionHandler 新しい予測ハンドラーを作成
func NewPredictionHandler(service *services.PredictionService, apiVersion string, logger *zap.Logger) *PredictionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionHandler{
		service:    service,
		apiVersion: apiVersion,
		logger:     logger,
	}
}

// Home サービス名とモデルの読み込み状態
func (h *PredictionHandler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, models.ServiceInfo{
		Status:      "active",
		Service:     ServiceName,
		ModelLoaded: h.service.Ready(),
	})
}

// Status モデルの読み込み状態とAPIバージョン
func (h *PredictionHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusInfo{
		Status:      "active",
		ModelLoaded: h.service.Ready(),
		APIVersion:  h.apiVersion,
	})
}

// HealthCheck は外部のヘルスチェッカー（例: ロードバランサー）からのリクエストに応答します。
// モデル未読み込みでもプロセスは生きているので200を返す
func (h *PredictionHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model_loaded": h.service.Ready()})
}

// Predict 1レコードの売上予測
func (h *PredictionHandler) Predict(c *gin.Context) {
	if !h.service.Ready() {
		h.respondError(c, services.ErrServiceUnavailable)
		return
	}

	var record models.RawRecord
	if err := c.ShouldBindJSON(&record); err != nil || record == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Request body must be a JSON object"})
		return
	}

	result, err := h.service.PredictOne(record)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PredictionResponse{
		Status:           "success",
		PredictionResult: result,
	})
}

// PredictBatch 複数レコードの売上予測。{"records": [...]} と素の配列の両方を受け付ける
func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	if !h.service.Ready() {
		h.respondError(c, services.ErrServiceUnavailable)
		return
	}

	records, err := decodeBatchBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Request body must be {\"records\": [...]} or a JSON array: " + err.Error()})
		return
	}

	results, err := h.service.PredictBatch(records)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BatchPredictionResponse{
		Status:       "success",
		TotalRecords: len(results),
		Predictions:  results,
	})
}

// ModelInfo 読み込み済みモデルの係数・カテゴリ・学習時の評価指標
func (h *PredictionHandler) ModelInfo(c *gin.Context) {
	info, err := h.service.ModelInfo()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func decodeBatchBody(c *gin.Context) ([]models.RawRecord, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []models.RawRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var req models.BatchPredictionRequest
	if err := binding.JSON.BindBody(trimmed, &req); err != nil {
		return nil, err
	}
	return req.Records, nil
}

// respondError エラー種別をHTTPステータスに変換する
func (h *PredictionHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrServiceUnavailable) {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: services.ErrServiceUnavailable.Error()})
		return
	}

	if services.IsClientError(err) {
		resp := models.ErrorResponse{Error: err.Error(), Field: services.ErrorField(err)}
		var be *services.BatchRecordError
		if errors.As(err, &be) {
			idx := be.Index
			resp.RecordIndex = &idx
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	requestID, _ := c.Get(services.RequestIDKey)
	h.logger.Error("予測処理で予期しないエラーが発生しました",
		zap.Any("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
}
