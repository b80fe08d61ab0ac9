package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newMonitoredRouter(svc *MonitoringService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(svc.LoggingMiddleware())
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/bad", func(c *gin.Context) { c.JSON(http.StatusBadRequest, gin.H{"error": "bad"}) })
	r.GET("/boom", func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"}) })
	r.GET("/api/v1/monitoring/logs", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	return r
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	svc := NewMonitoringService(nil, nil)
	r := newMonitoredRouter(svc)

	// ヘッダーが無ければ生成する
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ok", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	// 受け取ったIDはそのまま返す
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestLoggingMiddleware_LogLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := NewMonitoringService(zap.New(core), nil)
	r := newMonitoredRouter(svc)

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		req, _ := http.NewRequest("GET", path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
}

func TestGetDashboardData(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	svc := NewMonitoringService(nil, FixedClock{T: now})
	r := newMonitoredRouter(svc)

	for _, path := range []string{"/ok", "/ok", "/bad", "/boom", "/api/v1/monitoring/logs"} {
		req, _ := http.NewRequest("GET", path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	// 期間外の古いログは集計しない
	svc.LogRequest(LogEntry{Timestamp: now.Add(-48 * time.Hour), Path: "/ok", Method: "GET", StatusCode: 200})

	data := svc.GetDashboardData(24)

	// モニタリングAPI自体のリクエストは記録しない
	assert.Equal(t, map[string]int{"/ok": 2, "/bad": 1, "/boom": 1}, data.Endpoints)
	require.Len(t, data.RequestsOverTime, 24)
	assert.Equal(t, "12:00", data.RequestsOverTime[23]["time"])
	assert.Equal(t, 4, data.RequestsOverTime[23]["requests"])
	assert.Equal(t, 2, data.StatusCodes[0]["value"])
	assert.Equal(t, 1, data.StatusCodes[1]["value"])
	assert.Equal(t, 1, data.StatusCodes[2]["value"])
	require.Len(t, data.RecentErrors, 1)
	assert.Equal(t, "/boom", data.RecentErrors[0].Path)
	require.Len(t, data.AvgResponseTimes, 3)
	assert.Equal(t, "/bad", data.AvgResponseTimes[0]["endpoint"])
}

func TestLogRequest_Capped(t *testing.T) {
	svc := NewMonitoringService(nil, nil)
	for i := 0; i < maxLogEntries+5; i++ {
		svc.LogRequest(LogEntry{StatusCode: i})
	}
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Len(t, svc.logs, maxLogEntries)
	assert.Equal(t, 5, svc.logs[0].StatusCode)
}
