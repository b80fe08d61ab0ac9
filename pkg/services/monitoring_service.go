package services

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader リクエストIDを返すヘッダー
const RequestIDHeader = "X-Request-ID"

// RequestIDKey gin.Contextに保存するリクエストIDのキー
const RequestIDKey = "request_id"

// maxLogEntries 保持するリクエストログの上限
const maxLogEntries = 10000

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	RequestID    string        `json:"request_id"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService はAPIのモニタリング機能を提供します。
type MonitoringService struct {
	logs   []LogEntry
	mu     sync.RWMutex
	clock  Clock
	logger *zap.Logger
}

// NewMonitoringService は新しいMonitoringServiceを生成します。
func NewMonitoringService(logger *zap.Logger, clock Clock) *MonitoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &MonitoringService{
		logs:   make([]LogEntry, 0),
		clock:  clock,
		logger: logger,
	}
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if over := len(s.logs) - maxLogEntries; over > 0 {
		s.logs = append(s.logs[:0:0], s.logs[over:]...)
	}
}

// LoggingMiddleware はリクエストIDの付与・ログ出力・メトリクス記録を行うGinミドルウェアです。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.clock.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		// 次のミドルウェア/ハンドラを実行
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		elapsed := s.clock.Now().Sub(start)

		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= 500:
			s.logger.Error("request", fields...)
		case status >= 400:
			s.logger.Warn("request", fields...)
		default:
			s.logger.Info("request", fields...)
		}

		// 除外するパスプレフィックス
		if strings.HasPrefix(path, "/api/v1/monitoring") || path == "/metrics" {
			return
		}

		s.LogRequest(LogEntry{
			Timestamp:    start,
			RequestID:    requestID,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   status,
			ResponseTime: elapsed,
		})
	}
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
}

// GetDashboardData は指定された期間のログを集計してダッシュボード用データを返します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now().UTC()
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filteredLogs := make([]LogEntry, 0)
	for _, log := range s.logs {
		if log.Timestamp.After(since) {
			filteredLogs = append(filteredLogs, log)
		}
	}

	// requestsOverTime の集計（過去から現在の順）
	hourlyBuckets := make(map[time.Time]int)
	for _, log := range filteredLogs {
		hourlyBuckets[log.Timestamp.UTC().Truncate(time.Hour)]++
	}
	requestsOverTime := make([]map[string]interface{}, periodHours)
	for i := 0; i < periodHours; i++ {
		bucket := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		requestsOverTime[i] = map[string]interface{}{
			"time":     bucket.Format("15:00"),
			"requests": hourlyBuckets[bucket],
		}
	}

	// endpoints と avgResponseTimes の集計
	endpoints := make(map[string]int)
	responseTimeSum := make(map[string]time.Duration)
	for _, log := range filteredLogs {
		endpoints[log.Path]++
		responseTimeSum[log.Path] += log.ResponseTime
	}
	paths := make([]string, 0, len(endpoints))
	for p := range endpoints {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	avgResponseTimes := make([]map[string]interface{}, 0, len(paths))
	for _, p := range paths {
		avg := responseTimeSum[p].Milliseconds() / int64(endpoints[p])
		avgResponseTimes = append(avgResponseTimes, map[string]interface{}{"endpoint": p, "responseTime": avg})
	}

	// statusCodes の集計
	var success, clientErr, serverErr int
	for _, log := range filteredLogs {
		switch {
		case log.StatusCode >= 200 && log.StatusCode < 300:
			success++
		case log.StatusCode >= 400 && log.StatusCode < 500:
			clientErr++
		case log.StatusCode >= 500:
			serverErr++
		}
	}
	statusCodes := []map[string]interface{}{
		{"name": "2xx Success", "value": success},
		{"name": "4xx Client Error", "value": clientErr},
		{"name": "5xx Server Error", "value": serverErr},
	}

	// recentErrors の集計（新しい順に最大10件）
	recentErrors := make([]LogEntry, 0)
	for i := len(filteredLogs) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filteredLogs[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filteredLogs[i])
		}
	}

	return DashboardData{
		RequestsOverTime: requestsOverTime,
		Endpoints:        endpoints,
		StatusCodes:      statusCodes,
		AvgResponseTimes: avgResponseTimes,
		RecentErrors:     recentErrors,
	}
}
