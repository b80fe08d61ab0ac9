package handler

import (
	"net/http"
	"sync"

	config "revenue-prediction-api/configs"
	"revenue-prediction-api/pkg/handlers"
	"revenue-prediction-api/pkg/logger"
	"revenue-prediction-api/pkg/services"

	"github.com/gin-gonic/gin"
)

var (
	app  *gin.Engine
	once sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
func setupApp() *gin.Engine {
	once.Do(func() {
		// .envファイルはデプロイ先の環境変数設定から読み込まれるため、ここではgodotenvを呼び出しません。
		cfg := config.LoadConfig()
		zl := logger.NewLoggerOrNop(cfg.LogLevel, cfg.Environment)
		gin.SetMode(gin.ReleaseMode)

		artifacts := services.LoadArtifactsOrWarn(services.ArtifactPaths{
			Model:          cfg.ModelPath(),
			ProductEncoder: cfg.ProductEncoderPath(),
			SegmentEncoder: cfg.SegmentEncoderPath(),
		}, zl)

		predictionService := services.NewPredictionService(artifacts, services.SystemClock{}, zl)
		monitoringService := services.NewMonitoringService(zl.Named("http"), services.SystemClock{})

		app = handlers.NewRouter(cfg, predictionService, monitoringService, zl)
	})
	return app
}

// Handler はサーバーレス環境からのすべてのリクエストを処理するエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	// Ginアプリケーションをセットアップ（初回のみ実行される）
	setupApp().ServeHTTP(w, r)
}
