package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/TheLion102009/lioncraft-wiki/internal/auth"
	"github.com/TheLion102009/lioncraft-wiki/internal/config"
	"github.com/TheLion102009/lioncraft-wiki/internal/database"
	"github.com/TheLion102009/lioncraft-wiki/internal/handler"
	"github.com/TheLion102009/lioncraft-wiki/internal/metrics"
	"github.com/TheLion102009/lioncraft-wiki/internal/middleware"
	"github.com/TheLion102009/lioncraft-wiki/internal/repository"
	"github.com/TheLion102009/lioncraft-wiki/internal/wiki"
)

// server は参照ストアサーバーのハンドラーと、終了時に解放するリソースをまとめる。
type server struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	db      *sql.DB
}

// newServer は全依存関係をワイヤリングしたサーバーを構築する。
// DATABASE_URL が未設定の場合はインメモリリポジトリを使う。
func newServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*server, error) {
	srv := &server{}

	// 1. リポジトリの初期化
	var (
		articleRepo repository.ArticleRepository
		userRepo    repository.UserRepository
		health      handler.HealthChecker
	)
	if cfg.UseDatabase() {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Ping(ctx, db, 5*time.Second); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("database connection established")

		srv.db = db
		health = db
		articleRepo = repository.NewPostgresArticleRepo(db)
		userRepo = repository.NewPostgresUserRepo(db)
	} else {
		log.Warn("DATABASE_URL is not set; using in-memory repositories")
		articleRepo = repository.NewMemoryArticleRepo()
		userRepo = repository.NewMemoryUserRepo()
	}

	// 2. ドメインサービスの初期化
	authService := auth.NewService(userRepo, log.With(slog.String("component", "auth")))
	wikiService := wiki.NewService(articleRepo, authService, log.With(slog.String("component", "wiki")))

	// 3. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewServerCollector(reg)

	// 4. ルーターの構築
	srv.limiter = middleware.NewRateLimiter("auth", middleware.PerMinute(cfg.RateLimitAuth))
	srv.handler = handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		AuthRateLimiter:   srv.limiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		HealthChecker:     health,
		ArticleService:    wikiService,
		AuthService:       authService,
	})
	return srv, nil
}

// Close はレート制限のクリーンアップを止め、DB接続を閉じる。
func (s *server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
