package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TheLion102009/lioncraft-wiki/internal/middleware"
)

// HealthChecker はヘルスチェック時に依存先の疎通を確認する。*sql.DB が実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	AuthRateLimiter   *middleware.RateLimiter
	Metrics           middleware.HTTPMetrics
	MetricsHandler    http.Handler

	// nilの場合（インメモリ構成）は常に正常を返す
	HealthChecker HealthChecker

	ArticleService ArticleServiceInterface
	AuthService    AuthServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS
//
// ログインと登録にはIPごとのレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	articleHandler := NewArticleHandler(deps.ArticleService, logger)
	authHandler := NewAuthHandler(deps.AuthService, logger)

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/wiki/articles", func(r chi.Router) {
		r.Get("/", articleHandler.List)
		r.Post("/", articleHandler.Create)
		r.Put("/{id}", articleHandler.Update)
		r.Delete("/{id}", articleHandler.Delete)
	})

	r.Group(func(r chi.Router) {
		if deps.AuthRateLimiter != nil {
			r.Use(deps.AuthRateLimiter.Middleware())
		}
		r.Post("/api/login", authHandler.Login)
		r.Post("/api/register", authHandler.Register)
	})

	return r
}

// healthHandler は依存先への疎通を確認し、結果をJSONで返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Warn("health check failed", slog.String("error", err.Error()))
				middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
