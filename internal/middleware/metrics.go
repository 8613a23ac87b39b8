package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPMetrics はHTTPリクエストのメトリクス記録先。metrics.ServerCollector が実装する。
type HTTPMetrics interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	IncInFlight()
	DecInFlight()
}

// NewMetricsMiddleware はリクエスト数・処理時間・処理中リクエスト数を記録する。
// ラベルには実パスではなくchiのルートパターンを使い、カーディナリティを抑える。
func NewMetricsMiddleware(m HTTPMetrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.IncInFlight()
			defer m.DecInFlight()

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.RecordHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
		})
	}
}
