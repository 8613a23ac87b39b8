// Package metrics はPrometheusメトリクスの収集と公開を提供する。
// クライアント側のストアAPI呼び出しと、参照ストアサーバーのHTTPリクエストを別々に計測する。
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob はCLIがPushgatewayへ送信するときのジョブ名。
const PushJob = "lioncraft_wiki_cli"

// ClientCollector はストアAPIクライアント側のメトリクスを収集する。
// wikiapi.MetricsRecorder と articles.RefreshRecorder を実装する。
type ClientCollector struct {
	apiCalls       *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	refreshes      prometheus.Counter
	staleDiscarded prometheus.Counter
}

// NewClientCollector はClientCollectorを生成し、指定されたレジストリに登録する。
func NewClientCollector(reg prometheus.Registerer) *ClientCollector {
	c := &ClientCollector{
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lioncraft_wiki_api_calls_total",
			Help: "ストアAPI呼び出しの合計数（操作・結果別）",
		}, []string{"operation", "outcome"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lioncraft_wiki_api_call_duration_seconds",
			Help:    "ストアAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lioncraft_wiki_collection_refresh_total",
			Help: "記事コレクションの全件再読み込みの合計数",
		}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lioncraft_wiki_stale_responses_discarded_total",
			Help: "古い世代のため破棄されたレスポンスの合計数",
		}),
	}
	reg.MustRegister(c.apiCalls, c.apiLatency, c.refreshes, c.staleDiscarded)
	return c
}

// RecordAPICall はストアAPI呼び出しの結果を記録する。
// outcome は success, rejected, connection_error のいずれか。
func (c *ClientCollector) RecordAPICall(operation, outcome string, duration time.Duration) {
	c.apiCalls.WithLabelValues(operation, outcome).Inc()
	c.apiLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRefresh はコレクションの再読み込みを記録する。
func (c *ClientCollector) RecordRefresh() {
	c.refreshes.Inc()
}

// RecordStaleDiscarded は古い世代のレスポンスを破棄したことを記録する。
func (c *ClientCollector) RecordStaleDiscarded() {
	c.staleDiscarded.Inc()
}

// ServerCollector は参照ストアサーバーのHTTPメトリクスを収集する。
// middleware.HTTPMetrics を実装する。
type ServerCollector struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// NewServerCollector はServerCollectorを生成し、指定されたレジストリに登録する。
func NewServerCollector(reg prometheus.Registerer) *ServerCollector {
	c := &ServerCollector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lioncraft_wiki_http_requests_total",
			Help: "ストアサーバーが処理したHTTPリクエスト数（メソッド・ルート・ステータス別）",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lioncraft_wiki_http_request_duration_seconds",
			Help:    "ストアサーバーのHTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lioncraft_wiki_http_requests_in_flight",
			Help: "処理中のHTTPリクエスト数",
		}),
	}
	reg.MustRegister(c.httpRequests, c.httpDuration, c.httpInFlight)
	return c
}

// RecordHTTPRequest はサーバーが処理したHTTPリクエストを記録する。
func (c *ServerCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncInFlight は処理中リクエスト数を1増やす。
func (c *ServerCollector) IncInFlight() {
	c.httpInFlight.Inc()
}

// DecInFlight は処理中リクエスト数を1減らす。
func (c *ServerCollector) DecInFlight() {
	c.httpInFlight.Dec()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Push は収集したメトリクスをPushgatewayへ送信する。
// 1回で終了するCLIのように、スクレイプされる前にプロセスが終わる場合に使う。
func Push(ctx context.Context, gatewayURL string, gatherer prometheus.Gatherer) error {
	if err := push.New(gatewayURL, PushJob).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
