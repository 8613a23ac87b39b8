package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"github.com/TheLion102009/lioncraft-wiki/internal/auth"
	"github.com/TheLion102009/lioncraft-wiki/internal/metrics"
	"github.com/TheLion102009/lioncraft-wiki/internal/middleware"
	"github.com/TheLion102009/lioncraft-wiki/internal/repository"
	"github.com/TheLion102009/lioncraft-wiki/internal/wiki"
)

type stubHealthChecker struct {
	err error
}

func (s *stubHealthChecker) PingContext(ctx context.Context) error { return s.err }

// newTestRouter はインメモリリポジトリと実サービスで構成したルーターを返す。
func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) (http.Handler, *prometheus.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authService := auth.NewService(repository.NewMemoryUserRepo(), logger)
	authService.SetHashCost(bcrypt.MinCost)
	wikiService := wiki.NewService(repository.NewMemoryArticleRepo(), authService, logger)

	reg := prometheus.NewRegistry()
	collector := metrics.NewServerCollector(reg)

	router := NewRouter(&RouterDeps{
		Logger:            logger,
		CORSAllowedOrigin: "http://localhost:3000",
		AuthRateLimiter:   limiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		ArticleService:    wikiService,
		AuthService:       authService,
	})
	return router, reg
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.10:40000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_ArticleLifecycle(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := serve(router, http.MethodPost, "/api/register", `{"username":"admin","email":"admin@lioncraft.de","password":"secret"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodPost, "/api/login", `{"username":"admin","password":"secret"}`)
	login := decodeEnvelope(t, w)
	if !login.Success || login.User == nil {
		t.Fatalf("login body = %s", w.Body.String())
	}

	createBody := `{"title":"Server Rules","content":"Be nice","category":"Regeln","image":"","authorId":` + login.User.ID.String() + `}`
	w = serve(router, http.MethodPost, "/api/wiki/articles", createBody)
	created := decodeEnvelope(t, w)
	if w.Code != http.StatusCreated || created.Article == nil {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	if created.Article.Author != "admin" {
		t.Errorf("author = %q, want admin", created.Article.Author)
	}
	id := created.Article.ID.String()

	w = serve(router, http.MethodPut, "/api/wiki/articles/"+id, `{"title":"Server Rules v2","content":"Be nicer","category":"Regeln","image":""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodGet, "/api/wiki/articles", "")
	list := decodeEnvelope(t, w)
	if len(list.Articles) != 1 || list.Articles[0].Title != "Server Rules v2" {
		t.Fatalf("list = %+v", list.Articles)
	}
	if list.Articles[0].Author != "admin" {
		t.Errorf("更新後に作成者が失われた: %q", list.Articles[0].Author)
	}

	w = serve(router, http.MethodDelete, "/api/wiki/articles/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = serve(router, http.MethodDelete, "/api/wiki/articles/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("2回目の delete status = %d, want 404", w.Code)
	}
}

func TestRouter_CreateWithUnknownAuthor_Rejected(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := serve(router, http.MethodPost, "/api/wiki/articles", `{"title":"T","content":"C","category":"Regeln","authorId":42}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if body := decodeEnvelope(t, w); body.Success {
		t.Error("success = true, want false")
	}
}

func TestRouter_LoginRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter("auth", middleware.RateLimiterConfig{
		Rate:            0.01,
		Burst:           2,
		CleanupInterval: time.Minute,
	})
	defer limiter.Stop()
	router, _ := newTestRouter(t, limiter)

	for i := 0; i < 2; i++ {
		w := serve(router, http.MethodPost, "/api/login", `{"username":"x","password":"y"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("request %d: status = %d, want 401", i, w.Code)
		}
	}
	w := serve(router, http.MethodPost, "/api/login", `{"username":"x","password":"y"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	// 記事の一覧はレート制限の対象外
	if w := serve(router, http.MethodGet, "/api/wiki/articles", ""); w.Code != http.StatusOK {
		t.Errorf("list status = %d, want 200", w.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	if w := serve(router, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("インメモリ構成の status = %d, want 200", w.Code)
	}

	down := NewRouter(&RouterDeps{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		HealthChecker: &stubHealthChecker{err: errors.New("connection refused")},
	})
	if w := serve(down, http.MethodGet, "/health", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("DB停止時の status = %d, want 503", w.Code)
	}
}

func TestRouter_MetricsUseRoutePattern(t *testing.T) {
	router, reg := newTestRouter(t, nil)

	serve(router, http.MethodDelete, "/api/wiki/articles/12", "")

	w := serve(router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `route="/api/wiki/articles/{id}"`) {
		t.Errorf("ルートパターンのラベルがない:\n%s", w.Body.String())
	}
	if n := testutil.CollectAndCount(reg, "lioncraft_wiki_http_requests_total"); n == 0 {
		t.Error("lioncraft_wiki_http_requests_total が記録されていない")
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := serve(router, http.MethodOptions, "/api/wiki/articles/1", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := serve(router, http.MethodGet, "/api/unknown", "")
	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 404 or 405", w.Code)
	}
}
