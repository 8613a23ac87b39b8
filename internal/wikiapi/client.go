// Package wikiapi はWikiストアのHTTP APIを呼び出すトランスポートを提供する。
// リクエストの組み立てとレスポンスの解釈のみを担当し、状態は持たない。
package wikiapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

const (
	// DefaultBaseURL はストアAPIの既定のベースURL。
	DefaultBaseURL = "http://localhost:5000"
	// maxResponseSize はレスポンスボディの読み取り上限。
	maxResponseSize = 10 << 20

	articlesPath = "/api/wiki/articles"
	loginPath    = "/api/login"
	registerPath = "/api/register"

	userAgent = "lioncraft-wiki/1.0"
)

// 操作名。ログとメトリクスのラベルに使う。
const (
	OpListArticles  = "list_articles"
	OpCreateArticle = "create_article"
	OpUpdateArticle = "update_article"
	OpDeleteArticle = "delete_article"
	OpLogin         = "login"
	OpRegister      = "register"
)

// 操作ごとの通信失敗時の表示文言。
const (
	msgSaveFailed   = "Fehler beim Speichern!"
	msgDeleteFailed = "Fehler beim Löschen!"
	msgLoadFailed   = "Fehler beim Laden der Artikel!"
)

// MetricsRecorder はAPI呼び出しの結果を記録するインターフェース。
type MetricsRecorder interface {
	RecordAPICall(operation, outcome string, duration time.Duration)
}

// Client はWikiストアAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	metrics    MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合は DefaultBaseURL を使う。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// SetMetrics はAPI呼び出しのメトリクス記録先を設定する。
func (c *Client) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope はストアの全レスポンスに共通する形式。
// success が false の場合は HTTP ステータスに関係なく業務エラーとして扱う。
type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Articles []model.Article `json:"articles,omitempty"`
	Article  *model.Article  `json:"article,omitempty"`
	User     *model.Identity `json:"user,omitempty"`
}

// articleRequest は記事の作成・更新リクエストボディ。
// 更新時も編集可能フィールドはすべて送信する（全置換）。
type articleRequest struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Category model.Category `json:"category"`
	Image    string         `json:"image"`
	AuthorID model.ID       `json:"authorId,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ArticleResult は作成・更新の結果。
// Article はストアが返さなかった場合 nil になりうる。
type ArticleResult struct {
	Article *model.Article
	Message string
}

// LoginResult はログインの結果。
type LoginResult struct {
	User    *model.Identity
	Message string
}

// ListArticles は全記事を取得する。順序はストアが返した順のまま。
func (c *Client) ListArticles(ctx context.Context) ([]model.Article, error) {
	var env envelope
	status, err := c.do(ctx, OpListArticles, http.MethodGet, articlesPath, nil, &env)
	if err != nil {
		return nil, model.NewConnectionError(msgLoadFailed, err)
	}
	if !env.Success {
		return nil, classifyFailure(OpListArticles, status, "", env.Message)
	}
	if env.Articles == nil {
		return []model.Article{}, nil
	}
	return env.Articles, nil
}

// CreateArticle は記事を作成する。IDと作成者名はストアが決定する。
func (c *Client) CreateArticle(ctx context.Context, draft model.Draft, authorID model.ID) (*ArticleResult, error) {
	body := articleRequest{
		Title:    draft.Title,
		Content:  draft.Content,
		Category: draft.Category,
		Image:    draft.Image,
		AuthorID: authorID,
	}
	var env envelope
	status, err := c.do(ctx, OpCreateArticle, http.MethodPost, articlesPath, body, &env)
	if err != nil {
		return nil, model.NewConnectionError(msgSaveFailed, err)
	}
	if !env.Success {
		return nil, classifyFailure(OpCreateArticle, status, "", env.Message)
	}
	return &ArticleResult{Article: env.Article, Message: env.Message}, nil
}

// UpdateArticle は記事を全置換で更新する。
func (c *Client) UpdateArticle(ctx context.Context, id model.ID, draft model.Draft) (*ArticleResult, error) {
	body := articleRequest{
		Title:    draft.Title,
		Content:  draft.Content,
		Category: draft.Category,
		Image:    draft.Image,
	}
	var env envelope
	status, err := c.do(ctx, OpUpdateArticle, http.MethodPut, articlePath(id), body, &env)
	if err != nil {
		return nil, model.NewConnectionError(msgSaveFailed, err)
	}
	if !env.Success {
		return nil, classifyFailure(OpUpdateArticle, status, id, env.Message)
	}
	return &ArticleResult{Article: env.Article, Message: env.Message}, nil
}

// DeleteArticle は記事を削除し、ストアのメッセージを返す。
// 削除済みのIDは NOT_FOUND として報告される。
func (c *Client) DeleteArticle(ctx context.Context, id model.ID) (string, error) {
	var env envelope
	status, err := c.do(ctx, OpDeleteArticle, http.MethodDelete, articlePath(id), nil, &env)
	if err != nil {
		return "", model.NewConnectionError(msgDeleteFailed, err)
	}
	if !env.Success {
		return "", classifyFailure(OpDeleteArticle, status, id, env.Message)
	}
	return env.Message, nil
}

// Login は認証を行い、ログインユーザーを返す。
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var env envelope
	status, err := c.do(ctx, OpLogin, http.MethodPost, loginPath, loginRequest{Username: username, Password: password}, &env)
	if err != nil {
		return nil, model.NewConnectionError("", err)
	}
	if !env.Success {
		return nil, classifyFailure(OpLogin, status, "", env.Message)
	}
	if env.User == nil || env.User.ID.IsZero() {
		return nil, model.NewConnectionError("", fmt.Errorf("login response has no user"))
	}
	return &LoginResult{User: env.User, Message: env.Message}, nil
}

// Register はアカウントを登録し、ストアのメッセージを返す。ログインは行わない。
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var env envelope
	status, err := c.do(ctx, OpRegister, http.MethodPost, registerPath, registerRequest{Username: username, Email: email, Password: password}, &env)
	if err != nil {
		return "", model.NewConnectionError("", err)
	}
	if !env.Success {
		return "", classifyFailure(OpRegister, status, "", env.Message)
	}
	return env.Message, nil
}

// classifyFailure は success:false のレスポンスを操作ごとのエラーに変換する。
func classifyFailure(op string, status int, id model.ID, message string) error {
	if status == http.StatusTooManyRequests {
		return model.NewRateLimitedError()
	}
	// サーバー側の障害は入力内容の問題として扱わない
	if status >= http.StatusInternalServerError {
		return model.NewRequestFailedError(message)
	}
	switch op {
	case OpLogin:
		return model.NewInvalidCredentialsError(message)
	case OpRegister:
		return model.NewRegistrationError(message)
	case OpCreateArticle:
		return model.NewValidationError(fallback(message, "Artikel konnte nicht gespeichert werden."))
	case OpUpdateArticle:
		if status == http.StatusNotFound {
			return model.NewNotFoundError(id, message)
		}
		return model.NewValidationError(fallback(message, "Artikel konnte nicht gespeichert werden."))
	case OpDeleteArticle:
		if status == http.StatusNotFound {
			return model.NewNotFoundError(id, message)
		}
		return model.NewRequestFailedError(message)
	default:
		return model.NewRequestFailedError(message)
	}
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func articlePath(id model.ID) string {
	return articlesPath + "/" + url.PathEscape(id.String())
}

// do はHTTPリクエストを実行し、レスポンスをenvelopeにデコードする。
// 通信失敗・デコード失敗の場合のみエラーを返す。success:false の判定は呼び出し元が行う。
func (c *Client) do(ctx context.Context, op, method, path string, reqBody any, out *envelope) (int, error) {
	start := time.Now()
	status, err := c.roundTrip(ctx, op, method, path, reqBody, out)

	outcome := "success"
	switch {
	case err != nil:
		outcome = "connection_error"
	case !out.Success:
		outcome = "rejected"
	}
	if c.metrics != nil {
		c.metrics.RecordAPICall(op, outcome, time.Since(start))
	}
	return status, err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, reqBody any, out *envelope) (int, error) {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return 0, fmt.Errorf("リクエストJSONの生成に失敗しました: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ストアAPIの呼び出しに失敗しました",
			slog.String("operation", op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("operation", op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return resp.StatusCode, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("ストアAPIのレスポンスのパースに失敗しました",
			slog.String("operation", op),
			slog.String("request_id", requestID),
			slog.Int("http_status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
		return resp.StatusCode, fmt.Errorf("レスポンスJSONのパースに失敗しました (status %d): %w", resp.StatusCode, err)
	}

	level := slog.LevelDebug
	if !out.Success {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "store api call",
		slog.String("operation", op),
		slog.String("request_id", requestID),
		slog.Int("http_status", resp.StatusCode),
		slog.Bool("success", out.Success),
	)
	return resp.StatusCode, nil
}
