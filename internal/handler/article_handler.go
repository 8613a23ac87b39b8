// Package handler は記事ストアサーバーのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TheLion102009/lioncraft-wiki/internal/middleware"
	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// 成功時に返すメッセージ。クライアントはこれを通知としてそのまま表示する。
const (
	msgArticleCreated = "Artikel erstellt"
	msgArticleUpdated = "Artikel aktualisiert"
	msgArticleDeleted = "Artikel gelöscht"
	msgNotFound       = "Artikel nicht gefunden"
)

// ArticleServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
// wiki.Service が実装する。
type ArticleServiceInterface interface {
	List(ctx context.Context) ([]model.Article, error)
	Create(ctx context.Context, draft model.Draft, authorID model.ID) (*model.Article, error)
	Update(ctx context.Context, id model.ID, draft model.Draft) (*model.Article, error)
	Delete(ctx context.Context, id model.ID) error
}

// ArticleHandler は記事のCRUDを扱うHTTPハンドラー。
// 変更系のルートも認証を要求しない。権限の確認はクライアント側の責務。
type ArticleHandler struct {
	service ArticleServiceInterface
	logger  *slog.Logger
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface, logger *slog.Logger) *ArticleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleHandler{service: service, logger: logger}
}

// articleRequest は作成・更新リクエストのボディ。authorId は作成時のみ使う。
type articleRequest struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Category model.Category `json:"category"`
	Image    string         `json:"image"`
	AuthorID model.ID       `json:"authorId"`
}

func (req *articleRequest) draft() model.Draft {
	return model.Draft{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Image:    req.Image,
	}
}

type listResponse struct {
	Success  bool            `json:"success"`
	Articles []model.Article `json:"articles"`
}

type articleResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Article *model.Article `json:"article,omitempty"`
}

// List は全記事を返す。
// GET /api/wiki/articles
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	if articles == nil {
		articles = []model.Article{}
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse{Success: true, Articles: articles})
}

// Create は記事を作成する。
// POST /api/wiki/articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.service.Create(r.Context(), req.draft(), req.AuthorID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, articleResponse{
		Success: true,
		Message: msgArticleCreated,
		Article: article,
	})
}

// Update は記事の編集可能フィールドをすべて置き換える。
// PUT /api/wiki/articles/{id}
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	article, err := h.service.Update(r.Context(), id, req.draft())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, articleResponse{
		Success: true,
		Message: msgArticleUpdated,
		Article: article,
	})
}

// Delete は記事を削除する。
// DELETE /api/wiki/articles/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, articleResponse{Success: true, Message: msgArticleDeleted})
}

// articleID はパスパラメータから記事IDを取り出す。
// 数値でないIDはどの記事にも一致しないため、その場で404を返す。
func articleID(w http.ResponseWriter, r *http.Request) (model.ID, bool) {
	id := model.ID(chi.URLParam(r, "id"))
	if _, err := id.Int64(); err != nil {
		middleware.WriteFailure(w, model.NewNotFoundError(id, msgNotFound))
		return "", false
	}
	return id, true
}
