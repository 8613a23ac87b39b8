// Package wiki は記事ストアサーバーの記事操作のビジネスロジックを提供する。
package wiki

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/repository"
)

// AuthorResolver は作成者IDからユーザーを解決する。auth.Service が実装する。
type AuthorResolver interface {
	ResolveAuthor(ctx context.Context, id model.ID) (*model.User, error)
}

// Service は記事のCRUDを提供する。
// 同じ記事への同時更新は後勝ちで、競合検出やタイトル重複の確認は行わない。
type Service struct {
	articles repository.ArticleRepository
	authors  AuthorResolver
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(articles repository.ArticleRepository, authors AuthorResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{articles: articles, authors: authors, logger: logger}
}

// List は全記事を作成順で返す。
func (s *Service) List(ctx context.Context) ([]model.Article, error) {
	articles, err := s.articles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

// Create は記事を作成する。作成者名は authorID から解決し、
// 存在しないユーザーの場合は VALIDATION_ERROR を返す。
func (s *Service) Create(ctx context.Context, draft model.Draft, authorID model.ID) (*model.Article, error) {
	if err := validate(&draft); err != nil {
		return nil, err
	}
	if authorID.IsZero() {
		return nil, model.NewValidationError("Autor ist erforderlich.")
	}
	author, err := s.authors.ResolveAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, model.NewValidationError("Unbekannter Autor.")
	}

	a := &model.Article{
		Title:    draft.Title,
		Content:  draft.Content,
		Category: draft.Category,
		Image:    draft.Image,
		Author:   author.Username,
		AuthorID: author.ID,
	}
	if err := s.articles.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	s.logger.Info("article created",
		slog.String("article_id", a.ID.String()),
		slog.String("author_id", author.ID.String()),
		slog.String("category", string(a.Category)),
	)
	return a, nil
}

// Update は記事の編集可能フィールドをすべて置き換える。
func (s *Service) Update(ctx context.Context, id model.ID, draft model.Draft) (*model.Article, error) {
	if err := validate(&draft); err != nil {
		return nil, err
	}

	a := &model.Article{
		ID:       id,
		Title:    draft.Title,
		Content:  draft.Content,
		Category: draft.Category,
		Image:    draft.Image,
	}
	if err := s.articles.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewNotFoundError(id, "Artikel nicht gefunden")
		}
		return nil, fmt.Errorf("failed to update article: %w", err)
	}

	s.logger.Info("article updated", slog.String("article_id", id.String()))
	return a, nil
}

// Delete は記事を削除する。存在しない場合は NOT_FOUND を返す。
func (s *Service) Delete(ctx context.Context, id model.ID) error {
	if err := s.articles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewNotFoundError(id, "Artikel nicht gefunden")
		}
		return fmt.Errorf("failed to delete article: %w", err)
	}
	s.logger.Info("article deleted", slog.String("article_id", id.String()))
	return nil
}

func validate(d *model.Draft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	img := strings.TrimSpace(d.Image)
	if img == "" {
		return nil
	}
	u, err := url.Parse(img)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.NewInvalidImageURLError("nur http(s) erlaubt")
	}
	return nil
}
