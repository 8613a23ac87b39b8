// Package articles はリモートの記事コレクションに対するCRUDと、
// その唯一の正となるローカルコピーの保持を提供する。
package articles

import (
	"context"
	"log/slog"
	"sync"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/wikiapi"
)

// Transport はストアAPIのうち記事操作に関するインターフェース。
type Transport interface {
	ListArticles(ctx context.Context) ([]model.Article, error)
	CreateArticle(ctx context.Context, draft model.Draft, authorID model.ID) (*wikiapi.ArticleResult, error)
	UpdateArticle(ctx context.Context, id model.ID, draft model.Draft) (*wikiapi.ArticleResult, error)
	DeleteArticle(ctx context.Context, id model.ID) (string, error)
}

// Gate は変更操作の認可を行うインターフェース。session.Manager が実装する。
type Gate interface {
	Require() (*model.Identity, error)
}

// RefreshRecorder はコレクション再読み込みのメトリクス記録先。
type RefreshRecorder interface {
	RecordRefresh()
	RecordStaleDiscarded()
}

// MutationResult は作成・更新・削除の結果。
// 変更自体は成功したが直後の再読み込みに失敗した場合、RefreshErr に理由が入る。
type MutationResult struct {
	Article    *model.Article
	Notice     model.Notice
	RefreshErr error
}

// StoreClient は記事コレクションのクライアント。
// コレクションはストアが返した順序を保ったまま保持し、変更はすべて
// ストアへの往復と全件再読み込みで反映する（ローカルでの部分更新はしない）。
type StoreClient struct {
	transport Transport
	gate      Gate
	logger    *slog.Logger
	metrics   RefreshRecorder

	mu      sync.Mutex
	order   []model.ID
	byID    map[model.ID]model.Article
	issued  uint64 // 発行済みの再読み込み世代
	applied uint64 // 反映済みの最新世代
	loaded  bool
}

// NewStoreClient はStoreClientを生成する。
func NewStoreClient(transport Transport, gate Gate, logger *slog.Logger) *StoreClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreClient{
		transport: transport,
		gate:      gate,
		logger:    logger,
		byID:      make(map[model.ID]model.Article),
	}
}

// SetMetrics は再読み込みのメトリクス記録先を設定する。
func (s *StoreClient) SetMetrics(m RefreshRecorder) {
	s.metrics = m
}

// ListAll は全記事を取得してコレクションを丸ごと置き換える。冪等で再試行しても安全。
// 応答待ちの間に新しい世代の再読み込みが反映済みだった場合、古い応答は破棄して
// 反映済みのコレクションを返す。
func (s *StoreClient) ListAll(ctx context.Context) ([]model.Article, error) {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	fetched, err := s.transport.ListArticles(ctx)
	if err != nil {
		s.logger.Error("failed to load articles",
			slog.Uint64("generation", gen),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordRefresh()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen < s.applied {
		s.logger.Info("discarding stale article list",
			slog.Uint64("generation", gen),
			slog.Uint64("applied", s.applied),
		)
		if s.metrics != nil {
			s.metrics.RecordStaleDiscarded()
		}
		return s.snapshotLocked(), nil
	}

	order := make([]model.ID, 0, len(fetched))
	byID := make(map[model.ID]model.Article, len(fetched))
	for _, a := range fetched {
		if _, dup := byID[a.ID]; dup {
			s.logger.Warn("duplicate article id in store response", slog.String("article_id", a.ID.String()))
			continue
		}
		order = append(order, a.ID)
		byID[a.ID] = a
	}
	s.order = order
	s.byID = byID
	s.applied = gen
	s.loaded = true

	s.logger.Debug("articles loaded",
		slog.Int("count", len(order)),
		slog.Uint64("generation", gen),
	)
	return s.snapshotLocked(), nil
}

// Create は記事を作成する。IDと作成者名はストアが決定する。
// 成功後は全件再読み込みを行ってから戻る。
func (s *StoreClient) Create(ctx context.Context, draft model.Draft, authorID model.ID) (*MutationResult, error) {
	if _, err := s.gate.Require(); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	res, err := s.transport.CreateArticle(ctx, draft, authorID)
	if err != nil {
		s.logger.Warn("create article failed", slog.String("code", model.CodeOf(err)))
		return nil, err
	}

	out := &MutationResult{Article: res.Article, Notice: model.SuccessNotice(res.Message)}
	if res.Article != nil {
		s.logger.Info("article created",
			slog.String("article_id", res.Article.ID.String()),
			slog.String("author_id", authorID.String()),
		)
	}
	out.RefreshErr = s.refreshAfterMutation(ctx)
	return out, nil
}

// Update は記事を全置換で更新する。変更のないフィールドも再送する。
// 成功後は全件再読み込みを行ってから戻る。
func (s *StoreClient) Update(ctx context.Context, id model.ID, draft model.Draft) (*MutationResult, error) {
	if _, err := s.gate.Require(); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	res, err := s.transport.UpdateArticle(ctx, id, draft)
	if err != nil {
		s.logger.Warn("update article failed",
			slog.String("article_id", id.String()),
			slog.String("code", model.CodeOf(err)),
		)
		return nil, err
	}

	s.logger.Info("article updated", slog.String("article_id", id.String()))
	out := &MutationResult{Article: res.Article, Notice: model.SuccessNotice(res.Message)}
	out.RefreshErr = s.refreshAfterMutation(ctx)
	return out, nil
}

// Delete は記事を削除する。取り消しはできない。
// 削除済みのIDを再度削除した場合は NOT_FOUND を返す。
func (s *StoreClient) Delete(ctx context.Context, id model.ID) (*MutationResult, error) {
	if _, err := s.gate.Require(); err != nil {
		return nil, err
	}

	msg, err := s.transport.DeleteArticle(ctx, id)
	if err != nil {
		s.logger.Warn("delete article failed",
			slog.String("article_id", id.String()),
			slog.String("code", model.CodeOf(err)),
		)
		return nil, err
	}

	s.logger.Info("article deleted", slog.String("article_id", id.String()))
	out := &MutationResult{Notice: model.SuccessNotice(msg)}
	out.RefreshErr = s.refreshAfterMutation(ctx)
	return out, nil
}

func (s *StoreClient) refreshAfterMutation(ctx context.Context) error {
	if _, err := s.ListAll(ctx); err != nil {
		s.logger.Error("refresh after mutation failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Articles は現在のコレクションをストアの順序でコピーして返す。
func (s *StoreClient) Articles() []model.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get は指定IDの記事を返す。
func (s *StoreClient) Get(id model.ID) (model.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	return a, ok
}

// Contains は指定IDの記事がコレクションに含まれるかを返す。
func (s *StoreClient) Contains(id model.ID) bool {
	_, ok := s.Get(id)
	return ok
}

// Generation は反映済みの再読み込み世代を返す。一度も読み込んでいない場合は0。
func (s *StoreClient) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// Loaded は一度でも読み込みに成功したかを返す。
func (s *StoreClient) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *StoreClient) snapshotLocked() []model.Article {
	out := make([]model.Article, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
