package repository

import (
	"context"
	"sync"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// MemoryArticleRepo はプロセス内に記事を保持するリポジトリ。
// IDは1からの連番で、削除されたIDは再利用しない。
type MemoryArticleRepo struct {
	mu       sync.RWMutex
	nextID   int64
	order    []model.ID
	articles map[model.ID]model.Article
}

// NewMemoryArticleRepo はMemoryArticleRepoを生成する。
func NewMemoryArticleRepo() *MemoryArticleRepo {
	return &MemoryArticleRepo{
		nextID:   1,
		articles: make(map[model.ID]model.Article),
	}
}

// List は全記事を作成順で返す。
func (r *MemoryArticleRepo) List(ctx context.Context) ([]model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Article, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.articles[id])
	}
	return out, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *MemoryArticleRepo) FindByID(ctx context.Context, id model.ID) (*model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.articles[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// Create は記事を作成し、採番したIDを設定する。
func (r *MemoryArticleRepo) Create(ctx context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = model.IDFromInt(r.nextID)
	r.nextID++
	r.order = append(r.order, a.ID)
	r.articles[a.ID] = *a
	return nil
}

// Update は記事の編集可能フィールドを置き換える。
func (r *MemoryArticleRepo) Update(ctx context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.articles[a.ID]
	if !ok {
		return ErrNotFound
	}
	current.Title = a.Title
	current.Content = a.Content
	current.Category = a.Category
	current.Image = a.Image
	r.articles[a.ID] = current
	*a = current
	return nil
}

// Delete は記事を削除する。
func (r *MemoryArticleRepo) Delete(ctx context.Context, id model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[id]; !ok {
		return ErrNotFound
	}
	delete(r.articles, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ ArticleRepository = (*MemoryArticleRepo)(nil)
