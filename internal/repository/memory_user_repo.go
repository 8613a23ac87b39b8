package repository

import (
	"context"
	"sync"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// MemoryUserRepo はプロセス内にユーザーを保持するリポジトリ。
type MemoryUserRepo struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[model.ID]model.User
	byUsername map[string]model.ID
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		nextID:     1,
		users:      make(map[model.ID]model.User),
		byUsername: make(map[string]model.ID),
	}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id model.ID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByUsername はユーザー名でユーザーを検索する。大文字小文字は区別する。
func (r *MemoryUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, nil
	}
	u := r.users[id]
	return &u, nil
}

// Create はユーザーを作成し、採番したIDを設定する。
func (r *MemoryUserRepo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[u.Username]; exists {
		return ErrDuplicateUsername
	}
	u.ID = model.IDFromInt(r.nextID)
	r.nextID++
	r.users[u.ID] = *u
	r.byUsername[u.Username] = u.ID
	return nil
}

var _ UserRepository = (*MemoryUserRepo)(nil)
