// Package repository は記事とユーザーの永続化を提供する。
// PostgreSQL実装と、DATABASE_URL 未設定時に使うインメモリ実装がある。
package repository

import (
	"context"
	"errors"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

var (
	// ErrNotFound は更新・削除対象が存在しないことを表す。
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername はユーザー名が既に使われていることを表す。
	ErrDuplicateUsername = errors.New("username already exists")
)

// ArticleRepository は記事の永続化インターフェース。
type ArticleRepository interface {
	// List は全記事を作成順で返す。
	List(ctx context.Context) ([]model.Article, error)

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id model.ID) (*model.Article, error)

	// Create は記事を作成し、採番したIDを a.ID に設定する。
	Create(ctx context.Context, a *model.Article) error

	// Update は記事の編集可能フィールドを置き換える。作成者は変更しない。
	// 存在しない場合は ErrNotFound を返す。
	Update(ctx context.Context, a *model.Article) error

	// Delete は記事を削除する。存在しない場合は ErrNotFound を返す。
	Delete(ctx context.Context, id model.ID) error
}

// UserRepository はユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id model.ID) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成し、採番したIDを u.ID に設定する。
	// ユーザー名が重複する場合は ErrDuplicateUsername を返す。
	Create(ctx context.Context, u *model.User) error
}
