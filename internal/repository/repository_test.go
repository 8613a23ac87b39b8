package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// openTestDB は TEST_DATABASE_URL が設定されている場合のみ、
// マイグレーション済みのデータベースを空にして返す。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE articles, users RESTART IDENTITY CASCADE`); err != nil {
		t.Skipf("テーブルを初期化できません（マイグレーション未適用？）: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type repoFactory func(t *testing.T) (ArticleRepository, UserRepository)

func factories() map[string]repoFactory {
	return map[string]repoFactory{
		"memory": func(t *testing.T) (ArticleRepository, UserRepository) {
			return NewMemoryArticleRepo(), NewMemoryUserRepo()
		},
		"postgres": func(t *testing.T) (ArticleRepository, UserRepository) {
			db := openTestDB(t)
			return NewPostgresArticleRepo(db), NewPostgresUserRepo(db)
		},
	}
}

func newArticle(title string, authorID model.ID) *model.Article {
	return &model.Article{
		Title:    title,
		Content:  "Inhalt von " + title,
		Category: model.CategoryGuides,
		Author:   "admin",
		AuthorID: authorID,
	}
}

func TestArticleRepository_CRUD(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			articles, users := factory(t)

			author := &model.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", Role: model.RoleOperator}
			if err := users.Create(ctx, author); err != nil {
				t.Fatalf("ユーザー作成に失敗: %v", err)
			}

			first := newArticle("Erste", author.ID)
			second := newArticle("Zweite", author.ID)
			for _, a := range []*model.Article{first, second} {
				if err := articles.Create(ctx, a); err != nil {
					t.Fatalf("記事作成に失敗: %v", err)
				}
			}
			if first.ID.IsZero() || first.ID == second.ID {
				t.Fatalf("IDが採番されていない: %s, %s", first.ID, second.ID)
			}

			list, err := articles.List(ctx)
			if err != nil {
				t.Fatalf("List に失敗: %v", err)
			}
			if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
				t.Errorf("List = %+v, want 作成順の2件", list)
			}
			if list[0].AuthorID != author.ID {
				t.Errorf("AuthorID = %s, want %s", list[0].AuthorID, author.ID)
			}

			upd := &model.Article{ID: first.ID, Title: "Geändert", Content: "Neu", Category: model.CategoryEvents, Image: "https://example.com/a.png"}
			if err := articles.Update(ctx, upd); err != nil {
				t.Fatalf("Update に失敗: %v", err)
			}
			got, err := articles.FindByID(ctx, first.ID)
			if err != nil || got == nil {
				t.Fatalf("FindByID = %v, %v", got, err)
			}
			if got.Title != "Geändert" || got.Category != model.CategoryEvents || got.Image != "https://example.com/a.png" {
				t.Errorf("更新が反映されていない: %+v", got)
			}
			if got.Author != "admin" {
				t.Errorf("更新で作成者が変わった: %q", got.Author)
			}

			if err := articles.Delete(ctx, first.ID); err != nil {
				t.Fatalf("Delete に失敗: %v", err)
			}
			if err := articles.Delete(ctx, first.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("2回目の Delete err = %v, want ErrNotFound", err)
			}
			if got, _ := articles.FindByID(ctx, first.ID); got != nil {
				t.Errorf("削除した記事が取得できた: %+v", got)
			}
			if err := articles.Update(ctx, &model.Article{ID: first.ID, Title: "x", Content: "y", Category: model.CategoryOther}); !errors.Is(err, ErrNotFound) {
				t.Errorf("削除済み記事の Update err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestArticleRepository_UnknownID(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			articles, _ := factory(t)
			got, err := articles.FindByID(context.Background(), "kein-id")
			if err != nil || got != nil {
				t.Errorf("FindByID = %v, %v, want nil, nil", got, err)
			}
			if err := articles.Delete(context.Background(), "999"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestArticleRepository_EmptyList(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			articles, _ := factory(t)
			list, err := articles.List(context.Background())
			if err != nil {
				t.Fatalf("List に失敗: %v", err)
			}
			if list == nil || len(list) != 0 {
				t.Errorf("List = %#v, want empty non-nil slice", list)
			}
		})
	}
}

func TestUserRepository(t *testing.T) {
	for name, factory := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, users := factory(t)

			u := &model.User{Username: "steve", Email: "steve@example.com", PasswordHash: "hash", Role: model.RoleOperator}
			if err := users.Create(ctx, u); err != nil {
				t.Fatalf("Create に失敗: %v", err)
			}

			dup := &model.User{Username: "steve", Email: "other@example.com", PasswordHash: "hash", Role: model.RoleOperator}
			if err := users.Create(ctx, dup); !errors.Is(err, ErrDuplicateUsername) {
				t.Errorf("重複ユーザー名の Create err = %v, want ErrDuplicateUsername", err)
			}

			byName, err := users.FindByUsername(ctx, "steve")
			if err != nil || byName == nil || byName.ID != u.ID {
				t.Fatalf("FindByUsername = %+v, %v", byName, err)
			}
			if byName.PasswordHash != "hash" || byName.Role != model.RoleOperator {
				t.Errorf("FindByUsername = %+v", byName)
			}

			byID, err := users.FindByID(ctx, u.ID)
			if err != nil || byID == nil || byID.Username != "steve" {
				t.Errorf("FindByID = %+v, %v", byID, err)
			}

			if missing, err := users.FindByUsername(ctx, "alex"); err != nil || missing != nil {
				t.Errorf("FindByUsername(alex) = %+v, %v, want nil, nil", missing, err)
			}
		})
	}
}

func TestMemoryArticleRepo_IDsNotReused(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryArticleRepo()
	a := newArticle("A", "")
	_ = repo.Create(ctx, a)
	_ = repo.Delete(ctx, a.ID)
	b := newArticle("B", "")
	_ = repo.Create(ctx, b)
	if a.ID == b.ID {
		t.Errorf("削除したID %s が再利用された", a.ID)
	}
}
