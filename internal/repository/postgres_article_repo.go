package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

const articleColumns = `id, title, content, category, image, author, author_id`

// List は全記事を作成順（ID昇順）で返す。
func (r *PostgresArticleRepo) List(ctx context.Context) ([]model.Article, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}
	return articles, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id model.ID) (*model.Article, error) {
	n, err := id.Int64()
	if err != nil {
		return nil, nil
	}

	a, err := scanArticle(r.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, n,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create は記事を作成し、採番したIDを設定する。
func (r *PostgresArticleRepo) Create(ctx context.Context, a *model.Article) error {
	authorID, err := nullableID(a.AuthorID)
	if err != nil {
		return err
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO articles (title, content, category, image, author, author_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.Title, a.Content, string(a.Category), a.Image, a.Author, authorID,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	a.ID = model.IDFromInt(id)
	return nil
}

// Update は記事の編集可能フィールドを置き換え、更新後の内容を a に反映する。
func (r *PostgresArticleRepo) Update(ctx context.Context, a *model.Article) error {
	n, err := a.ID.Int64()
	if err != nil {
		return ErrNotFound
	}

	updated, err := scanArticle(r.db.QueryRowContext(ctx,
		`UPDATE articles
		 SET title = $2, content = $3, category = $4, image = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+articleColumns,
		n, a.Title, a.Content, string(a.Category), a.Image,
	))
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	*a = *updated
	return nil
}

// Delete は記事を削除する。
func (r *PostgresArticleRepo) Delete(ctx context.Context, id model.ID) error {
	n, err := id.Int64()
	if err != nil {
		return ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, n)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*model.Article, error) {
	var (
		a        model.Article
		id       int64
		category string
		authorID sql.NullInt64
	)
	err := row.Scan(&id, &a.Title, &a.Content, &category, &a.Image, &a.Author, &authorID)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	a.ID = model.IDFromInt(id)
	a.Category = model.Category(category)
	if authorID.Valid {
		a.AuthorID = model.IDFromInt(authorID.Int64)
	}
	return &a, nil
}

func nullableID(id model.ID) (sql.NullInt64, error) {
	if id.IsZero() {
		return sql.NullInt64{}, nil
	}
	n, err := id.Int64()
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("invalid numeric id %q: %w", id, err)
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

var _ ArticleRepository = (*PostgresArticleRepo)(nil)
