package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id model.ID) (*model.User, error) {
	n, err := id.Int64()
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, `WHERE id = $1`, n)
}

// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, `WHERE username = $1`, username)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u    model.User
		id   int64
		role string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role FROM users `+where,
		arg,
	).Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &role)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	u.ID = model.IDFromInt(id)
	u.Role = model.Role(role)
	return &u, nil
}

// Create はユーザーを作成し、採番したIDを設定する。
func (r *PostgresUserRepo) Create(ctx context.Context, u *model.User) error {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		u.Username, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	u.ID = model.IDFromInt(id)
	return nil
}

var _ UserRepository = (*PostgresUserRepo)(nil)
