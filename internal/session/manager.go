// Package session はログイン中のユーザー（Identity）をプロセス内で保持し、
// 記事の変更操作を認可する。
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/wikiapi"
)

// Authenticator はストアの認証APIのインターフェース。
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*wikiapi.LoginResult, error)
	Register(ctx context.Context, username, email, password string) (string, error)
}

// RegisterInput は登録フォームの入力内容。
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Identity *model.Identity
	Notice   model.Notice
}

// Manager は現在のIdentityを保持するセッションマネージャー。
// グローバル変数ではなく、必要なコンポーネントに注入して使う。
type Manager struct {
	auth   Authenticator
	logger *slog.Logger

	mu       sync.Mutex
	current  *model.Identity
	epoch    uint64
	onLogout []func()
}

// NewManager はManagerを生成する。
func NewManager(auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		auth:   auth,
		logger: logger,
	}
}

// OnLogout はログアウト時に呼ばれるフックを登録する。
// 編集中の下書き破棄など、セッション終了に連動する処理に使う。
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// Login はストアで認証し、成功した場合にIdentityを保持する。
// 失敗時はIdentityを変更しない。応答待ちの間にログアウト等で状態が変わった場合、
// 結果は破棄され model.ErrStaleResult を返す。
func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, model.NewValidationError("Benutzername und Passwort sind erforderlich.")
	}

	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	res, err := m.auth.Login(ctx, username, password)
	if err != nil {
		m.logger.Warn("login failed",
			slog.String("username", username),
			slog.String("code", model.CodeOf(err)),
		)
		return nil, err
	}

	identity := *res.User
	if identity.Role == model.RoleAnonymous {
		identity.Role = model.RoleOperator
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logger.Info("discarding stale login response", slog.String("username", username))
		return nil, model.ErrStaleResult
	}
	m.current = &identity
	m.epoch++
	m.mu.Unlock()

	m.logger.Info("user logged in",
		slog.String("user_id", identity.ID.String()),
		slog.String("username", identity.Username),
	)

	out := identity
	return &LoginResult{Identity: &out, Notice: model.SuccessNotice(res.Message)}, nil
}

// Register はアカウントを登録する。パスワード確認の不一致はネットワーク呼び出し前に検出する。
// 登録後に自動ログインはしない。
func (m *Manager) Register(ctx context.Context, in RegisterInput) (model.Notice, error) {
	if in.Password != in.ConfirmPassword {
		return model.Notice{}, model.NewPasswordMismatchError()
	}
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return model.Notice{}, model.NewValidationError("Benutzername, E-Mail und Passwort sind erforderlich.")
	}

	msg, err := m.auth.Register(ctx, in.Username, in.Email, in.Password)
	if err != nil {
		m.logger.Warn("registration failed",
			slog.String("username", in.Username),
			slog.String("code", model.CodeOf(err)),
		)
		return model.Notice{}, err
	}

	m.logger.Info("user registered", slog.String("username", in.Username))
	return model.SuccessNotice(msg), nil
}

// Logout はIdentityを破棄し、登録済みのフックを無条件に呼び出す。
func (m *Manager) Logout() {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.epoch++
	hooks := make([]func(), len(m.onLogout))
	copy(hooks, m.onLogout)
	m.mu.Unlock()

	if prev != nil {
		m.logger.Info("user logged out", slog.String("user_id", prev.ID.String()))
	}
	for _, fn := range hooks {
		fn()
	}
}

// Current は現在のIdentityのコピーを返す。未ログインの場合はnil。
func (m *Manager) Current() *model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	id := *m.current
	return &id
}

// IsAuthenticated はログイン済みかどうかを返す。
func (m *Manager) IsAuthenticated() bool {
	return m.Current() != nil
}

// Require は変更操作の前提条件としてIdentityを要求する。
// 表示層は未ログイン時に変更操作を提示しないため、ここでの失敗は呼び出し側の不具合を意味する。
func (m *Manager) Require() (*model.Identity, error) {
	id := m.Current()
	if !id.IsOperator() {
		m.logger.Error("mutating operation attempted without identity")
		return nil, model.ErrNotAuthenticated
	}
	return id, nil
}
