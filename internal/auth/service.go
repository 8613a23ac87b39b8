// Package auth は記事ストアサーバーのユーザー登録とログインを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/repository"
)

// msgInvalidCredentials はユーザー不在とパスワード不一致で共通のメッセージ。
const msgInvalidCredentials = "Ungültige Anmeldedaten"

// dummyHash はユーザーが存在しない場合にも比較を行うためのハッシュ。
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("lioncraft-wiki"), bcrypt.MinCost)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users    repository.UserRepository
	logger   *slog.Logger
	hashCost int
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
}

// SetHashCost はbcryptのコストを変更する。テストで MinCost を指定するために使う。
func (s *Service) SetHashCost(cost int) {
	s.hashCost = cost
}

// Register はユーザーを登録する。登録されたユーザーは記事を編集できるオペレーターになる。
// ユーザー名の重複は REGISTRATION_FAILED を返す。
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, model.NewValidationError("Benutzername, E-Mail und Passwort sind erforderlich.")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewRegistrationError("Ungültige E-Mail-Adresse")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleOperator,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			s.logger.Info("registration rejected: duplicate username", slog.String("username", username))
			return nil, model.NewRegistrationError("Benutzername bereits vergeben")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", username),
	)
	return user, nil
}

// Login はユーザー名とパスワードを検証する。
// ユーザーが存在しない場合もパスワード不一致と同じエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hash := dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || user == nil {
		s.logger.Info("login rejected", slog.String("username", username))
		return nil, model.NewInvalidCredentialsError(msgInvalidCredentials)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID.String()))
	return user, nil
}

// ResolveAuthor は記事の作成者IDからユーザーを取得する。存在しない場合はnilを返す。
func (s *Service) ResolveAuthor(ctx context.Context, id model.ID) (*model.User, error) {
	if id.IsZero() {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve author: %w", err)
	}
	return user, nil
}
