package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/TheLion102009/lioncraft-wiki/internal/middleware"
	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

const (
	msgLoginSucceeded        = "Login erfolgreich"
	msgRegistrationSucceeded = "Registrierung erfolgreich"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
// auth.Service が実装する。
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*model.User, error)
	Register(ctx context.Context, username, email, password string) (*model.User, error)
}

// AuthHandler はログインと登録のHTTPハンドラー。
// セッションは発行せず、ログイン成功時にユーザー情報を返すだけ。
type AuthHandler struct {
	service AuthServiceInterface
	logger  *slog.Logger
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{service: service, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    *model.Identity `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login はユーザー名とパスワードを検証する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: msgLoginSucceeded,
		User:    user.Identity(),
	})
}

// Register はユーザーを登録する。
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, messageResponse{Success: true, Message: msgRegistrationSucceeded})
}
