// Package middleware は記事ストアサーバーのHTTPミドルウェアと、
// {success, message, ...} 形式の応答を書き込むヘルパーを提供する。
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// FailureBody は success:false 応答の本文。
// クライアントは message を利用者にそのまま表示する。
type FailureBody struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Category string `json:"category,omitempty"`
	Action   string `json:"action,omitempty"`
}

// WriteJSON はJSON応答を書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteFailure は業務エラーを success:false 応答として書き込む。
// ステータスコードはエラーコードから決める。
func WriteFailure(w http.ResponseWriter, apiErr *model.APIError) {
	WriteJSON(w, StatusForCode(apiErr.Code), FailureBody{
		Success:  false,
		Message:  apiErr.Message,
		Code:     apiErr.Code,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部エラーの応答を書き込む。
// 詳細はログのみに記録し、利用者には一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteJSON(w, http.StatusInternalServerError, FailureBody{
		Success:  false,
		Message:  "Interner Serverfehler",
		Code:     model.ErrCodeInternal,
		Category: "system",
		Action:   "Versuche es später erneut.",
	})
}

// StatusForCode はエラーコードに対応するHTTPステータスを返す。
func StatusForCode(code string) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInvalidCategory, model.ErrCodeInvalidImageURL:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeRegistration:
		return http.StatusConflict
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
