package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/TheLion102009/lioncraft-wiki/internal/middleware"
	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// handleServiceError はサービス層のエラーを success:false 応答に変換する。
// *model.APIError 以外のエラーは内部エラーとして扱い、詳細はログにのみ残す。
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteFailure(w, apiErr)
		return
	}
	logger.Error("unexpected service error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// decodeJSON はリクエストボディをデコードする。失敗した場合は400応答を書き込み false を返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteFailure(w, model.NewValidationError("Ungültige Anfrage."))
		return false
	}
	return true
}

// maxRequestBodySize はリクエストボディの上限（1MB）。
const maxRequestBodySize = 1 << 20
