package model

import (
	"errors"
	"fmt"
	"strings"
)

// APIError はクライアント・サーバー共通のエラーフォーマットを表す。
// Message は利用者にそのまま表示できる文言とする。
type APIError struct {
	Code     string // エラーコード
	Message  string // 表示用メッセージ
	Category string // カテゴリ: connection, validation, auth, article, system
	Action   string // ユーザー向け対処方法
	Err      error  // 原因（通信エラー等）。表示には使わない
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is はエラーコードが一致する場合に true を返す。
// errors.Is(err, model.ErrBusy) のようにコード単位で比較できる。
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// 定義済みエラーコード
const (
	ErrCodeConnection         = "CONNECTION_ERROR"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeInvalidImageURL    = "INVALID_IMAGE_URL"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodePasswordMismatch   = "PASSWORD_MISMATCH"
	ErrCodeRegistration       = "REGISTRATION_FAILED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeBusy               = "BUSY"
	ErrCodeDeleteNotConfirmed = "DELETE_NOT_CONFIRMED"
	ErrCodeStaleResult        = "STALE_RESULT"
	ErrCodeNoDraft            = "NO_DRAFT"
	ErrCodeRequestFailed      = "REQUEST_FAILED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// 比較用の定義済みエラー。errors.Is で使用する。
var (
	ErrNotAuthenticated = &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Diese Aktion erfordert eine Anmeldung.",
		Category: "auth",
		Action:   "Melde dich als Admin an.",
	}
	ErrBusy = &APIError{
		Code:     ErrCodeBusy,
		Message:  "Eine Anfrage wird bereits verarbeitet.",
		Category: "system",
		Action:   "Warte, bis die laufende Anfrage abgeschlossen ist.",
	}
	ErrDeleteNotConfirmed = &APIError{
		Code:     ErrCodeDeleteNotConfirmed,
		Message:  "Löschen wurde nicht bestätigt.",
		Category: "article",
		Action:   "Bestätige das Löschen, um den Artikel endgültig zu entfernen.",
	}
	ErrStaleResult = &APIError{
		Code:     ErrCodeStaleResult,
		Message:  "Die Antwort ist veraltet und wurde verworfen.",
		Category: "system",
	}
	ErrNoDraft = &APIError{
		Code:     ErrCodeNoDraft,
		Message:  "Es wird gerade kein Artikel bearbeitet.",
		Category: "article",
		Action:   "Lege einen neuen Artikel an oder wähle einen Artikel zum Bearbeiten.",
	}
)

// CodeOf はエラーチェーンから APIError のコードを取り出す。
// APIError を含まない場合は空文字列を返す。
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// NewConnectionError は通信失敗エラーを生成する。
// message は操作ごとの表示文言（例: 保存失敗）を指定する。
func NewConnectionError(message string, cause error) *APIError {
	if message == "" {
		message = "Verbindung zum Server fehlgeschlagen!"
	}
	return &APIError{
		Code:     ErrCodeConnection,
		Message:  message,
		Category: "connection",
		Action:   "Prüfe die Verbindung zum Server und versuche es erneut.",
		Err:      cause,
	}
}

// NewValidationError は入力不備エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Korrigiere die Eingaben und sende sie erneut.",
	}
}

// NewMissingFieldsError は必須項目の未入力エラーを生成する。
func NewMissingFieldsError(fields []string) *APIError {
	err := NewValidationError("Titel und Inhalt sind erforderlich.")
	err.Action = fmt.Sprintf("Fehlende Felder: %s", strings.Join(fields, ", "))
	return err
}

// NewInvalidCategoryError は記事に設定できないカテゴリのエラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("Ungültige Kategorie: %q", category),
		Category: "validation",
		Action:   "Wähle eine der Kategorien Regeln, Guides, Befehle, Events, Plugins oder Sonstiges.",
	}
}

// NewInvalidImageURLError は画像URLが不正な場合のエラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("Ungültige Bild-URL: %s", reason),
		Category: "validation",
		Action:   "Gib eine öffentlich erreichbare http(s)-URL eines Bildes an oder lass das Feld leer.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// message にはストアが返した文言をそのまま指定する。
func NewInvalidCredentialsError(message string) *APIError {
	if message == "" {
		message = "Ungültige Anmeldedaten"
	}
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  message,
		Category: "auth",
		Action:   "Prüfe Benutzername und Passwort.",
	}
}

// NewPasswordMismatchError はパスワード確認の不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "Passwörter stimmen nicht überein!",
		Category: "auth",
		Action:   "Gib in beiden Feldern dasselbe Passwort ein.",
	}
}

// NewRegistrationError はストアが登録を拒否した場合のエラーを生成する。
func NewRegistrationError(message string) *APIError {
	if message == "" {
		message = "Registrierung fehlgeschlagen"
	}
	return &APIError{
		Code:     ErrCodeRegistration,
		Message:  message,
		Category: "auth",
		Action:   "Wähle einen anderen Benutzernamen oder prüfe die Eingaben.",
	}
}

// NewNotFoundError は記事が存在しない場合のエラーを生成する。
func NewNotFoundError(id ID, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("Artikel nicht gefunden: %s", id)
	}
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  message,
		Category: "article",
		Action:   "Der Artikel wurde möglicherweise gelöscht. Lade die Liste neu.",
	}
}

// NewRequestFailedError はストアが success:false を返したがより具体的な分類がない場合のエラーを生成する。
func NewRequestFailedError(message string) *APIError {
	if message == "" {
		message = "Anfrage fehlgeschlagen"
	}
	return &APIError{
		Code:     ErrCodeRequestFailed,
		Message:  message,
		Category: "article",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Zu viele Anfragen. Bitte warte einen Moment.",
		Category: "system",
		Action:   "Versuche es in einer Minute erneut.",
	}
}
