package model

import "errors"

// Severity は利用者に表示するメッセージの重要度を表す。
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notice は操作結果として表示する1件のメッセージ。
// 通信エラーや業務エラーは表示層に生のまま渡さず、必ずNoticeに変換する。
type Notice struct {
	Text     string
	Severity Severity
}

// IsZero は表示すべきメッセージがないかを返す。
func (n Notice) IsZero() bool {
	return n.Text == ""
}

// SuccessNotice は成功メッセージを生成する。
func SuccessNotice(text string) Notice {
	return Notice{Text: text, Severity: SeveritySuccess}
}

// NoticeFromError はエラーを表示用メッセージに変換する。
// APIError 以外のエラーは汎用の通信失敗メッセージにまとめる。
func NoticeFromError(err error) Notice {
	if err == nil {
		return Notice{}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Notice{Text: apiErr.Message, Severity: SeverityError}
	}
	return Notice{Text: "Verbindung zum Server fehlgeschlagen!", Severity: SeverityError}
}
