package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID はリモートストアが採番する識別子を表す。
// ストアによってJSON数値または文字列で返されるため、どちらも受け付ける。
// 数値として受け取ったIDは送信時も数値として再エンコードする。
type ID string

// IDFromInt は数値IDからIDを生成する。
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// String はIDの文字列表現を返す。
func (id ID) String() string {
	return string(id)
}

// IsZero はIDが未設定かどうかを返す。
func (id ID) IsZero() bool {
	return id == ""
}

// Int64 は数値IDを整数として返す。数値でない場合はエラーを返す。
func (id ID) Int64() (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("IDが数値ではありません: %q", string(id))
	}
	return n, nil
}

// MarshalJSON は数値IDをJSON数値、それ以外を文字列として出力する。
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON はJSON数値・文字列・nullのいずれからもIDを復元する。
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("IDのデコードに失敗しました: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("IDのデコードに失敗しました: %w", err)
	}
	*id = ID(n.String())
	return nil
}
