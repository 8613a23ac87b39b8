package model

import "strings"

// Draft は作成・編集フォームの一時的な入力内容を表す。永続化されない。
type Draft struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
	Image    string   `json:"image"`
}

// NewDraft は新規作成用の初期値を持つDraftを返す。
func NewDraft() Draft {
	return Draft{Category: DefaultCategory()}
}

// DraftFromArticle は既存記事の編集可能フィールドからDraftを生成する。
func DraftFromArticle(a *Article) Draft {
	return Draft{
		Title:    a.Title,
		Content:  a.Content,
		Category: a.Category,
		Image:    a.Image,
	}
}

// Validate は送信前のローカル検証を行う。
// タイトルと本文が空白のみでないこと、カテゴリが閉じた集合に含まれることを確認する。
func (d *Draft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return NewMissingFieldsError(missing)
	}
	if !d.Category.IsValid() {
		return NewInvalidCategoryError(string(d.Category))
	}
	return nil
}

// Matches はDraftの編集可能フィールドが記事と一致するかを返す。
func (d *Draft) Matches(a *Article) bool {
	return d.Title == a.Title &&
		d.Content == a.Content &&
		d.Category == a.Category &&
		d.Image == a.Image
}
