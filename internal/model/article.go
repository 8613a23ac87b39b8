// Package model はドメインモデルを定義する。
package model

import "strings"

// Category は記事のカテゴリを表す。
// 値はストアとの通信にそのまま使われるため、サーバー側の表記（ドイツ語）に合わせる。
type Category string

// 記事に設定できるカテゴリ。
const (
	CategoryRules    Category = "Regeln"
	CategoryGuides   Category = "Guides"
	CategoryCommands Category = "Befehle"
	CategoryEvents   Category = "Events"
	CategoryPlugins  Category = "Plugins"
	CategoryOther    Category = "Sonstiges"
)

// CategoryAll はフィルタ専用の疑似カテゴリ。保存済みの記事には決して設定されない。
const CategoryAll Category = "Alle"

// articleCategories は記事に設定可能なカテゴリの閉じた集合（表示順）。
var articleCategories = []Category{
	CategoryRules,
	CategoryGuides,
	CategoryCommands,
	CategoryEvents,
	CategoryPlugins,
	CategoryOther,
}

// ArticleCategories は記事に設定可能なカテゴリを表示順で返す。
func ArticleCategories() []Category {
	out := make([]Category, len(articleCategories))
	copy(out, articleCategories)
	return out
}

// FilterCategories はフィルタで選択可能なカテゴリを返す。先頭は CategoryAll。
func FilterCategories() []Category {
	return append([]Category{CategoryAll}, articleCategories...)
}

// DefaultCategory は新規下書きの初期カテゴリ（CategoryAll を除く先頭）を返す。
func DefaultCategory() Category {
	return articleCategories[0]
}

// IsValid はカテゴリが記事に設定可能な値かどうかを返す。
// CategoryAll は記事には設定できないため false を返す。
func (c Category) IsValid() bool {
	for _, v := range articleCategories {
		if v == c {
			return true
		}
	}
	return false
}

// IsValidFilter はカテゴリがフィルタとして有効かどうかを返す。
func (c Category) IsValidFilter() bool {
	return c == CategoryAll || c.IsValid()
}

// ParseCategory は大文字小文字を区別せずにカテゴリ名を解釈する。
// 英語名（rules, commands, other, all）も受け付ける。
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range FilterCategories() {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	switch strings.ToLower(s) {
	case "all":
		return CategoryAll, true
	case "rules":
		return CategoryRules, true
	case "commands":
		return CategoryCommands, true
	case "other":
		return CategoryOther, true
	}
	return "", false
}

// Article はストアに保存されたWiki記事を表す。
// 本文は不透明なテキストとして扱い、解釈しない。
type Article struct {
	ID       ID       `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
	Image    string   `json:"image,omitempty"`
	Author   string   `json:"author"`
	AuthorID ID       `json:"authorId"`
}

// HasImage は記事に画像URLが設定されているかを返す。
func (a *Article) HasImage() bool {
	return strings.TrimSpace(a.Image) != ""
}
