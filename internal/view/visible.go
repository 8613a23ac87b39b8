// Package view は記事一覧の絞り込み・検索・選択と、画面モードの遷移を扱う。
package view

import (
	"strings"
	"unicode/utf8"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/security"
)

// PreviewLength は一覧表示用プレビューの最大文字数（rune数）。
const PreviewLength = 150

// VisibleArticles はカテゴリと検索語で絞り込んだ記事を返す。
// 入力の順序を保ち、結果は常に入力の部分集合になる。入力は変更しない。
//
// category が Alle の場合はカテゴリで絞り込まない。
// term が空文字列の場合のみ検索で絞り込まない。空白も検索語の一部として扱う。
// 検索はタイトルまたは本文に対する大文字小文字を区別しない部分一致。
func VisibleArticles(collection []model.Article, category model.Category, term string) []model.Article {
	needle := strings.ToLower(term)
	out := make([]model.Article, 0, len(collection))
	for _, a := range collection {
		if category != model.CategoryAll && a.Category != category {
			continue
		}
		if term != "" && !containsFold(a.Title, needle) && !containsFold(a.Content, needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

var previewSanitizer = security.NewTextSanitizer()

// Preview は本文からマークアップを除いた先頭 PreviewLength 文字を返す。
// 切り詰めた場合は末尾に "…" を付ける。
func Preview(content string) string {
	text := previewSanitizer.PlainText(content)
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:PreviewLength]), " ") + "…"
}
