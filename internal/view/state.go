package view

import (
	"fmt"
	"sync"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// ModeKind は画面モードの種類。
type ModeKind int

const (
	Browsing ModeKind = iota // 一覧表示
	Viewing                  // 記事の詳細表示
	Creating                 // 新規作成フォーム
	Editing                  // 既存記事の編集フォーム
)

// String はモード種別のログ表示用の名前を返す。
func (k ModeKind) String() string {
	switch k {
	case Browsing:
		return "browsing"
	case Viewing:
		return "viewing"
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return fmt.Sprintf("ModeKind(%d)", int(k))
	}
}

// Mode は画面モード。Viewing と Editing の場合のみ ArticleID を持つ。
type Mode struct {
	Kind      ModeKind
	ArticleID model.ID
}

// BrowsingMode は一覧表示のモードを返す。
func BrowsingMode() Mode {
	return Mode{Kind: Browsing}
}

// ViewingMode は記事 id の詳細表示のモードを返す。
func ViewingMode(id model.ID) Mode {
	return Mode{Kind: Viewing, ArticleID: id}
}

// CreatingMode は新規作成のモードを返す。
func CreatingMode() Mode {
	return Mode{Kind: Creating}
}

// EditingMode は記事 id の編集のモードを返す。
func EditingMode(id model.ID) Mode {
	return Mode{Kind: Editing, ArticleID: id}
}

// IsEditing は作成中または編集中かを返す。
func (m Mode) IsEditing() bool {
	return m.Kind == Creating || m.Kind == Editing
}

// Selected は詳細表示中の記事IDを返す。
func (m Mode) Selected() (model.ID, bool) {
	if m.Kind == Viewing {
		return m.ArticleID, true
	}
	return "", false
}

// String は "viewing(3)" のような表示用の文字列を返す。
func (m Mode) String() string {
	if m.ArticleID.IsZero() {
		return m.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", m.Kind, m.ArticleID)
}

// Snapshot はある時点の表示状態。
type Snapshot struct {
	Category   model.Category
	SearchTerm string
	Mode       Mode
}

// State は絞り込み条件と画面モードを保持する。
// モードの遷移はすべてこの型のメソッドを経由し、同時に有効なモードは常に1つだけ。
type State struct {
	mu       sync.Mutex
	category model.Category
	term     string
	mode     Mode
	// 作成・編集を取り消したときに戻るモード
	returnTo Mode
}

// NewState は Alle・検索語なし・Browsing の初期状態を生成する。
func NewState() *State {
	return &State{
		category: model.CategoryAll,
		mode:     BrowsingMode(),
		returnTo: BrowsingMode(),
	}
}

// SetCategory は絞り込みカテゴリを設定する。
func (s *State) SetCategory(c model.Category) error {
	if !c.IsValidFilter() {
		return model.NewInvalidCategoryError(string(c))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = c
	return nil
}

// SetSearchTerm は検索語を設定する。
func (s *State) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = term
}

// Snapshot は現在の状態を返す。
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Category: s.category, SearchTerm: s.term, Mode: s.mode}
}

// Mode は現在の画面モードを返す。
func (s *State) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Visible は collection に現在の絞り込み条件を適用する。
func (s *State) Visible(collection []model.Article) []model.Article {
	snap := s.Snapshot()
	return VisibleArticles(collection, snap.Category, snap.SearchTerm)
}

// Select は記事を詳細表示する。作成・編集中だった場合は leftEdit が true になり、
// 呼び出し側は下書きを破棄する。
func (s *State) Select(id model.ID) (leftEdit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	leftEdit = s.mode.IsEditing()
	s.mode = ViewingMode(id)
	s.returnTo = BrowsingMode()
	return leftEdit
}

// StartCreate は作成モードに入る。詳細表示は閉じられる。
func (s *State) StartCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterEditLocked(CreatingMode())
}

// StartEdit は編集モードに入る。詳細表示は閉じられる。
func (s *State) StartEdit(id model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterEditLocked(EditingMode(id))
}

func (s *State) enterEditLocked(next Mode) {
	if s.mode.Kind == Viewing {
		s.returnTo = s.mode
	} else if !s.mode.IsEditing() {
		s.returnTo = BrowsingMode()
	}
	s.mode = next
}

// Cancel は作成・編集を取り消し、開始前の詳細表示（なければ一覧）に戻る。
// 詳細表示中に呼んだ場合は一覧に戻る。
func (s *State) Cancel() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode.IsEditing() {
		s.mode = s.returnTo
	} else {
		s.mode = BrowsingMode()
	}
	s.returnTo = BrowsingMode()
	return s.mode
}

// Close は一覧表示に戻る。送信成功後に使う。
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = BrowsingMode()
	s.returnTo = BrowsingMode()
}

// Forget は削除された記事への参照を取り除く。
// 詳細表示中の記事だった場合は一覧に戻る。編集中のモードは変更しない。
func (s *State) Forget(id model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode.Kind == Viewing && s.mode.ArticleID == id {
		s.mode = BrowsingMode()
	}
	if s.returnTo.ArticleID == id {
		s.returnTo = BrowsingMode()
	}
}

// Reconcile は再読み込み後のコレクションに存在しない記事の選択を解除する。
// 編集中の記事が消えていても下書きは保持するため、Editing は変更しない。
func (s *State) Reconcile(collection []model.Article) {
	present := make(map[model.ID]struct{}, len(collection))
	for _, a := range collection {
		present[a.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode.Kind == Viewing {
		if _, ok := present[s.mode.ArticleID]; !ok {
			s.mode = BrowsingMode()
		}
	}
	if s.returnTo.Kind == Viewing {
		if _, ok := present[s.returnTo.ArticleID]; !ok {
			s.returnTo = BrowsingMode()
		}
	}
}
