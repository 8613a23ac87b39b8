// Package workspace はセッション・記事ストア・表示状態・編集フォームを1つにまとめ、
// 利用者の操作単位のAPIを提供する。エラーはここで表示用の Notice に変換する。
package workspace

import (
	"context"
	"errors"
	"log/slog"

	"github.com/TheLion102009/lioncraft-wiki/internal/articles"
	"github.com/TheLion102009/lioncraft-wiki/internal/editor"
	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/session"
	"github.com/TheLion102009/lioncraft-wiki/internal/view"
)

// Backend はストアAPIのインターフェース。wikiapi.Client が実装する。
type Backend interface {
	session.Authenticator
	articles.Transport
}

// Confirmer は削除前に利用者へ確認を求める。
type Confirmer interface {
	Confirm(ctx context.Context, article model.Article) (bool, error)
}

// ConfirmFunc は関数をConfirmerとして使うためのアダプター。
type ConfirmFunc func(ctx context.Context, article model.Article) (bool, error)

// Confirm は f を呼び出す。
func (f ConfirmFunc) Confirm(ctx context.Context, article model.Article) (bool, error) {
	return f(ctx, article)
}

// Options はWorkspaceの任意設定。
type Options struct {
	Logger      *slog.Logger
	Metrics     articles.RefreshRecorder
	ImageGuard  editor.URLValidator
	ImageProber editor.ImageProber
}

// Outcome は操作結果。Notice は常に設定される。
// 変更は成功したが一覧の再読み込みに失敗した場合、RefreshNotice にエラーが入る。
type Outcome struct {
	Notice        model.Notice
	RefreshNotice model.Notice
}

// Workspace は1人の利用者の作業状態。
type Workspace struct {
	Session *session.Manager
	Store   *articles.StoreClient
	View    *view.State
	Editor  *editor.Controller

	logger *slog.Logger
}

// New はWorkspaceを生成し、ログアウト時に下書きを破棄するフックを登録する。
func New(backend Backend, opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sess := session.NewManager(backend, logger.With(slog.String("component", "session")))
	store := articles.NewStoreClient(backend, sess, logger.With(slog.String("component", "articles")))
	if opts.Metrics != nil {
		store.SetMetrics(opts.Metrics)
	}
	ed := editor.NewController(store, opts.ImageGuard, logger.With(slog.String("component", "editor")))
	if opts.ImageProber != nil {
		ed.SetImageProber(opts.ImageProber)
	}

	w := &Workspace{
		Session: sess,
		Store:   store,
		View:    view.NewState(),
		Editor:  ed,
		logger:  logger,
	}
	sess.OnLogout(w.discardEdit)
	return w
}

func (w *Workspace) discardEdit() {
	if w.Editor.Active() {
		w.logger.Info("discarding draft on logout")
	}
	w.Editor.Cancel()
	if w.View.Mode().IsEditing() {
		w.View.Cancel()
	}
}

// Load は記事一覧を読み込み、消えた記事の選択を解除する。
func (w *Workspace) Load(ctx context.Context) ([]model.Article, model.Notice) {
	collection, err := w.Store.ListAll(ctx)
	if err != nil {
		return w.Store.Articles(), model.NoticeFromError(err)
	}
	w.View.Reconcile(collection)
	return collection, model.Notice{}
}

// Visible は現在の絞り込み条件で表示する記事を返す。
func (w *Workspace) Visible() []model.Article {
	return w.View.Visible(w.Store.Articles())
}

// Login はログインする。
func (w *Workspace) Login(ctx context.Context, username, password string) (model.Notice, error) {
	res, err := w.Session.Login(ctx, username, password)
	if err != nil {
		return model.NoticeFromError(err), err
	}
	return res.Notice, nil
}

// Register はアカウントを登録する。登録後はログインしない。
func (w *Workspace) Register(ctx context.Context, in session.RegisterInput) (model.Notice, error) {
	n, err := w.Session.Register(ctx, in)
	if err != nil {
		return model.NoticeFromError(err), err
	}
	return n, nil
}

// Logout はログアウトする。編集中の下書きは破棄される。
func (w *Workspace) Logout() {
	w.Session.Logout()
}

// Select は記事を詳細表示する。編集中だった場合は下書きを破棄する。
func (w *Workspace) Select(id model.ID) (model.Article, error) {
	a, ok := w.Store.Get(id)
	if !ok {
		return model.Article{}, model.NewNotFoundError(id, "Artikel nicht gefunden")
	}
	if w.View.Select(id) {
		w.Editor.Cancel()
	}
	return a, nil
}

// StartCreate は新規作成を開始する。
func (w *Workspace) StartCreate() (model.Draft, error) {
	if _, err := w.Session.Require(); err != nil {
		return model.Draft{}, err
	}
	d := w.Editor.StartCreate()
	w.View.StartCreate()
	return d, nil
}

// StartEdit は記事の編集を開始する。
func (w *Workspace) StartEdit(id model.ID) (model.Draft, error) {
	if _, err := w.Session.Require(); err != nil {
		return model.Draft{}, err
	}
	a, ok := w.Store.Get(id)
	if !ok {
		return model.Draft{}, model.NewNotFoundError(id, "Artikel nicht gefunden")
	}
	d := w.Editor.StartEdit(a)
	w.View.StartEdit(id)
	return d, nil
}

// CancelEdit は作成・編集を取り消し、開始前の表示に戻る。
func (w *Workspace) CancelEdit() view.Mode {
	w.Editor.Cancel()
	return w.View.Cancel()
}

// Submit は下書きを送信する。
// 取り消し済みの送信結果は画面に反映せず、空の Notice と ErrStaleResult を返す。
func (w *Workspace) Submit(ctx context.Context) (Outcome, error) {
	res, err := w.Editor.Submit(ctx, w.Session.Current())
	if errors.Is(err, model.ErrStaleResult) {
		return Outcome{}, err
	}
	if err != nil {
		return Outcome{Notice: model.NoticeFromError(err)}, err
	}

	w.View.Close()
	w.View.Reconcile(w.Store.Articles())
	out := Outcome{Notice: res.Notice}
	if res.RefreshErr != nil {
		out.RefreshNotice = model.NoticeFromError(res.RefreshErr)
	}
	return out, nil
}

// Delete は確認のうえ記事を削除する。確認されなかった場合は通信しない。
// 既に削除されていた場合は NOT_FOUND を返し、選択の解除と一覧の再読み込みを行う。
func (w *Workspace) Delete(ctx context.Context, id model.ID, confirmer Confirmer) (Outcome, error) {
	if _, err := w.Session.Require(); err != nil {
		return Outcome{Notice: model.NoticeFromError(err)}, err
	}

	target, ok := w.Store.Get(id)
	if !ok {
		target = model.Article{ID: id}
	}
	confirmed := false
	if confirmer != nil {
		var err error
		confirmed, err = confirmer.Confirm(ctx, target)
		if err != nil {
			w.logger.Warn("delete confirmation failed", slog.String("error", err.Error()))
			confirmed = false
		}
	}
	if !confirmed {
		return Outcome{Notice: model.NoticeFromError(model.ErrDeleteNotConfirmed)}, model.ErrDeleteNotConfirmed
	}

	res, err := w.Store.Delete(ctx, id)
	if model.CodeOf(err) == model.ErrCodeNotFound {
		// 既に削除済み。選択を外し、一覧をストアに合わせる
		w.View.Forget(id)
		out := Outcome{Notice: model.NoticeFromError(err)}
		if collection, lerr := w.Store.ListAll(ctx); lerr != nil {
			out.RefreshNotice = model.NoticeFromError(lerr)
		} else {
			w.View.Reconcile(collection)
		}
		return out, err
	}
	if err != nil {
		return Outcome{Notice: model.NoticeFromError(err)}, err
	}

	w.View.Forget(id)
	w.View.Reconcile(w.Store.Articles())
	out := Outcome{Notice: res.Notice}
	if res.RefreshErr != nil {
		out.RefreshNotice = model.NoticeFromError(res.RefreshErr)
	}
	return out, nil
}
