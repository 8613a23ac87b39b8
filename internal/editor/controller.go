// Package editor は記事の作成・編集フォームの下書きと送信を管理する。
package editor

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/TheLion102009/lioncraft-wiki/internal/articles"
	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// Store は下書きの送信先。articles.StoreClient が実装する。
type Store interface {
	Create(ctx context.Context, draft model.Draft, authorID model.ID) (*articles.MutationResult, error)
	Update(ctx context.Context, id model.ID, draft model.Draft) (*articles.MutationResult, error)
}

// URLValidator は画像URLの静的検証を行う。security.ImageURLGuard が実装する。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// ImageProber は画像URLの事前確認を行う。security.ImageProber が実装する。
type ImageProber interface {
	Probe(ctx context.Context, imageURL string) error
}

// SubmitResult は送信成功時の結果。
type SubmitResult struct {
	Article    *model.Article
	ArticleID  model.ID
	Created    bool
	Notice     model.Notice
	RefreshErr error
}

// Controller は1つの下書きを保持する。
// 下書きは取り消しまたは送信成功で破棄され、送信失敗時は保持される。
type Controller struct {
	store  Store
	guard  URLValidator
	prober ImageProber
	logger *slog.Logger

	mu        sync.Mutex
	draft     *model.Draft
	editingID model.ID
	busy      bool
	epoch     uint64
}

// NewController はControllerを生成する。guard が nil の場合は画像URLのスキーム検証のみ行う。
func NewController(store Store, guard URLValidator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, guard: guard, logger: logger}
}

// SetImageProber は送信前の画像URL確認を有効にする。
func (c *Controller) SetImageProber(p ImageProber) {
	c.prober = p
}

// StartCreate は空の下書きを作成する。カテゴリは Regeln。
// 既存の下書きは破棄される。
func (c *Controller) StartCreate() model.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := model.NewDraft()
	c.resetLocked(&d, "")
	return d
}

// StartEdit は記事の内容で下書きを作成し、編集対象として記録する。
func (c *Controller) StartEdit(article model.Article) model.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := model.DraftFromArticle(&article)
	c.resetLocked(&d, article.ID)
	return d
}

// Cancel は下書きと編集対象を破棄する。ストアへの通信は行わない。
// 送信中の結果は破棄される。
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft != nil {
		c.logger.Debug("draft discarded", slog.String("editing_id", c.editingID.String()))
	}
	c.resetLocked(nil, "")
}

func (c *Controller) resetLocked(d *model.Draft, id model.ID) {
	c.draft = d
	c.editingID = id
	c.epoch++
}

// Draft は現在の下書きのコピーを返す。
func (c *Controller) Draft() (model.Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return model.Draft{}, false
	}
	return *c.draft, true
}

// EditingID は編集対象の記事IDを返す。新規作成中または下書きなしの場合は false。
func (c *Controller) EditingID() (model.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID, c.draft != nil && !c.editingID.IsZero()
}

// Active は下書きが存在するかを返す。
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft != nil
}

// IsBusy は送信中かを返す。
func (c *Controller) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Edit は下書きを変更する。送信中は変更できない。
func (c *Controller) Edit(fn func(d *model.Draft)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return model.ErrNoDraft
	}
	if c.busy {
		return model.ErrBusy
	}
	fn(c.draft)
	return nil
}

// Validate は現在の下書きをローカルで検証する。
func (c *Controller) Validate(ctx context.Context) error {
	d, ok := c.Draft()
	if !ok {
		return model.ErrNoDraft
	}
	return c.validate(ctx, &d)
}

func (c *Controller) validate(ctx context.Context, d *model.Draft) error {
	if err := d.Validate(); err != nil {
		return err
	}
	img := strings.TrimSpace(d.Image)
	if img == "" {
		return nil
	}
	if c.guard != nil {
		if err := c.guard.ValidateURL(img); err != nil {
			return model.NewInvalidImageURLError(err.Error())
		}
	} else if !hasHTTPScheme(img) {
		return model.NewInvalidImageURLError("nur http(s) erlaubt")
	}
	if c.prober != nil {
		if err := c.prober.Probe(ctx, img); err != nil {
			return model.NewInvalidImageURLError(err.Error())
		}
	}
	return nil
}

func hasHTTPScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Submit は下書きを検証し、編集対象の有無に応じて作成または更新を送信する。
// 成功すると下書きは破棄され、失敗すると保持される。
//
// 送信中の再送信は通信せずに ErrBusy を返す。
// 送信中に取り消し・開始が行われた場合、結果は反映せず ErrStaleResult を返す。
func (c *Controller) Submit(ctx context.Context, identity *model.Identity) (*SubmitResult, error) {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return nil, model.ErrNoDraft
	}
	if c.busy {
		c.mu.Unlock()
		return nil, model.ErrBusy
	}
	if identity == nil || identity.ID.IsZero() {
		c.mu.Unlock()
		c.logger.Error("submit attempted without identity")
		return nil, model.ErrNotAuthenticated
	}
	d := *c.draft
	editingID := c.editingID
	epoch := c.epoch
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	if err := c.validate(ctx, &d); err != nil {
		return nil, err
	}

	var (
		res *articles.MutationResult
		err error
	)
	created := editingID.IsZero()
	if created {
		res, err = c.store.Create(ctx, d, identity.ID)
	} else {
		res, err = c.store.Update(ctx, editingID, d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Info("discarding stale submit result",
			slog.String("editing_id", editingID.String()),
			slog.Bool("succeeded", err == nil),
		)
		return nil, model.ErrStaleResult
	}
	if err != nil {
		c.logger.Warn("submit failed, draft retained",
			slog.String("editing_id", editingID.String()),
			slog.String("code", model.CodeOf(err)),
		)
		return nil, err
	}

	out := &SubmitResult{
		Article:    res.Article,
		ArticleID:  editingID,
		Created:    created,
		Notice:     res.Notice,
		RefreshErr: res.RefreshErr,
	}
	if res.Article != nil {
		out.ArticleID = res.Article.ID
	}
	c.resetLocked(nil, "")
	return out, nil
}
