package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TheLion102009/lioncraft-wiki/internal/config"
	"github.com/TheLion102009/lioncraft-wiki/internal/metrics"
	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/security"
	"github.com/TheLion102009/lioncraft-wiki/internal/session"
	"github.com/TheLion102009/lioncraft-wiki/internal/view"
	"github.com/TheLion102009/lioncraft-wiki/internal/wikiapi"
	"github.com/TheLion102009/lioncraft-wiki/internal/workspace"
)

// newWorkspace はストアAPIに接続するWorkspaceを構築する。
// METRICS_PUSH_URL が設定されている場合はクライアント側メトリクスを収集するレジストリも返す。
func newWorkspace(cfg *config.Config, log *slog.Logger) (*workspace.Workspace, *prometheus.Registry) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := wikiapi.NewClient(httpClient, log.With(slog.String("component", "wikiapi")), cfg.WikiAPIURL)

	guard := security.NewImageURLGuard()
	opts := workspace.Options{
		Logger:     log,
		ImageGuard: guard,
	}
	if cfg.ImageProbe {
		opts.ImageProber = security.NewImageProber(guard.NewSafeClient(cfg.ImageProbeTimeout), log)
	}

	var reg *prometheus.Registry
	if cfg.MetricsPushURL != "" {
		reg = prometheus.NewRegistry()
		collector := metrics.NewClientCollector(reg)
		client.SetMetrics(collector)
		opts.Metrics = collector
	}
	return workspace.New(client, opts), reg
}

// pushMetrics はコマンド終了時にメトリクスを送信する。送信の失敗はコマンドの結果に影響しない。
func pushMetrics(ctx context.Context, cfg *config.Config, reg *prometheus.Registry, log *slog.Logger) {
	if err := metrics.Push(ctx, cfg.MetricsPushURL, reg); err != nil {
		log.Warn("metrics push failed", slog.String("error", err.Error()))
		return
	}
	log.Debug("metrics pushed", slog.String("job", metrics.PushJob))
}

// runClient はストアAPIを使うサブコマンドを実行する。
func runClient(ctx context.Context, cmd Command, opts docopt.Opts, cfg *config.Config, log *slog.Logger, s Streams) error {
	ws, reg := newWorkspace(cfg, log)
	if reg != nil {
		defer pushMetrics(context.WithoutCancel(ctx), cfg, reg, log)
	}
	p := &prompter{in: s.In, out: s.Out, password: cfg.WikiPassword}

	switch cmd {
	case CommandList:
		return runList(ctx, ws, opts, s.Out)
	case CommandShow:
		return runShow(ctx, ws, opts, s.Out)
	case CommandRegister:
		return runRegister(ctx, ws, opts, p, s.Out)
	case CommandCreate:
		return runCreate(ctx, ws, opts, p, s.Out)
	case CommandEdit:
		return runEdit(ctx, ws, opts, p, s.Out)
	case CommandDelete:
		return runDelete(ctx, ws, opts, p, s.Out)
	default:
		return fmt.Errorf("unsupported command: %s", cmd)
	}
}

func runList(ctx context.Context, ws *workspace.Workspace, opts docopt.Opts, out io.Writer) error {
	if err := load(ctx, ws, out); err != nil {
		return err
	}

	if raw, ok := optString(opts, "--category"); ok {
		c, ok := model.ParseCategory(raw)
		if !ok {
			return model.NewInvalidCategoryError(raw)
		}
		if err := ws.View.SetCategory(c); err != nil {
			return err
		}
	}
	if term, ok := optString(opts, "--search"); ok {
		ws.View.SetSearchTerm(term)
	}

	visible := ws.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(out, "Keine Artikel gefunden.")
		return nil
	}
	for _, a := range visible {
		fmt.Fprintf(out, "#%s\t[%s]\t%s\t(%s)\n", a.ID, a.Category, a.Title, a.Author)
		if preview := view.Preview(a.Content); preview != "" {
			fmt.Fprintf(out, "\t%s\n", preview)
		}
	}
	return nil
}

func runShow(ctx context.Context, ws *workspace.Workspace, opts docopt.Opts, out io.Writer) error {
	if err := load(ctx, ws, out); err != nil {
		return err
	}
	id, _ := optString(opts, "<id>")
	a, err := ws.Select(model.ID(id))
	if err != nil {
		printNotice(out, model.NoticeFromError(err))
		return err
	}

	fmt.Fprintf(out, "%s\n", a.Title)
	fmt.Fprintf(out, "Kategorie: %s\n", a.Category)
	fmt.Fprintf(out, "Autor: %s\n", a.Author)
	if a.HasImage() {
		fmt.Fprintf(out, "Bild: %s\n", a.Image)
	}
	fmt.Fprintf(out, "\n%s\n", a.Content)
	return nil
}

func runRegister(ctx context.Context, ws *workspace.Workspace, opts docopt.Opts, p *prompter, out io.Writer) error {
	user, _ := optString(opts, "--user")
	email, _ := optString(opts, "--email")

	password, err := p.readPassword("Passwort")
	if err != nil {
		return err
	}
	confirm := password
	if p.password == "" {
		if confirm, err = p.readPassword("Passwort wiederholen"); err != nil {
			return err
		}
	}

	notice, err := ws.Register(ctx, session.RegisterInput{
		Username:        user,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	printNotice(out, notice)
	return err
}

func runCreate(ctx context.Context, ws *workspace.Workspace, opts docopt.Opts, p *prompter, out io.Writer) error {
	if err := login(ctx, ws, opts, p, out); err != nil {
		return err
	}
	defer ws.Logout()

	if _, err := ws.StartCreate(); err != nil {
		return err
	}
	if err := ws.Editor.Edit(func(d *model.Draft) { applyDraftOptions(d, opts) }); err != nil {
		return err
	}
	return submit(ctx, ws, out)
}

func runEdit(ctx context.Context, ws *workspace.Workspace, opts docopt.Opts, p *prompter, out io.Writer) error {
	if err := login(ctx, ws, opts, p, out); err != nil {
		return err
	}
	defer ws.Logout()

	if err := load(ctx, ws, out); err != nil {
		return err
	}
	id, _ := optString(opts, "<id>")
	if _, err := ws.StartEdit(model.ID(id)); err != nil {
		printNotice(out, model.NoticeFromError(err))
		return err
	}
	if err := ws.Editor.Edit(func(d *model.Draft) { applyDraftOptions(d, opts) }); err != nil {
		return err
	}
	return submit(ctx, ws, out)
}

func runDelete(ctx context.Context, ws *workspace.Workspace, opts docopt.Opts, p *prompter, out io.Writer) error {
	if err := login(ctx, ws, opts, p, out); err != nil {
		return err
	}
	defer ws.Logout()

	if err := load(ctx, ws, out); err != nil {
		return err
	}

	var confirmer workspace.Confirmer = workspace.ConfirmFunc(p.confirmDelete)
	if yes, _ := opts.Bool("--yes"); yes {
		confirmer = workspace.ConfirmFunc(func(context.Context, model.Article) (bool, error) { return true, nil })
	}

	id, _ := optString(opts, "<id>")
	outcome, err := ws.Delete(ctx, model.ID(id), confirmer)
	printOutcome(out, outcome)
	return err
}

// applyDraftOptions は指定されたオプションだけを下書きに反映する。
// 解釈できないカテゴリはそのまま設定し、送信前の検証でエラーにする。
func applyDraftOptions(d *model.Draft, opts docopt.Opts) {
	if v, ok := optString(opts, "--title"); ok {
		d.Title = v
	}
	if v, ok := optString(opts, "--content"); ok {
		d.Content = v
	}
	if v, ok := optString(opts, "--category"); ok {
		if c, ok := model.ParseCategory(v); ok {
			d.Category = c
		} else {
			d.Category = model.Category(v)
		}
	}
	if v, ok := optString(opts, "--image"); ok {
		d.Image = v
	}
}

func login(ctx context.Context, ws *workspace.Workspace, opts docopt.Opts, p *prompter, out io.Writer) error {
	user, _ := optString(opts, "--user")
	password, err := p.readPassword(fmt.Sprintf("Passwort für %s", user))
	if err != nil {
		return err
	}
	notice, err := ws.Login(ctx, user, password)
	printNotice(out, notice)
	return err
}

func load(ctx context.Context, ws *workspace.Workspace, out io.Writer) error {
	if _, notice := ws.Load(ctx); notice.Severity == model.SeverityError {
		printNotice(out, notice)
		return errors.New(notice.Text)
	}
	return nil
}

func submit(ctx context.Context, ws *workspace.Workspace, out io.Writer) error {
	outcome, err := ws.Submit(ctx)
	printOutcome(out, outcome)
	return err
}

func printOutcome(out io.Writer, o workspace.Outcome) {
	printNotice(out, o.Notice)
	printNotice(out, o.RefreshNotice)
}

func printNotice(out io.Writer, n model.Notice) {
	if n.IsZero() {
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", strings.ToUpper(string(n.Severity)), n.Text)
}
