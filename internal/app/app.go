package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheLion102009/lioncraft-wiki/internal/config"
	"github.com/TheLion102009/lioncraft-wiki/internal/database"
	"github.com/TheLion102009/lioncraft-wiki/internal/logger"
)

// Streams はCLIの入出力先。Out には結果、Err にはJSONログを出力する。
type Streams struct {
	Out io.Writer
	Err io.Writer
	In  *os.File // nilまたは端末でない場合、対話入力は行わない
}

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		// 設定エラーも構造化ログで報告できるよう、既定のレベルで初期化しておく
		logger.SetupDefault(w, slog.LevelInfo)
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.SetupDefault(w, cfg.LogLevel), nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	return RunWithStreams(context.Background(), Streams{Out: w, Err: os.Stderr, In: os.Stdin}, args)
}

// RunWithStreams はコマンドライン引数からサブコマンドを解析し、対応するモードで実行する。
func RunWithStreams(ctx context.Context, s Streams, args []string) error {
	if s.Err == nil {
		s.Err = io.Discard
	}
	cmd, opts, err := ParseArgs(args, s.Out)
	if err != nil {
		return err
	}
	if cmd == "" {
		return nil
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "5000"
		}
		return runHealthcheck(port)
	}

	cfg, log, err := Init(s.Err)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	log.Debug("starting command", slog.String("command", string(cmd)))

	switch cmd {
	case CommandServe:
		return runServe(ctx, cfg, log)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runClient(ctx, cmd, opts, cfg, log, s)
	}
}

// runServe は参照ストアサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	srv, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer srv.Close()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Bool("database", cfg.UseDatabase()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
func runMigrate(cfg *config.Config) error {
	if !cfg.UseDatabase() {
		return errors.New("DATABASE_URL is required for migrate")
	}
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
