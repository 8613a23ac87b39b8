package security

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// ImageProber は画像URLに実際にアクセスし、画像が返ることを確認する。
type ImageProber struct {
	client *http.Client
	logger *slog.Logger
}

// NewImageProber はImageProberを生成する。
// 本番では ImageURLGuard.NewSafeClient で生成したクライアントを渡す。
func NewImageProber(client *http.Client, logger *slog.Logger) *ImageProber {
	if client == nil {
		client = NewImageURLGuard().NewSafeClient(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageProber{client: client, logger: logger}
}

// Probe はHEADリクエストを送り、2xxかつ image/* のContent-Typeであることを確認する。
func (p *ImageProber) Probe(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	req.Header.Set("User-Agent", "lioncraft-wiki/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("画像URLへの接続に失敗",
			slog.String("url", imageURL),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("probe image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("not an image: content type %q", resp.Header.Get("Content-Type"))
	}

	p.logger.Debug("画像URLを確認", slog.String("url", imageURL), slog.String("content_type", mediaType))
	return nil
}
