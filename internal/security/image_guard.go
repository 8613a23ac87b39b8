// Package security は記事の画像URLと表示用テキストに関する安全対策を提供する。
package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// 画像URLとして受け付けるスキームとポート。ポート省略時はスキームの既定ポートになる。
var (
	imageSchemes = []string{"http", "https"}
	imagePorts   = []int{80, 443}
)

// lanOnlySuffixes は組織内やローカルでしか名前解決できないホスト名の接尾辞。
var lanOnlySuffixes = []string{"localhost", "local", "internal", "lan", "home.arpa"}

// ImageURLGuard は記事に添付する画像URLを検証する。
// 画像は閲覧者の環境から取得されるため、誰でも到達できる公開URLだけを受け付ける。
type ImageURLGuard struct{}

// NewImageURLGuard はImageURLGuardを生成する。
func NewImageURLGuard() *ImageURLGuard {
	return &ImageURLGuard{}
}

// NewSafeClient は画像の事前確認に使うHTTPクライアントを生成する。
// DNS解決後の接続先の検証はsafeurlが行う。
func (g *ImageURLGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(imageSchemes...).
		SetAllowedPorts(imagePorts...).
		Build()
	return safeurl.Client(config).Client
}

// ValidateURL は画像URLを名前解決せずに検証する。
// 空文字列は「画像なし」を意味するため呼び出し側で除外すること。
func (g *ImageURLGuard) ValidateURL(rawURL string) error {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return errors.New("empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if !containsFold(imageSchemes, u.Scheme) {
		return fmt.Errorf("scheme %q is not allowed for images", u.Scheme)
	}
	if u.User != nil {
		return errors.New("credentials in image URL are not allowed")
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	if host == "" {
		return errors.New("image URL has no host")
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || !containsInt(imagePorts, n) {
			return fmt.Errorf("port %s is not allowed for images", p)
		}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if !isPublicAddr(addr) {
			return fmt.Errorf("address %s is not publicly reachable", addr)
		}
		return nil
	}
	if isLANOnlyHost(host) {
		return fmt.Errorf("host %s is not publicly reachable", host)
	}
	return nil
}

// isPublicAddr はインターネットから到達できるユニキャストアドレスかを返す。
func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	// 0.0.0.0/8 は「このネットワーク」
	if addr.Is4() && addr.As4()[0] == 0 {
		return false
	}
	return true
}

func isLANOnlyHost(host string) bool {
	lower := strings.ToLower(host)
	// 単一ラベルのホスト名は公開DNSでは解決できない
	if !strings.Contains(lower, ".") {
		return true
	}
	for _, suffix := range lanOnlySuffixes {
		if lower == suffix || strings.HasSuffix(lower, "."+suffix) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func containsInt(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
