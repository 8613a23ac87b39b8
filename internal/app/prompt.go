package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

// errNoTerminal は対話入力が必要だが標準入力が端末でない場合のエラー。
var errNoTerminal = errors.New("stdin is not a terminal")

// prompter はパスワードと削除確認を利用者に尋ねる。
type prompter struct {
	in       *os.File
	out      io.Writer
	password string // WIKI_PASSWORD。設定されていれば入力を求めない
}

func (p *prompter) isTerminal() bool {
	return p.in != nil && term.IsTerminal(int(p.in.Fd()))
}

// readPassword はパスワードを返す。WIKI_PASSWORD がなければ端末からエコーなしで読む。
func (p *prompter) readPassword(label string) (string, error) {
	if p.password != "" {
		return p.password, nil
	}
	if !p.isTerminal() {
		return "", fmt.Errorf("password required: set WIKI_PASSWORD (%w)", errNoTerminal)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// confirmDelete は削除の確認を求める。端末でない場合は確認できないためエラーを返す。
func (p *prompter) confirmDelete(ctx context.Context, a model.Article) (bool, error) {
	if !p.isTerminal() {
		return false, errNoTerminal
	}
	title := a.Title
	if title == "" {
		title = a.ID.String()
	}
	fmt.Fprintf(p.out, "Artikel %q wirklich löschen? [j/N] ", title)

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "j", "ja", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
