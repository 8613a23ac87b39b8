package app

import (
	"fmt"
	"io"

	"github.com/docopt/docopt-go"
)

// Version はCLIのバージョン。
const Version = "1.0.0"

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe は参照ストアサーバーを起動する。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行する。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"

	// 以下はストアAPIに接続するクライアント操作。
	CommandList     Command = "list"
	CommandShow     Command = "show"
	CommandRegister Command = "register"
	CommandCreate   Command = "create"
	CommandEdit     Command = "edit"
	CommandDelete   Command = "delete"
)

// commands はusageと照合する順序。
var commands = []Command{
	CommandServe,
	CommandMigrate,
	CommandHealthcheck,
	CommandList,
	CommandShow,
	CommandRegister,
	CommandCreate,
	CommandEdit,
	CommandDelete,
}

const usage = `LionCraft Wiki.

Usage:
    lioncraft-wiki serve
    lioncraft-wiki migrate
    lioncraft-wiki healthcheck
    lioncraft-wiki list [--category=<cat>] [--search=<term>]
    lioncraft-wiki show <id>
    lioncraft-wiki register --user=<name> --email=<email>
    lioncraft-wiki create --user=<name> --title=<title> --content=<text> [--category=<cat>] [--image=<url>]
    lioncraft-wiki edit <id> --user=<name> [--title=<title>] [--content=<text>] [--category=<cat>] [--image=<url>]
    lioncraft-wiki delete <id> --user=<name> [--yes]
    lioncraft-wiki -h | --help
    lioncraft-wiki --version

Options:
    -h --help            Show this screen.
    --version            Show version.
    --category=<cat>     Regeln, Guides, Befehle, Events, Plugins, Sonstiges (Alle for list).
    --search=<term>      Case-insensitive search in title and content.
    --user=<name>        Operator account used for the change.
    --email=<email>      E-mail address of the new account.
    --title=<title>      Article title.
    --content=<text>     Article content.
    --image=<url>        Optional http(s) image URL. Pass an empty value to remove it.
    --yes                Delete without asking for confirmation.

Environment:
    WIKI_API_URL         Store API base URL (default http://localhost:5000).
    WIKI_PASSWORD        Password for --user; prompted on a terminal otherwise.
    METRICS_PUSH_URL     Pushgateway URL; client metrics are pushed when a command ends.`

// ParseArgs はコマンドライン引数を解析する。
// 引数が空の場合はserveとして扱う。ヘルプやバージョンの表示を求められた場合は
// helpに出力し、Commandは空を返す。
func ParseArgs(args []string, help io.Writer) (Command, docopt.Opts, error) {
	if len(args) == 0 {
		args = []string{string(CommandServe)}
	}

	parser := &docopt.Parser{
		HelpHandler: func(err error, text string) {
			fmt.Fprintln(help, text)
		},
	}
	opts, err := parser.ParseArgs(usage, args, Version)
	if err != nil {
		return "", nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if opts == nil {
		return "", nil, nil
	}

	for _, c := range commands {
		if ok, _ := opts.Bool(string(c)); ok {
			return c, opts, nil
		}
	}
	return "", opts, nil
}

// optString はオプションの値を返す。指定されていない場合は ok が false。
func optString(opts docopt.Opts, key string) (string, bool) {
	v, ok := opts[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
