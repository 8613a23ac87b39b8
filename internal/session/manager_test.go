package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
	"github.com/TheLion102009/lioncraft-wiki/internal/wikiapi"
)

// --- モック定義 ---

type mockAuthenticator struct {
	loginFn    func(ctx context.Context, username, password string) (*wikiapi.LoginResult, error)
	registerFn func(ctx context.Context, username, email, password string) (string, error)

	loginCalls    int
	registerCalls int
}

func (m *mockAuthenticator) Login(ctx context.Context, username, password string) (*wikiapi.LoginResult, error) {
	m.loginCalls++
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return &wikiapi.LoginResult{User: &model.Identity{ID: "7", Username: username}, Message: "Login erfolgreich"}, nil
}

func (m *mockAuthenticator) Register(ctx context.Context, username, email, password string) (string, error) {
	m.registerCalls++
	if m.registerFn != nil {
		return m.registerFn(ctx, username, email, password)
	}
	return "Registrierung erfolgreich", nil
}

func newTestManager(auth Authenticator) (*Manager, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewManager(auth, logger), &buf
}

// --- テスト ---

func TestManager_Login_StoresIdentity(t *testing.T) {
	m, _ := newTestManager(&mockAuthenticator{})

	res, err := m.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	if res.Identity.ID != "7" || res.Identity.Role != model.RoleOperator {
		t.Errorf("Identity = %+v", res.Identity)
	}
	if res.Notice.Text != "Login erfolgreich" || res.Notice.Severity != model.SeveritySuccess {
		t.Errorf("Notice = %+v", res.Notice)
	}
	if !m.IsAuthenticated() {
		t.Error("ログイン後は認証済みであるべき")
	}
}

func TestManager_Login_InvalidCredentialsLeavesIdentityUnset(t *testing.T) {
	auth := &mockAuthenticator{
		loginFn: func(_ context.Context, _, _ string) (*wikiapi.LoginResult, error) {
			return nil, model.NewInvalidCredentialsError("Invalid credentials")
		},
	}
	m, _ := newTestManager(auth)

	_, err := m.Login(context.Background(), "admin", "secret")
	if model.CodeOf(err) != model.ErrCodeInvalidCredentials {
		t.Fatalf("エラーコード = %q, want %q", model.CodeOf(err), model.ErrCodeInvalidCredentials)
	}
	if got := model.NoticeFromError(err).Text; got != "Invalid credentials" {
		t.Errorf("表示メッセージ = %q, want %q", got, "Invalid credentials")
	}
	if m.Current() != nil {
		t.Error("ログイン失敗時にIdentityが設定されてはならない")
	}
}

func TestManager_Login_EmptyFieldsSkipNetwork(t *testing.T) {
	auth := &mockAuthenticator{}
	m, _ := newTestManager(auth)

	_, err := m.Login(context.Background(), " ", "")
	if model.CodeOf(err) != model.ErrCodeValidation {
		t.Errorf("エラーコード = %q, want %q", model.CodeOf(err), model.ErrCodeValidation)
	}
	if auth.loginCalls != 0 {
		t.Errorf("ネットワーク呼び出し回数 = %d, want 0", auth.loginCalls)
	}
}

func TestManager_Login_StaleResponseDiscardedAfterLogout(t *testing.T) {
	var m *Manager
	auth := &mockAuthenticator{
		loginFn: func(_ context.Context, username, _ string) (*wikiapi.LoginResult, error) {
			// 応答待ちの間にログアウトされた状況を再現する
			m.Logout()
			return &wikiapi.LoginResult{User: &model.Identity{ID: "7", Username: username}}, nil
		},
	}
	m, _ = newTestManager(auth)

	_, err := m.Login(context.Background(), "admin", "secret")
	if !errors.Is(err, model.ErrStaleResult) {
		t.Fatalf("err = %v, want ErrStaleResult", err)
	}
	if m.IsAuthenticated() {
		t.Error("破棄されたログイン結果でIdentityが設定されてはならない")
	}
}

func TestManager_Register_PasswordMismatchSkipsNetwork(t *testing.T) {
	auth := &mockAuthenticator{}
	m, _ := newTestManager(auth)

	_, err := m.Register(context.Background(), RegisterInput{
		Username:        "steve",
		Email:           "steve@example.com",
		Password:        "x",
		ConfirmPassword: "y",
	})
	if model.CodeOf(err) != model.ErrCodePasswordMismatch {
		t.Fatalf("エラーコード = %q, want %q", model.CodeOf(err), model.ErrCodePasswordMismatch)
	}
	if auth.registerCalls != 0 {
		t.Errorf("ネットワーク呼び出し回数 = %d, want 0", auth.registerCalls)
	}
}

func TestManager_Register_DoesNotLogIn(t *testing.T) {
	auth := &mockAuthenticator{}
	m, _ := newTestManager(auth)

	notice, err := m.Register(context.Background(), RegisterInput{
		Username: "steve", Email: "steve@example.com", Password: "pw", ConfirmPassword: "pw",
	})
	if err != nil {
		t.Fatalf("Register がエラーを返した: %v", err)
	}
	if notice.Severity != model.SeveritySuccess {
		t.Errorf("Notice = %+v", notice)
	}
	if m.IsAuthenticated() {
		t.Error("登録後に自動ログインしてはならない")
	}
	if auth.loginCalls != 0 {
		t.Errorf("Login 呼び出し回数 = %d, want 0", auth.loginCalls)
	}
}

func TestManager_Register_ServerRejection(t *testing.T) {
	auth := &mockAuthenticator{
		registerFn: func(_ context.Context, _, _, _ string) (string, error) {
			return "", model.NewRegistrationError("Benutzername bereits vergeben")
		},
	}
	m, _ := newTestManager(auth)

	_, err := m.Register(context.Background(), RegisterInput{
		Username: "admin", Email: "a@example.com", Password: "pw", ConfirmPassword: "pw",
	})
	if model.CodeOf(err) != model.ErrCodeRegistration {
		t.Errorf("エラーコード = %q, want %q", model.CodeOf(err), model.ErrCodeRegistration)
	}
}

func TestManager_Logout_ClearsIdentityAndRunsHooks(t *testing.T) {
	m, _ := newTestManager(&mockAuthenticator{})
	var hookCalls int
	m.OnLogout(func() { hookCalls++ })

	if _, err := m.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	m.Logout()

	if m.IsAuthenticated() {
		t.Error("ログアウト後にIdentityが残っている")
	}
	if hookCalls != 1 {
		t.Errorf("フック呼び出し回数 = %d, want 1", hookCalls)
	}

	// 未ログインでもフックは無条件に呼ばれる
	m.Logout()
	if hookCalls != 2 {
		t.Errorf("フック呼び出し回数 = %d, want 2", hookCalls)
	}
}

func TestManager_Require(t *testing.T) {
	m, buf := newTestManager(&mockAuthenticator{})

	if _, err := m.Require(); !errors.Is(err, model.ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("without identity")) {
		t.Error("前提条件違反がログに記録されていない")
	}

	m.Login(context.Background(), "admin", "secret")
	id, err := m.Require()
	if err != nil {
		t.Fatalf("Require がエラーを返した: %v", err)
	}
	if id.Username != "admin" {
		t.Errorf("Username = %q", id.Username)
	}
}

func TestManager_Current_ReturnsCopy(t *testing.T) {
	m, _ := newTestManager(&mockAuthenticator{})
	m.Login(context.Background(), "admin", "secret")

	id := m.Current()
	id.Username = "mallory"

	if m.Current().Username != "admin" {
		t.Error("Current の戻り値を変更しても内部状態が変わってはならない")
	}
}
