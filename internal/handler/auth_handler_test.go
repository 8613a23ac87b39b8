package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TheLion102009/lioncraft-wiki/internal/model"
)

type mockAuthService struct {
	loginFn    func(ctx context.Context, username, password string) (*model.User, error)
	registerFn func(ctx context.Context, username, email, password string) (*model.User, error)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, model.NewInvalidCredentialsError("Ungültige Anmeldedaten")
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, email, password)
	}
	return &model.User{ID: "1", Username: username, Email: email}, nil
}

func TestAuthHandler_Login_Success_ReturnsUser(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (*model.User, error) {
			if username != "admin" || password != "secret" {
				t.Errorf("credentials = %q/%q", username, password)
			}
			return &model.User{ID: "1", Username: "admin", PasswordHash: "$2a$..."}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"admin","password":"secret"}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeEnvelope(t, w)
	if !body.Success || body.Message != msgLoginSucceeded {
		t.Errorf("body = %+v", body)
	}
	if body.User == nil || body.User.ID != "1" || body.User.Username != "admin" {
		t.Errorf("user = %+v", body.User)
	}
	if body.User.Role != model.RoleOperator {
		t.Errorf("role = %q, want %q", body.User.Role, model.RoleOperator)
	}
	if strings.Contains(w.Body.String(), "$2a$") {
		t.Error("パスワードハッシュが応答に含まれている")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"admin","password":"wrong"}`)))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body.Success || body.Message != "Ungültige Anmeldedaten" {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	var gotEmail string
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, username, email, password string) (*model.User, error) {
			gotEmail = email
			return &model.User{ID: "2", Username: username}, nil
		},
	}
	h := NewAuthHandler(svc, nil)

	reqBody := `{"username":"steve","email":"steve@example.com","password":"pw"}`
	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(reqBody)))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if gotEmail != "steve@example.com" {
		t.Errorf("email = %q", gotEmail)
	}
	if body := decodeEnvelope(t, w); body.Message != msgRegistrationSucceeded {
		t.Errorf("message = %q, want %q", body.Message, msgRegistrationSucceeded)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, username, email, password string) (*model.User, error) {
			return nil, model.NewRegistrationError("Benutzername bereits vergeben")
		},
	}
	h := NewAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Register(w, httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"admin","email":"a@b.c","password":"pw"}`)))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	body := decodeEnvelope(t, w)
	if body.Success || body.Code != model.ErrCodeRegistration {
		t.Errorf("body = %+v", body)
	}
}
