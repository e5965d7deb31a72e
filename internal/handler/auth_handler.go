// Package handler はコンソールのHTTPハンドラー（ビュー）を提供する。
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/leadman/internal/model"
)

// minPasswordLength は登録時のパスワードの最小文字数。
const minPasswordLength = 6

// SessionService は認証ハンドラーが必要とするセッション操作。
// 実装は auth.Manager。
type SessionService interface {
	State() model.SessionState
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Logout(ctx context.Context)
}

// AuthHandler はログイン・登録・ログアウトのハンドラー。
type AuthHandler struct {
	sessions SessionService
	homePath string
	rs       *responder
}

// newAuthHandler はAuthHandlerを生成する。
func newAuthHandler(sessions SessionService, homePath string, rs *responder) *AuthHandler {
	return &AuthHandler{sessions: sessions, homePath: homePath, rs: rs}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type formView struct {
	View   string   `json:"view"`
	Fields []string `json:"fields"`
}

// LoginForm はログインビューを返す。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formView{View: "login", Fields: []string{"email", "password"}})
}

// Login はログインを処理し、成功時はダッシュボードへ遷移する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.fail(w, r, "Login failed", err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.rs.fail(w, r, "Login failed", model.NewValidationError("email", "Email and password are required"))
		return
	}

	if _, err := h.sessions.Login(r.Context(), strings.TrimSpace(req.Email), req.Password); err != nil {
		h.rs.fail(w, r, "Login failed", err)
		return
	}
	h.rs.notifier.Success("Welcome back!")
	redirect(w, r, h.homePath)
}

// RegisterForm は登録ビューを返す。
// GET /register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, formView{View: "register", Fields: []string{"name", "email", "password"}})
}

// Register はアカウント作成を処理する。バックエンドは作成と同時にログインさせる。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.fail(w, r, "Registration failed", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		h.rs.fail(w, r, "Registration failed", model.NewValidationError("name", "Name and email are required"))
		return
	}
	if len([]rune(req.Password)) < minPasswordLength {
		h.rs.fail(w, r, "Registration failed", model.NewValidationError("password", "Password must be at least 6 characters"))
		return
	}

	if _, err := h.sessions.Register(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password); err != nil {
		h.rs.fail(w, r, "Registration failed", err)
		return
	}
	h.rs.notifier.Success("Account created successfully!")
	redirect(w, r, h.homePath)
}

// Logout はセッションを破棄してログイン画面へ遷移する。失敗しない。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	redirect(w, r, h.rs.loginPath)
}
