// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/leadman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストにログインユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// SessionReader はセッション状態の参照に必要なインターフェース。
// auth.Manager の部分集合として定義する。
type SessionReader interface {
	State() model.SessionState
}

// NewSessionMiddleware は現在のセッションのユーザーをリクエストコンテキストに注入する。
// 未ログインのリクエストもそのまま通す。アクセス制御はルートガードが行う。
func NewSessionMiddleware(sessions SessionReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if st := sessions.State(); st.User != nil {
				r = r.WithContext(ContextWithUser(r.Context(), st.User))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext はリクエストコンテキストからログインユーザーを取得する。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userContextKey).(*model.User)
	return u, ok && u != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	u, ok := UserFromContext(ctx)
	if !ok || u.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return u.ID, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}
