package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/leadman/internal/model"
)

// GuardKind はルートの保護種別。
type GuardKind int

const (
	// GuardProtected はログイン済みユーザーのみ表示できるルート。
	GuardProtected GuardKind = iota
	// GuardPublicOnly は未ログインユーザーのみ表示できるルート（ログイン・登録）。
	GuardPublicOnly
)

// Outcome はルートガードの判定結果。
type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeWait
	OutcomeRedirect
)

// Decision はルートガードの判定。Outcome が OutcomeRedirect の場合のみ Target を持つ。
type Decision struct {
	Outcome Outcome
	Target  string
}

// GuardConfig はリダイレクト先の設定。
type GuardConfig struct {
	LoginPath string // 未ログイン時の遷移先
	HomePath  string // ログイン済みユーザーの既定の遷移先
}

// DefaultGuardConfig は既定のリダイレクト先を返す。
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{LoginPath: "/login", HomePath: "/dashboard"}
}

// Decide はセッション状態とルート種別から表示・待機・リダイレクトを判定する。
// 初期化中は常に待機とし、リダイレクトしない。
func (c GuardConfig) Decide(state model.SessionState, kind GuardKind) Decision {
	if state.Loading {
		return Decision{Outcome: OutcomeWait}
	}
	switch kind {
	case GuardPublicOnly:
		if state.SignedIn() {
			return Decision{Outcome: OutcomeRedirect, Target: c.HomePath}
		}
	default:
		if !state.SignedIn() {
			return Decision{Outcome: OutcomeRedirect, Target: c.LoginPath}
		}
	}
	return Decision{Outcome: OutcomeRender}
}

// NewProtectedMiddleware はログイン済みの場合のみハンドラーを実行するミドルウェアを返す。
func NewProtectedMiddleware(sessions SessionReader, cfg GuardConfig) func(next http.Handler) http.Handler {
	return newGuardMiddleware(sessions, cfg, GuardProtected)
}

// NewPublicOnlyMiddleware は未ログインの場合のみハンドラーを実行するミドルウェアを返す。
func NewPublicOnlyMiddleware(sessions SessionReader, cfg GuardConfig) func(next http.Handler) http.Handler {
	return newGuardMiddleware(sessions, cfg, GuardPublicOnly)
}

func newGuardMiddleware(sessions SessionReader, cfg GuardConfig, kind GuardKind) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := sessions.State()
			d := cfg.Decide(state, kind)
			switch d.Outcome {
			case OutcomeWait:
				WriteLoading(w)
			case OutcomeRedirect:
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
			default:
				if state.User != nil {
					r = r.WithContext(ContextWithUser(r.Context(), state.User))
				}
				next.ServeHTTP(w, r)
			}
		})
	}
}

// WriteLoading はセッション初期化中であることを示すレスポンスを書き込む。
// クライアントは Retry-After 秒後に再試行する。
func WriteLoading(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
}
