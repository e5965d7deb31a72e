package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/leadman/internal/middleware"
	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/notify"
)

// NotificationSource は通知の発行と取り出し。実装は notify.Center。
type NotificationSource interface {
	notify.Notifier
	Drain() []notify.Notification
}

// drainNotifications は未読の通知を返してキューを空にする。
// GET /notifications
func drainNotifications(src NotificationSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := src.Drain()
		if items == nil {
			items = []notify.Notification{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
	}
}

// BackendProber はバックエンドの疎通確認。nilの場合は確認しない。
type BackendProber interface {
	Probe(ctx context.Context) error
}

type healthView struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

// health はコンソール自身と、設定されていればバックエンドの状態を返す。
// バックエンドに到達できない場合も200を返し、backendで区別する。
// GET /health
func health(prober BackendProber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := healthView{Status: "ok"}
		if prober != nil {
			v.Backend = "ok"
			if err := prober.Probe(r.Context()); err != nil {
				v.Backend = "unreachable"
			}
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// userFromRequest はガードが注入したユーザーを返す。
func userFromRequest(r *http.Request) *model.User {
	u, _ := middleware.UserFromContext(r.Context())
	return u
}
