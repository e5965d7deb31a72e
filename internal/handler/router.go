package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/leadman/internal/middleware"
	"github.com/hitoshi/leadman/internal/repository"
	"github.com/hitoshi/leadman/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// セッション
	Sessions SessionService
	Guard    middleware.GuardConfig

	// 通知とビュー
	Notifications NotificationSource
	Sanitizer     security.TextSanitizer

	// リード・担当者・テンプレート
	Leads     repository.LeadRepository
	Board     LeadBoard
	Contacts  ContactDirectory
	Templates TemplateCatalog

	// AIエンリッチメント
	Enricher Enricher

	// 運用
	Backend BackendProber // nilの場合は /health でバックエンドを確認しない
	Metrics http.Handler  // nilの場合は /metrics を公開しない
}

// NewRouter は全ビューのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Session → Logging → RequireJSON
//
// ルートは公開専用（ログイン・登録）とログイン必須に分かれ、
// それぞれのグループにルートガードを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	guard := deps.Guard
	if guard.LoginPath == "" || guard.HomePath == "" {
		guard = middleware.DefaultGuardConfig()
	}

	rs := &responder{notifier: deps.Notifications, logger: logger, loginPath: guard.LoginPath}
	views := viewBuilder{sanitizer: deps.Sanitizer}

	authHandler := newAuthHandler(deps.Sessions, guard.HomePath, rs)
	dashboardHandler := newDashboardHandler(deps.Leads, views, rs)
	leadHandler := newLeadHandler(deps.Leads, deps.Board, deps.Contacts, deps.Enricher, views, rs)
	contactHandler := newContactHandler(deps.Contacts, views, rs)
	templateHandler := newTemplateHandler(deps.Templates, rs)
	discoverHandler := newDiscoverHandler(deps.Enricher, views, rs)

	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.Sessions))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRequireJSONMiddleware())

	// --- 常に公開するルート ---
	r.Get("/health", health(deps.Backend))
	r.Get("/notifications", drainNotifications(deps.Notifications))
	r.Post("/logout", authHandler.Logout)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// --- 未ログインのみ ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewPublicOnlyMiddleware(deps.Sessions, guard))

		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/register", authHandler.RegisterForm)
		r.Post("/register", authHandler.Register)
	})

	// --- ログイン必須 ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewProtectedMiddleware(deps.Sessions, guard))

		r.Get("/dashboard", dashboardHandler.Show)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", leadHandler.List)
			r.Post("/", leadHandler.Create)
			r.Post("/seed", leadHandler.Seed)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", leadHandler.Detail)
				r.Put("/", leadHandler.Update)
				r.Delete("/", leadHandler.Delete)
				r.Put("/status", leadHandler.ChangeStatus)
				r.Post("/contacts", leadHandler.AddContact)

				// AIエンリッチメント
				r.Post("/research", leadHandler.Research)
				r.Post("/discover-contacts", leadHandler.DiscoverContacts)
				r.Post("/email", leadHandler.GenerateEmail)
				r.Delete("/ai", leadHandler.DiscardAI)
			})
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", contactHandler.List)
			r.Put("/{id}", contactHandler.Update)
			r.Delete("/{id}", contactHandler.Delete)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", templateHandler.List)
			r.Get("/starters", templateHandler.Starters)
			r.Post("/", templateHandler.Create)
			r.Put("/{id}", templateHandler.Update)
			r.Delete("/{id}", templateHandler.Delete)
		})

		r.Route("/discover", func(r chi.Router) {
			r.Get("/", discoverHandler.Show)
			r.Delete("/", discoverHandler.Discard)
			r.Post("/research", discoverHandler.Research)
			r.Post("/contacts", discoverHandler.DiscoverContacts)
			r.Post("/save", discoverHandler.Save)
		})
	})

	home := func(w http.ResponseWriter, r *http.Request) {
		redirect(w, r, guard.HomePath)
	}
	r.Get("/", home)
	r.NotFound(home)

	return r
}
