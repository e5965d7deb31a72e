package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/leadman/internal/apiclient"
	"github.com/hitoshi/leadman/internal/auth"
	"github.com/hitoshi/leadman/internal/config"
	"github.com/hitoshi/leadman/internal/contact"
	"github.com/hitoshi/leadman/internal/database"
	"github.com/hitoshi/leadman/internal/enrich"
	"github.com/hitoshi/leadman/internal/handler"
	"github.com/hitoshi/leadman/internal/lead"
	"github.com/hitoshi/leadman/internal/logger"
	"github.com/hitoshi/leadman/internal/metrics"
	"github.com/hitoshi/leadman/internal/middleware"
	"github.com/hitoshi/leadman/internal/notify"
	"github.com/hitoshi/leadman/internal/repository"
	"github.com/hitoshi/leadman/internal/security"
	"github.com/hitoshi/leadman/internal/template"
	"github.com/hitoshi/leadman/internal/worker/prune"
)

// storeConnectTimeout はセッションストアへの接続確認のタイムアウト。
const storeConnectTimeout = 5 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		return runHealthcheck(healthcheckURL())
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("backend_url", cfg.BackendURL),
		slog.String("session_store", cfg.SessionStore),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandLogout:
		return runLogout(cfg)
	default:
		return runServe(cfg)
	}
}

// openSessionStore は設定に応じたセッションストアを開く。
// 戻り値のclose関数は接続を持つストアの後始末を行う。
func openSessionStore(ctx context.Context, cfg *config.Config) (repository.SessionStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Ping(ctx, db, storeConnectTimeout); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		return repository.NewPostgresSessionStore(db, cfg.SessionProfile), db.Close, nil

	case config.SessionStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("redis connection established")
		return repository.NewRedisSessionStore(rdb, cfg.SessionKeyPrefix), rdb.Close, nil

	default:
		slog.Info("using file session store", slog.String("path", cfg.SessionFile))
		return repository.NewFileSessionStore(cfg.SessionFile), noop, nil
	}
}

// console はワイヤリング済みのコンソール。
type console struct {
	handler  http.Handler
	client   *apiclient.Client
	sessions *auth.Manager
	enricher *enrich.Orchestrator
}

// newConsole は全依存関係をワイヤリングする。
// クライアント生成 → セッションマネージャー生成 → クライアントへのセッション接続 の順で行う。
func newConsole(cfg *config.Config, store repository.SessionStore, reg *prometheus.Registry, log *slog.Logger) (*console, error) {
	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. バックエンドクライアント
	client, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.BackendURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.APIRateLimit,
		RateBurst: cfg.APIRateBurst,
		Recorder:  collector,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	// 3. セッション
	sessions := auth.NewManager(client, store, log)
	client.BindSession(sessions)

	// 4. リポジトリ
	leadRepo := repository.NewRemoteLeadRepo(client, security.NewWebsiteValidator())
	contactRepo := repository.NewRemoteContactRepo(client)
	templateRepo := repository.NewRemoteTemplateRepo(client)

	// 5. ビューの状態とAIエンリッチメント
	enricher := enrich.NewOrchestrator(client, leadRepo, collector, log)
	center := notify.NewCenter(cfg.NotificationCapacity)
	board := lead.NewBoard(leadRepo, log)

	// セッション終了時は前のユーザーのビュー状態を残さない
	sessions.OnSessionEnd(func() {
		enricher.Reset()
		board.Reset()
		center.Drain()
	})

	// 6. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:        log,
		Sessions:      sessions,
		Guard:         middleware.DefaultGuardConfig(),
		Notifications: center,
		Sanitizer:     security.NewTextSanitizer(),
		Leads:         leadRepo,
		Board:         board,
		Contacts:      contact.NewDirectory(contactRepo, leadRepo),
		Templates:     template.NewCatalog(templateRepo),
		Enricher:      enricher,
		Backend:       backendProbe{client: client},
		Metrics:       metrics.Handler(reg),
	})

	return &console{handler: router, client: client, sessions: sessions, enricher: enricher}, nil
}

// backendProbe はバックエンドの /api/health を呼び出す。
type backendProbe struct {
	client *apiclient.Client
}

func (p backendProbe) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()
	_, err := p.client.Health(ctx)
	return err
}

// runServe はコンソールを起動する。
// セッションストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()
	log := slog.Default()

	// 1. セッションストア
	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeStore()

	// 2. ワイヤリング
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c, err := newConsole(cfg, store, reg, log)
	if err != nil {
		return err
	}

	// 3. 保存済みセッションの読み込みと再検証（非同期）
	c.sessions.Initialize(ctx)

	// 4. バックエンドの疎通確認（失敗しても起動は続ける）
	if err := (backendProbe{client: c.client}).Probe(ctx); err != nil {
		slog.Warn("バックエンドに接続できません", slog.String("error", err.Error()))
	} else {
		slog.Info("backend reachable", slog.String("backend_url", cfg.BackendURL))
	}

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      c.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("console starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down console...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := c.enricher.Shutdown(shutdownCtx); err != nil {
		slog.Warn("実行中のAI操作の完了を待てませんでした", slog.String("error", err.Error()))
	}

	slog.Info("console stopped gracefully")
	return nil
}

// runMigrate はセッションテーブルのマイグレーションを実行し、古いセッション行を削除する。
func runMigrate(cfg *config.Config) error {
	if cfg.SessionStore != config.SessionStorePostgres {
		return fmt.Errorf("migrate requires SESSION_STORE=postgres (current: %s)", cfg.SessionStore)
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")

	// 他プロファイルの古いセッション行を削除する
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	job := prune.NewSessionPruneJob(db, cfg.SessionProfile, slog.Default())
	job.RetentionDays = cfg.SessionRetentionDays
	return job.Run(context.Background())
}

// runLogout はコンソールを起動せずに保存済みセッションを削除する。
func runLogout(cfg *config.Config) error {
	ctx := context.Background()
	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeStore()

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	slog.Info("persisted session cleared")
	return nil
}

// healthcheckURL はCONSOLE_HOST / CONSOLE_PORT からヘルスチェック先を組み立てる。
func healthcheckURL() string {
	cfg := &config.Config{
		ConsoleHost: os.Getenv("CONSOLE_HOST"),
		ConsolePort: os.Getenv("CONSOLE_PORT"),
	}
	if cfg.ConsolePort == "" {
		cfg.ConsolePort = "3000"
	}
	return cfg.ConsoleURL() + "/health"
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
