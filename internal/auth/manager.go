// Package auth はクライアントのセッション管理を提供する。
//
// Manager はセッション状態の唯一の書き込み手であり、
// ルートガード・APIクライアント・ハンドラーは Manager を介して状態を参照する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/repository"
)

// Authenticator はバックエンドの認証エンドポイントを表すインターフェース。
// 実装は apiclient.Client。
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Register(ctx context.Context, name, email, password string) (*model.Session, error)
	Me(ctx context.Context) (*model.User, error)
}

// Manager はメモリ上のセッション状態と永続化ストアを同期して管理する。
type Manager struct {
	api    Authenticator
	store  repository.SessionStore
	logger *slog.Logger

	// writeMu は状態変更とストア書き込みを直列化する。
	writeMu sync.Mutex

	mu      sync.RWMutex
	token   string
	user    *model.User
	loading bool
	// gen はセッションが置き換わるたびに進む世代番号。
	// 古い世代で開始した再検証の結果は適用しない。
	gen uint64

	// onEnd はセッションがクリアされたときに呼ぶ関数。writeMuで保護する。
	onEnd []func()

	initOnce  sync.Once
	ready     chan struct{}
	readyOnce sync.Once
}

// NewManager はManagerを生成する。Initialize が完了するまで loading は true。
func NewManager(api Authenticator, store repository.SessionStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:     api,
		store:   store,
		logger:  logger,
		loading: true,
		ready:   make(chan struct{}),
	}
}

// OnSessionEnd はログアウト・認証拒否・再検証失敗でセッションがクリアされたときに
// 呼ばれる関数を登録する。前のセッションのビュー状態を破棄するために使う。
// fnの中からManagerのメソッドを呼んではならない。
func (m *Manager) OnSessionEnd(fn func()) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.onEnd = append(m.onEnd, fn)
}

// Initialize は保存済みセッションを読み込み、非同期で再検証を開始する。
// キャッシュ済みユーザーは即座に反映され、再検証が完了した時点で loading が false になる。
// 2回目以降の呼び出しは何もしない。
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		m.initialize(ctx)
	})
}

func (m *Manager) initialize(ctx context.Context) {
	sess, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCorruptSession) {
			m.logger.Warn("保存済みセッションが破損しているため削除します", slog.String("error", err.Error()))
			if clearErr := m.store.Clear(ctx); clearErr != nil {
				m.logger.Error("破損セッションの削除に失敗しました", slog.String("error", clearErr.Error()))
			}
		} else {
			m.logger.Error("セッションの読み込みに失敗しました", slog.String("error", err.Error()))
		}
		m.finishLoading()
		return
	}
	if !sess.Valid() {
		m.finishLoading()
		return
	}

	m.writeMu.Lock()
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.token = sess.Token
	user := sess.User
	m.user = &user
	m.mu.Unlock()
	m.writeMu.Unlock()

	go m.revalidate(context.WithoutCancel(ctx), gen, sess.Token)
}

// revalidate はキャッシュ済みトークンで現在のユーザーを再取得する。
func (m *Manager) revalidate(ctx context.Context, gen uint64, token string) {
	defer m.finishLoading()

	user, err := m.api.Me(ctx)

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	current := m.gen
	m.mu.RUnlock()
	if current != gen {
		m.logger.Debug("新しいセッションがあるため再検証結果を破棄します")
		return
	}

	if err != nil {
		m.logger.Info("セッションの再検証に失敗したためクリアします", slog.String("error", err.Error()))
		m.clearLocked(ctx)
		return
	}

	if saveErr := m.store.Save(ctx, &model.Session{Token: token, User: *user}); saveErr != nil {
		m.logger.Warn("再検証したユーザーの保存に失敗しました", slog.String("error", saveErr.Error()))
	}
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

func (m *Manager) finishLoading() {
	m.readyOnce.Do(func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
		close(m.ready)
	})
}

// Ready は初期化（再検証を含む）が完了したときに閉じられるチャネルを返す。
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Login は認証情報でログインし、トークンとユーザーを同時に保存する。
// 失敗時のエラーはそのまま返し、状態は変更しない。
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	sess, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.establish(ctx, sess); err != nil {
		return nil, err
	}
	return &sess.User, nil
}

// Register はアカウントを作成し、Login と同じ契約でセッションを確立する。
func (m *Manager) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	sess, err := m.api.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.establish(ctx, sess); err != nil {
		return nil, err
	}
	return &sess.User, nil
}

// establish は永続化に成功した場合のみメモリ上の状態を置き換える。
func (m *Manager) establish(ctx context.Context, sess *model.Session) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.store.Save(ctx, sess); err != nil {
		m.logger.Error("セッションの保存に失敗しました", slog.String("error", err.Error()))
		return fmt.Errorf("failed to persist session: %w", err)
	}

	user := sess.User
	m.mu.Lock()
	m.gen++
	m.token = sess.Token
	m.user = &user
	m.mu.Unlock()

	m.logger.Info("ログインしました", slog.String("user_id", user.ID))
	return nil
}

// Logout はメモリとストアの両方からセッションを削除する。失敗しない。
func (m *Manager) Logout(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.clearLocked(ctx)
	m.logger.Info("ログアウトしました")
}

// HandleAuthRejection はtokenを付けたリクエストが401で拒否されたときに呼ばれる。
// トークンなしで送ったリクエストの拒否や、既に別のセッションに置き換わっている場合は何もしない。
func (m *Manager) HandleAuthRejection(ctx context.Context, token string) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	current := m.token
	m.mu.RUnlock()
	if current == "" || token == "" || token != current {
		return
	}

	m.logger.Warn("バックエンドが認証を拒否したためセッションをクリアします")
	m.clearLocked(context.WithoutCancel(ctx))
}

// clearLocked はwriteMuを保持した状態で呼び出す。
func (m *Manager) clearLocked(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("保存済みセッションの削除に失敗しました", slog.String("error", err.Error()))
	}

	for _, fn := range m.onEnd {
		fn()
	}
}

// State は現在のセッション状態のスナップショットを返す。
func (m *Manager) State() model.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := model.SessionState{Loading: m.loading}
	if m.user != nil {
		u := *m.user
		st.User = &u
	}
	return st
}

// Token は現在のBearerトークンを返す。未ログイン時は空文字列。
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}
