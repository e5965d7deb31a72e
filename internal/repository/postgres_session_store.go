package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/leadman/internal/model"
)

// PostgresSessionStore はPostgreSQLの client_sessions テーブルにセッションを保存するストア。
// 1プロファイル1行で、トークンとユーザーを同じ行に持つ。
type PostgresSessionStore struct {
	db      *sql.DB
	profile string
}

// NewPostgresSessionStore はPostgresSessionStoreを生成する。
// profileはこのコンソールが使う行のキー。
func NewPostgresSessionStore(db *sql.DB, profile string) *PostgresSessionStore {
	if profile == "" {
		profile = "default"
	}
	return &PostgresSessionStore{db: db, profile: profile}
}

// Load はプロファイルのセッションを取得する。行が存在しない場合はnilを返す。
func (s *PostgresSessionStore) Load(ctx context.Context) (*model.Session, error) {
	var token string
	var userData []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_data FROM client_sessions WHERE profile = $1`,
		s.profile,
	).Scan(&token, &userData)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess := &model.Session{Token: token}
	if err := json.Unmarshal(userData, &sess.User); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if !sess.Valid() {
		return nil, fmt.Errorf("%w: token or user missing", ErrCorruptSession)
	}
	return sess, nil
}

// Save はセッションをアップサートする。
func (s *PostgresSessionStore) Save(ctx context.Context, session *model.Session) error {
	if !session.Valid() {
		return fmt.Errorf("refusing to save incomplete session")
	}
	userData, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO client_sessions (profile, token, user_data, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (profile) DO UPDATE
		 SET token = EXCLUDED.token, user_data = EXCLUDED.user_data, updated_at = now()`,
		s.profile, session.Token, userData,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear はプロファイルの行を削除する。
func (s *PostgresSessionStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_sessions WHERE profile = $1`,
		s.profile,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

var _ SessionStore = (*PostgresSessionStore)(nil)
