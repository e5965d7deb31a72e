package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/leadman/internal/model"
)

// RedisSessionStore はRedisの2つのキーにトークンとユーザーを保存するストア。
// 書き込みと削除はMULTI/EXECで両キー同時に行う。
type RedisSessionStore struct {
	rdb       *redis.Client
	keyPrefix string
}

// NewRedisSessionStore はRedisSessionStoreを生成する。
func NewRedisSessionStore(rdb *redis.Client, keyPrefix string) *RedisSessionStore {
	if keyPrefix == "" {
		keyPrefix = "leadman:session:"
	}
	return &RedisSessionStore{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *RedisSessionStore) tokenKey() string { return s.keyPrefix + "token" }
func (s *RedisSessionStore) userKey() string  { return s.keyPrefix + "user" }

// Load は両キーを取得する。どちらも存在しない場合はnilを返す。
// 片方のみ存在する場合は壊れたセッションとして扱う。
func (s *RedisSessionStore) Load(ctx context.Context) (*model.Session, error) {
	vals, err := s.rdb.MGet(ctx, s.tokenKey(), s.userKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis MGET session: %w", err)
	}

	token, hasToken := vals[0].(string)
	userJSON, hasUser := vals[1].(string)
	if !hasToken && !hasUser {
		return nil, nil
	}
	if !hasToken || !hasUser {
		return nil, fmt.Errorf("%w: only one of token and user present", ErrCorruptSession)
	}

	sess := &model.Session{Token: token}
	if err := json.Unmarshal([]byte(userJSON), &sess.User); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if !sess.Valid() {
		return nil, fmt.Errorf("%w: token or user missing", ErrCorruptSession)
	}
	return sess, nil
}

// Save は両キーをトランザクションで書き込む。有効期限は設定しない。
func (s *RedisSessionStore) Save(ctx context.Context, session *model.Session) error {
	if !session.Valid() {
		return fmt.Errorf("refusing to save incomplete session")
	}
	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(), session.Token, 0)
		pipe.Set(ctx, s.userKey(), userJSON, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis MULTI save session: %w", err)
	}
	return nil
}

// Clear は両キーを削除する。
func (s *RedisSessionStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.tokenKey(), s.userKey()).Err(); err != nil {
		return fmt.Errorf("redis DEL session: %w", err)
	}
	return nil
}

var _ SessionStore = (*RedisSessionStore)(nil)
