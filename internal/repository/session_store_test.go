package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/leadman/internal/model"
)

func testSession() *model.Session {
	return &model.Session{
		Token: "tok-123",
		User:  model.User{ID: "u1", Email: "alice@example.com", Name: "Alice"},
	}
}

// --- FileSessionStore ---

func TestFileSessionStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileSessionStore(path)

	got, err := store.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("Load on empty = %v, %v; want nil, nil", got, err)
	}

	if err := store.Save(ctx, testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Token != "tok-123" || got.User.Name != "Alice" {
		t.Errorf("loaded = %+v", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file should be removed, stat err = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Errorf("second Clear should succeed, got %v", err)
	}
}

func TestFileSessionStore_RejectsIncompleteSession(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	if err := store.Save(context.Background(), &model.Session{Token: "tok"}); err == nil {
		t.Fatal("expected error for session without user")
	}
	if got, _ := store.Load(context.Background()); got != nil {
		t.Errorf("nothing should be persisted, got %+v", got)
	}
}

func TestFileSessionStore_CorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"不正なJSON", "{not json"},
		{"トークンのみ", `{"token":"tok","user":{}}`},
		{"ユーザーのみ", `{"user":{"id":"u1"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := NewFileSessionStore(path).Load(context.Background())
			if !errors.Is(err, ErrCorruptSession) {
				t.Errorf("error = %v, want ErrCorruptSession", err)
			}
		})
	}
}

// --- PostgresSessionStore ---

func newMockSessionDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestPostgresSessionStore_Load(t *testing.T) {
	db, mock := newMockSessionDB(t)
	store := NewPostgresSessionStore(db, "work")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT token, user_data FROM client_sessions WHERE profile = $1`)).
		WithArgs("work").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_data"}).
			AddRow("tok-123", []byte(`{"id":"u1","email":"alice@example.com","name":"Alice"}`)))

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Token != "tok-123" || got.User.ID != "u1" {
		t.Errorf("loaded = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionStore_LoadNoRows(t *testing.T) {
	db, mock := newMockSessionDB(t)
	store := NewPostgresSessionStore(db, "")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT token, user_data FROM client_sessions`)).
		WithArgs("default").
		WillReturnError(sql.ErrNoRows)

	got, err := store.Load(context.Background())
	if err != nil || got != nil {
		t.Errorf("Load = %v, %v; want nil, nil", got, err)
	}
}

func TestPostgresSessionStore_LoadCorruptUser(t *testing.T) {
	db, mock := newMockSessionDB(t)
	store := NewPostgresSessionStore(db, "default")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT token, user_data FROM client_sessions`)).
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_data"}).AddRow("tok", []byte(`[]`)))

	if _, err := store.Load(context.Background()); !errors.Is(err, ErrCorruptSession) {
		t.Errorf("error = %v, want ErrCorruptSession", err)
	}
}

func TestPostgresSessionStore_SaveUpserts(t *testing.T) {
	db, mock := newMockSessionDB(t)
	store := NewPostgresSessionStore(db, "default")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO client_sessions (profile, token, user_data, updated_at)`)).
		WithArgs("default", "tok-123", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Save(context.Background(), testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionStore_Clear(t *testing.T) {
	db, mock := newMockSessionDB(t)
	store := NewPostgresSessionStore(db, "default")

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM client_sessions WHERE profile = $1`)).
		WithArgs("default").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSessionStore_SaveError(t *testing.T) {
	db, mock := newMockSessionDB(t)
	store := NewPostgresSessionStore(db, "default")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO client_sessions`)).
		WillReturnError(errors.New("connection reset"))

	if err := store.Save(context.Background(), testSession()); err == nil {
		t.Fatal("expected error")
	}
}

// --- RedisSessionStore ---

// newTestRedis は REDIS_URL が設定されている場合のみRedisクライアントを返す。
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL が未設定のためスキップ")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("redis.ParseURL: %v", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redisに接続できません（スキップ）: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisSessionStore_SaveLoadClear(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewRedisSessionStore(rdb, "leadman:test:"+t.Name()+":")
	t.Cleanup(func() { _ = store.Clear(ctx) })

	if got, err := store.Load(ctx); err != nil || got != nil {
		t.Fatalf("Load on empty = %v, %v", got, err)
	}
	if err := store.Save(ctx, testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Token != "tok-123" || got.User.Email != "alice@example.com" {
		t.Errorf("loaded = %+v", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := rdb.Exists(ctx, store.tokenKey(), store.userKey()).Result(); n != 0 {
		t.Errorf("keys remaining = %d, want 0", n)
	}
}

func TestRedisSessionStore_PartialIsCorrupt(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewRedisSessionStore(rdb, "leadman:test:"+t.Name()+":")
	t.Cleanup(func() { _ = store.Clear(ctx) })

	if err := rdb.Set(ctx, store.tokenKey(), "tok", 0).Err(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrCorruptSession) {
		t.Errorf("error = %v, want ErrCorruptSession", err)
	}
}

func TestNewRedisSessionStore_DefaultPrefix(t *testing.T) {
	store := NewRedisSessionStore(nil, "")
	if store.tokenKey() != "leadman:session:token" {
		t.Errorf("tokenKey = %q", store.tokenKey())
	}
	if store.userKey() != "leadman:session:user" {
		t.Errorf("userKey = %q", store.userKey())
	}
}
