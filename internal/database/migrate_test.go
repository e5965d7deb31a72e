package database

import (
	"database/sql"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"
)

// testDatabaseURL はテスト用のデータベースURLを返す。
// 環境変数 TEST_DATABASE_URL が未設定の場合はテストをスキップする。
func testDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}
	return url
}

// setupTestDB はテスト用データベースを準備する。
// テスト実行前にセッションテーブルとマイグレーション履歴をドロップする。
func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	dbURL := testDatabaseURL(t)

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}

	cleanupSQL := `
		DROP TABLE IF EXISTS client_sessions CASCADE;
		DROP TABLE IF EXISTS schema_migrations CASCADE;
	`
	if _, err := db.Exec(cleanupSQL); err != nil {
		t.Fatalf("クリーンアップに失敗: %v", err)
	}

	return db, dbURL
}

// TestMigrationsEmbedded はマイグレーションファイルが埋め込まれていることを検証する。
func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("埋め込みディレクトリの読み取りに失敗: %v", err)
	}

	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Errorf("up = %d, down = %d; want matching non-zero counts", up, down)
	}
}

func TestRunMigrations_UpAndDown(t *testing.T) {
	db, dbURL := setupTestDB(t)
	defer db.Close()

	if err := RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}
	// 2回目は変更なしでエラーにならない
	if err := RunMigrations(dbURL); err != nil {
		t.Fatalf("2回目のマイグレーション実行に失敗: %v", err)
	}

	assertTableColumns(t, db, "client_sessions", map[string]string{
		"profile":    "text",
		"token":      "text",
		"user_data":  "jsonb",
		"updated_at": "timestamp with time zone",
	})
	assertNotNull(t, db, "client_sessions", []string{"profile", "token", "user_data", "updated_at"})
	assertPrimaryKey(t, db, "client_sessions", "profile")

	if err := RollbackMigrations(dbURL); err != nil {
		t.Fatalf("ロールバックに失敗: %v", err)
	}

	var exists bool
	err := db.QueryRow(
		"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'client_sessions')",
	).Scan(&exists)
	if err != nil {
		t.Fatalf("テーブル存在確認に失敗: %v", err)
	}
	if exists {
		t.Error("ロールバック後も client_sessions が存在します")
	}
}

// TestClientSessions_UpsertKeepsSingleRow はプロファイルごとに1行のみ保持されることを検証する。
func TestClientSessions_UpsertKeepsSingleRow(t *testing.T) {
	db, dbURL := setupTestDB(t)
	defer db.Close()

	if err := RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	upsert := `INSERT INTO client_sessions (profile, token, user_data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (profile) DO UPDATE SET token = EXCLUDED.token, user_data = EXCLUDED.user_data, updated_at = now()`
	for _, token := range []string{"tok-1", "tok-2"} {
		if _, err := db.Exec(upsert, "default", token, []byte(`{"id":"u1"}`)); err != nil {
			t.Fatalf("upsert に失敗: %v", err)
		}
	}

	var count int
	var token string
	if err := db.QueryRow("SELECT count(*), max(token) FROM client_sessions").Scan(&count, &token); err != nil {
		t.Fatalf("件数取得に失敗: %v", err)
	}
	if count != 1 || token != "tok-2" {
		t.Errorf("count = %d, token = %q; want 1, tok-2", count, token)
	}
}

// --- ヘルパー ---

// assertTableColumns はテーブルのカラム名とデータ型を検証する。
func assertTableColumns(t *testing.T, db *sql.DB, table string, expected map[string]string) {
	t.Helper()

	rows, err := db.Query(
		"SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1",
		table,
	)
	if err != nil {
		t.Fatalf("%s テーブルのカラム情報取得に失敗: %v", table, err)
	}
	defer rows.Close()

	actual := make(map[string]string)
	for rows.Next() {
		var name, dtype string
		if err := rows.Scan(&name, &dtype); err != nil {
			t.Fatalf("カラム情報のスキャンに失敗: %v", err)
		}
		actual[name] = dtype
	}

	for col, expectedType := range expected {
		actualType, ok := actual[col]
		if !ok {
			t.Errorf("%s.%s カラムが存在しません", table, col)
			continue
		}
		if actualType != expectedType {
			t.Errorf("%s.%s のデータ型が不正: got %q, want %q", table, col, actualType, expectedType)
		}
	}
}

// assertNotNull はカラムのNOT NULL制約を検証する。
func assertNotNull(t *testing.T, db *sql.DB, table string, columns []string) {
	t.Helper()

	for _, col := range columns {
		var isNullable string
		err := db.QueryRow(
			"SELECT is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2",
			table, col,
		).Scan(&isNullable)
		if err != nil {
			t.Errorf("%s.%s のNOT NULL制約確認に失敗: %v", table, col, err)
			continue
		}
		if isNullable != "NO" {
			t.Errorf("%s.%s にNOT NULL制約が設定されていません", table, col)
		}
	}
}

// assertPrimaryKey はプライマリキーを検証する。
func assertPrimaryKey(t *testing.T, db *sql.DB, table, column string) {
	t.Helper()

	var count int
	err := db.QueryRow(`
		SELECT count(*) FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
			AND kcu.column_name = $2
	`, table, column).Scan(&count)
	if err != nil {
		t.Fatalf("%s.%s のPK確認に失敗: %v", table, column, err)
	}
	if count == 0 {
		t.Errorf("%s.%s にプライマリキーが設定されていません", table, column)
	}
}
