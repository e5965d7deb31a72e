// Package prune は使われなくなったセッション行の削除ジョブを提供する。
// SESSION_STORE=postgres では複数のプロファイルが同じテーブルを共有するため、
// 保持期間（デフォルト90日）を超えて更新されていない行を削除する。
package prune

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays はセッション行の保持日数のデフォルト値。
const DefaultRetentionDays = 90

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SessionPruneJob は古いセッション行の削除ジョブ。
// 現在のプロファイルの行は更新日時に関わらず残す。
type SessionPruneJob struct {
	db            Executor
	logger        *slog.Logger
	keepProfile   string
	RetentionDays int
}

// NewSessionPruneJob は新しいSessionPruneJobを生成する。
func NewSessionPruneJob(db Executor, keepProfile string, logger *slog.Logger) *SessionPruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionPruneJob{
		db:            db,
		logger:        logger,
		keepProfile:   keepProfile,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run は保持期間を超過したセッション行を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *SessionPruneJob) Run(ctx context.Context) error {
	if j.RetentionDays <= 0 {
		j.logger.Info("セッションの削除は無効です")
		return nil
	}
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM client_sessions WHERE updated_at < now() - $1::interval AND profile <> $2`,
		interval, j.keepProfile,
	)
	if err != nil {
		j.logger.Error("セッション削除ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("セッション削除の実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	j.logger.Info("セッション削除ジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
