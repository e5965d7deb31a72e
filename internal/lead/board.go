// Package lead はリード一覧ビューの状態（一覧・絞り込み・集計）を管理する。
package lead

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/repository"
	"github.com/hitoshi/leadman/internal/search"
)

// Entry は一覧に表示する1件のリード。
// Stale はステータス変更がバックエンドに反映されなかったことを示し、
// その間 ServerStatus にバックエンド上の値を持つ。
type Entry struct {
	model.Lead
	Stale        bool             `json:"stale,omitempty"`
	ServerStatus model.LeadStatus `json:"server_status,omitempty"`
}

// staleStatus は反映されなかったステータス変更。
type staleStatus struct {
	want   model.LeadStatus
	server model.LeadStatus
}

// Board はリード一覧ビューのメモリ上の状態。
// 一覧はサーバー側のステータス絞り込み結果で、検索語による絞り込みは表示時に行う。
type Board struct {
	repo   repository.LeadRepository
	logger *slog.Logger

	mu     sync.RWMutex
	leads  []model.Lead
	stale  map[string]staleStatus
	status model.LeadStatus
	// gen はResetのたびに進む。前のセッションで始めた取得結果は反映しない。
	gen uint64
}

// NewBoard はBoardを生成する。
func NewBoard(repo repository.LeadRepository, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		repo:   repo,
		logger: logger,
		stale:  make(map[string]staleStatus),
	}
}

// Reset はセッション終了時に一覧・絞り込み条件・stale印を破棄する。
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.leads = nil
	b.status = ""
	b.stale = make(map[string]staleStatus)
}

// Refresh はステータス絞り込みを指定して一覧を再取得する。
// 失敗した場合は直前の一覧を保持したままエラーを返す。
// 反映されなかったステータス変更は、バックエンドの値が異なる間は変更後の値とstale印を保つ。
func (b *Board) Refresh(ctx context.Context, status model.LeadStatus) error {
	if status != "" && !status.Valid() {
		return model.NewValidationError("status", "unknown lead status: "+string(status))
	}

	b.mu.RLock()
	gen := b.gen
	b.mu.RUnlock()

	leads, err := b.repo.List(ctx, status)
	if err != nil {
		b.logger.Warn("リード一覧の取得に失敗したため前回の一覧を保持します",
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to list leads: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen != gen {
		b.logger.Debug("セッションが変わったため取得した一覧を破棄します")
		return nil
	}

	kept := make(map[string]staleStatus)
	for i := range leads {
		st, ok := b.stale[leads[i].ID]
		if !ok || leads[i].Status == st.want {
			continue
		}
		kept[leads[i].ID] = staleStatus{want: st.want, server: leads[i].Status}
		leads[i].Status = st.want
	}
	b.leads = leads
	b.status = status
	b.stale = kept
	return nil
}

// ChangeStatus はリードのステータスを変更する。遷移の制約はない。
// 一覧上の値はリクエスト前に更新し、失敗した場合は元に戻さずにstaleとして印を付ける。
func (b *Board) ChangeStatus(ctx context.Context, id string, status model.LeadStatus) (*model.Lead, error) {
	if !status.Valid() {
		return nil, model.NewValidationError("status", "unknown lead status: "+string(status))
	}

	b.mu.Lock()
	var server model.LeadStatus
	if i := b.indexLocked(id); i >= 0 {
		server = b.leads[i].Status
		if st, ok := b.stale[id]; ok {
			server = st.server
		}
		b.leads[i].Status = status
	}
	b.mu.Unlock()

	updated, err := b.repo.Update(ctx, id, model.LeadPatch{Status: &status})
	if err != nil {
		b.mu.Lock()
		if b.indexLocked(id) >= 0 {
			b.stale[id] = staleStatus{want: status, server: server}
		}
		b.mu.Unlock()
		b.logger.Warn("ステータスの変更に失敗しました",
			slog.String("lead_id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to change status of lead %s: %w", id, err)
	}

	b.replace(*updated)
	return updated, nil
}

// Add はリードを作成し、現在の絞り込み条件に合う場合は一覧の先頭に追加する。
func (b *Board) Add(ctx context.Context, in model.LeadInput) (*model.Lead, error) {
	b.mu.RLock()
	gen := b.gen
	b.mu.RUnlock()

	created, err := b.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	b.mu.Lock()
	if b.gen == gen && (b.status == "" || b.status == created.Status) {
		b.leads = append([]model.Lead{*created}, b.leads...)
	}
	b.mu.Unlock()
	return created, nil
}

// Update は指定フィールドのみを更新し、一覧上の値を置き換える。
func (b *Board) Update(ctx context.Context, id string, patch model.LeadPatch) (*model.Lead, error) {
	updated, err := b.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	b.replace(*updated)
	return updated, nil
}

// Remove はリードを削除し、再取得せずに一覧から取り除く。
// 担当者は削除しない。
func (b *Board) Remove(ctx context.Context, id string) error {
	if err := b.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lead %s: %w", id, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		b.leads = append(b.leads[:i], b.leads[i+1:]...)
	}
	delete(b.stale, id)
	return nil
}

func (b *Board) replace(l model.Lead) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(l.ID); i >= 0 {
		b.leads[i] = l
	}
	delete(b.stale, l.ID)
}

func (b *Board) indexLocked(id string) int {
	for i := range b.leads {
		if b.leads[i].ID == id {
			return i
		}
	}
	return -1
}

// Status は現在のサーバー側絞り込み条件を返す。空は全件。
func (b *Board) Status() model.LeadStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Entries は現在の一覧のコピーを返す。
func (b *Board) Entries() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, len(b.leads))
	for i, l := range b.leads {
		out[i] = Entry{Lead: l}
		if st, ok := b.stale[l.ID]; ok {
			out[i].Stale = true
			out[i].ServerStatus = st.server
		}
	}
	return out
}

// Filtered は企業名または業種に検索語を含むリードを返す。
func (b *Board) Filtered(query string) []Entry {
	return search.Filter(b.Entries(), query, func(e Entry) []string {
		return []string{e.CompanyName, e.Industry}
	})
}

// Stats は現在の一覧から集計値を計算する。
func (b *Board) Stats() model.LeadStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return model.ComputeLeadStats(b.leads)
}
