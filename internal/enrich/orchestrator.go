// Package enrich はAIエンリッチメント（企業リサーチ・担当者探索・メール生成）の
// 非同期実行と結果スロットの管理を行う。
//
// 対象（保存済みリードまたは未保存の企業下書き）ごとに3つのスロットを持ち、
// 各スロットは独立して実行中フラグ・結果・エラーを保持する。
// 実行中の操作は呼び出し元のキャンセルに影響されず最後まで実行される。
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/leadman/internal/metrics"
	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/repository"
)

// AIService はバックエンドのAIエンドポイントを表すインターフェース。
// 実装は apiclient.Client。
type AIService interface {
	Research(ctx context.Context, in model.ResearchInput) (string, error)
	DiscoverContacts(ctx context.Context, companyName, leadID string) (string, error)
	GenerateEmail(ctx context.Context, leadID, templateID string) (string, error)
}

// Subject はスロットの持ち主を識別するキー。
type Subject string

// LeadSubject は保存済みリードのSubjectを返す。
func LeadSubject(leadID string) Subject {
	return Subject("lead:" + leadID)
}

// DraftSubject は未保存の企業下書きのSubjectを返す。
// 企業名の大文字小文字と空白の違いは同じ下書きとして扱う。
func DraftSubject(companyName string) Subject {
	return Subject("draft:" + strings.ToLower(strings.Join(strings.Fields(companyName), " ")))
}

// slotState は1スロットの内部状態。
type slotState struct {
	seq      uint64 // 最後に発行した呼び出しの番号
	inflight int
	text     string
	err      string
}

// subjectState は1対象分のスロット群。Discardで丸ごと破棄される。
type subjectState struct {
	slots map[model.AIKind]*slotState
}

func (s *subjectState) slot(kind model.AIKind) *slotState {
	st, ok := s.slots[kind]
	if !ok {
		st = &slotState{}
		s.slots[kind] = st
	}
	return st
}

// Task は発行済みの1回の呼び出し。
type Task struct {
	ID      string
	Subject Subject
	Kind    model.AIKind

	done    chan struct{}
	text    string
	err     error
	applied bool
}

// Done は呼び出しが完了したときに閉じられるチャネルを返す。
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait は完了を待ち、この呼び出し自身の結果を返す。
// 結果がスロットに反映されたかどうかに関係なく返す。
func (t *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.text, t.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Applied は結果がスロットに反映されたかを返す。完了前は false。
func (t *Task) Applied() bool {
	select {
	case <-t.done:
		return t.applied
	default:
		return false
	}
}

// Orchestrator はAI操作の発行と結果スロットを管理する。
type Orchestrator struct {
	ai       AIService
	leads    repository.LeadRepository
	recorder metrics.Recorder
	logger   *slog.Logger

	mu       sync.Mutex
	subjects map[Subject]*subjectState
	wg       sync.WaitGroup
}

// NewOrchestrator はOrchestratorを生成する。
func NewOrchestrator(ai AIService, leads repository.LeadRepository, recorder metrics.Recorder, logger *slog.Logger) *Orchestrator {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		ai:       ai,
		leads:    leads,
		recorder: recorder,
		logger:   logger,
		subjects: make(map[Subject]*subjectState),
	}
}

// RequestResearch は企業リサーチを発行する。企業名が空の場合はリクエストしない。
func (o *Orchestrator) RequestResearch(ctx context.Context, subject Subject, in model.ResearchInput) (*Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return o.start(ctx, subject, model.AIKindResearch, func(ctx context.Context) (string, error) {
		return o.ai.Research(ctx, in)
	}), nil
}

// RequestContactDiscovery は担当者候補の探索を発行する。
// 対象がリードの場合はリードIDも送る。
func (o *Orchestrator) RequestContactDiscovery(ctx context.Context, subject Subject, companyName string) (*Task, error) {
	if strings.TrimSpace(companyName) == "" {
		return nil, model.NewValidationError("company_name", "Company name is required")
	}
	leadID := strings.TrimPrefix(string(subject), "lead:")
	if leadID == string(subject) {
		leadID = ""
	}
	return o.start(ctx, subject, model.AIKindContacts, func(ctx context.Context) (string, error) {
		return o.ai.DiscoverContacts(ctx, companyName, leadID)
	}), nil
}

// RequestEmailGeneration はリード宛てのメール生成を発行する。templateIDは任意。
func (o *Orchestrator) RequestEmailGeneration(ctx context.Context, subject Subject, leadID, templateID string) (*Task, error) {
	if strings.TrimSpace(leadID) == "" {
		return nil, model.NewValidationError("lead_id", "Email generation requires a saved lead")
	}
	return o.start(ctx, subject, model.AIKindEmail, func(ctx context.Context) (string, error) {
		return o.ai.GenerateEmail(ctx, leadID, templateID)
	}), nil
}

func (o *Orchestrator) start(ctx context.Context, subject Subject, kind model.AIKind, call func(context.Context) (string, error)) *Task {
	o.mu.Lock()
	st, ok := o.subjects[subject]
	if !ok {
		st = &subjectState{slots: make(map[model.AIKind]*slotState)}
		o.subjects[subject] = st
	}
	slot := st.slot(kind)
	slot.seq++
	seq := slot.seq
	slot.inflight++
	o.mu.Unlock()

	task := &Task{
		ID:      uuid.NewString(),
		Subject: subject,
		Kind:    kind,
		done:    make(chan struct{}),
	}
	o.recorder.AIStarted(string(kind))
	o.logger.Debug("AI操作を開始しました",
		slog.String("task_id", task.ID),
		slog.String("subject", string(subject)),
		slog.String("kind", string(kind)),
	)

	detached := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		started := time.Now()
		text, err := call(detached)
		o.finish(task, st, seq, text, err, time.Since(started))
	}()
	return task
}

// finish は呼び出しの結果を、対象がまだ有効でかつ最新の呼び出しである場合のみスロットに反映する。
func (o *Orchestrator) finish(task *Task, st *subjectState, seq uint64, text string, err error, elapsed time.Duration) {
	o.mu.Lock()
	slot := st.slot(task.Kind)
	slot.inflight--
	current, alive := o.subjects[task.Subject]
	applied := alive && current == st && seq == slot.seq
	if applied {
		if err != nil {
			// 直前の結果テキストは残す
			slot.err = model.UserMessage(task.Kind.FailureLabel(), err)
		} else {
			slot.text = text
			slot.err = ""
		}
	}
	o.mu.Unlock()

	outcome := metrics.OutcomeSuccess
	switch {
	case !applied:
		outcome = metrics.OutcomeDiscarded
	case err != nil:
		outcome = metrics.OutcomeFailure
	}
	o.recorder.AIFinished(string(task.Kind), outcome, elapsed)

	if err != nil {
		o.logger.Warn("AI操作が失敗しました",
			slog.String("task_id", task.ID),
			slog.String("subject", string(task.Subject)),
			slog.String("kind", string(task.Kind)),
			slog.Bool("applied", applied),
			slog.String("error", err.Error()),
		)
	} else {
		o.logger.Debug("AI操作が完了しました",
			slog.String("task_id", task.ID),
			slog.String("kind", string(task.Kind)),
			slog.Bool("applied", applied),
			slog.Duration("elapsed", elapsed),
		)
	}

	task.text = text
	task.err = err
	task.applied = applied
	close(task.done)
}

// Pending は対象のスロットで実行中の呼び出しがあるかを返す。
func (o *Orchestrator) Pending(subject Subject, kind model.AIKind) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.subjects[subject]
	if !ok {
		return false
	}
	slot, ok := st.slots[kind]
	return ok && slot.inflight > 0
}

// Snapshot は対象の3スロットのコピーを返す。
func (o *Orchestrator) Snapshot(subject Subject) model.AIResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	var res model.AIResult
	st, ok := o.subjects[subject]
	if !ok {
		return res
	}
	for kind, slot := range st.slots {
		if out := res.Slot(kind); out != nil {
			*out = model.AISlot{Text: slot.text, Pending: slot.inflight > 0, Error: slot.err}
		}
	}
	return res
}

// Discard は画面遷移時に対象のスロットを破棄する。
// 以降に完了した呼び出しの結果は反映しない。
func (o *Orchestrator) Discard(subject Subject) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subjects, subject)
}

// Reset はセッション終了時に全ての対象のスロットを破棄する。
// 実行中の呼び出しは最後まで実行されるが、結果はスロットに反映されない。
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	n := len(o.subjects)
	o.subjects = make(map[Subject]*subjectState)
	o.mu.Unlock()

	if n > 0 {
		o.logger.Debug("AIスロットを破棄しました", slog.Int("subjects", n))
	}
}

// PersistResearch はリサーチ結果をリードの ai_insights に書き戻す。
// 自動では呼ばれず、呼び出し側が明示的に実行する。
func (o *Orchestrator) PersistResearch(ctx context.Context, leadID, text string) (*model.Lead, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewValidationError("ai_insights", "No research to save")
	}
	l, err := o.leads.Update(ctx, leadID, model.LeadPatch{AIInsights: &text})
	if err != nil {
		return nil, fmt.Errorf("failed to persist research for lead %s: %w", leadID, err)
	}
	return l, nil
}

// SaveAsLead は企業下書きからリードを作成する。
// 下書きに取得済みのリサーチ結果がある場合のみ ai_insights として保存し、
// 担当者探索とメールの結果は保存しない。
// リード作成後のリサーチ保存に失敗した場合は、作成済みのリードとエラーの両方を返す。
func (o *Orchestrator) SaveAsLead(ctx context.Context, draft model.DiscoveryDraft) (*model.Lead, error) {
	in := draft.LeadInput()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	subject := DraftSubject(draft.CompanyName)
	research := o.Snapshot(subject).Research.Text

	created, err := o.leads.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to save discovered company: %w", err)
	}
	o.Discard(subject)

	if research == "" {
		return created, nil
	}
	updated, err := o.PersistResearch(ctx, created.ID, research)
	if err != nil {
		return created, err
	}
	return updated, nil
}

// Shutdown は実行中の呼び出しが全て完了するかctxが終了するまで待つ。
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
