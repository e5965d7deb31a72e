package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/leadman/internal/contact"
	"github.com/hitoshi/leadman/internal/enrich"
	"github.com/hitoshi/leadman/internal/lead"
	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/repository"
)

// LeadBoard はリード一覧ビューの状態。実装は lead.Board。
type LeadBoard interface {
	Refresh(ctx context.Context, status model.LeadStatus) error
	Filtered(query string) []lead.Entry
	Stats() model.LeadStats
	Status() model.LeadStatus
	ChangeStatus(ctx context.Context, id string, status model.LeadStatus) (*model.Lead, error)
	Add(ctx context.Context, in model.LeadInput) (*model.Lead, error)
	Update(ctx context.Context, id string, patch model.LeadPatch) (*model.Lead, error)
	Remove(ctx context.Context, id string) error
}

// ContactDirectory は担当者の参照と更新。実装は contact.Directory。
type ContactDirectory interface {
	Overview(ctx context.Context, query string) ([]contact.Row, error)
	ForLead(ctx context.Context, leadID string) ([]model.Contact, error)
	AddToLead(ctx context.Context, leadID string, in model.ContactInput) (*model.Contact, error)
	Update(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error)
	Remove(ctx context.Context, id string) error
}

// Enricher はAIエンリッチメントの発行と結果参照。実装は enrich.Orchestrator。
type Enricher interface {
	RequestResearch(ctx context.Context, subject enrich.Subject, in model.ResearchInput) (*enrich.Task, error)
	RequestContactDiscovery(ctx context.Context, subject enrich.Subject, companyName string) (*enrich.Task, error)
	RequestEmailGeneration(ctx context.Context, subject enrich.Subject, leadID, templateID string) (*enrich.Task, error)
	Snapshot(subject enrich.Subject) model.AIResult
	Pending(subject enrich.Subject, kind model.AIKind) bool
	Discard(subject enrich.Subject)
	PersistResearch(ctx context.Context, leadID, text string) (*model.Lead, error)
	SaveAsLead(ctx context.Context, draft model.DiscoveryDraft) (*model.Lead, error)
}

// LeadHandler はリード一覧・詳細のハンドラー。
type LeadHandler struct {
	leads    repository.LeadRepository
	board    LeadBoard
	contacts ContactDirectory
	enricher Enricher
	views    viewBuilder
	rs       *responder
}

func newLeadHandler(leads repository.LeadRepository, board LeadBoard, contacts ContactDirectory, enricher Enricher, views viewBuilder, rs *responder) *LeadHandler {
	return &LeadHandler{
		leads:    leads,
		board:    board,
		contacts: contacts,
		enricher: enricher,
		views:    views,
		rs:       rs,
	}
}

type leadListView struct {
	Status   string          `json:"status"`
	Query    string          `json:"query"`
	Leads    []leadView      `json:"leads"`
	Stats    model.LeadStats `json:"stats"`
	Statuses []statusOption  `json:"statuses"`
	// Outdated は再取得に失敗し、前回の一覧を表示していることを示す。
	Outdated bool `json:"outdated,omitempty"`
}

type leadDetailView struct {
	Lead     leadView        `json:"lead"`
	Contacts []model.Contact `json:"contacts"`
	AI       model.AIResult  `json:"ai"`
	Statuses []statusOption  `json:"statuses"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type aiView struct {
	Lead *leadView      `json:"lead,omitempty"`
	Text string         `json:"text"`
	AI   model.AIResult `json:"ai"`
}

// List はリード一覧を返す。statusはサーバー側、qは表示側で絞り込む。
// 再取得に失敗した場合は通知したうえで前回の一覧を返す。
// GET /leads?status=&q=
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.LeadStatus("")
	if raw := r.URL.Query().Get("status"); raw != "" && raw != "all" {
		parsed, err := model.ParseLeadStatus(raw)
		if err != nil {
			h.rs.fail(w, r, "Failed to load leads", err)
			return
		}
		status = parsed
	}
	query := r.URL.Query().Get("q")

	outdated := false
	if err := h.board.Refresh(r.Context(), status); err != nil {
		if h.rs.softFail(w, r, "Failed to load leads", err) {
			return
		}
		outdated = true
	}

	writeJSON(w, http.StatusOK, leadListView{
		Status:   string(h.board.Status()),
		Query:    query,
		Leads:    h.views.entries(h.board.Filtered(query)),
		Stats:    h.board.Stats(),
		Statuses: statusOptions(),
		Outdated: outdated,
	})
}

// Create はリードを作成する。ステータス省略時はバックエンドが new を設定する。
// POST /leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.LeadInput
	if err := decodeJSON(r, &in); err != nil {
		h.rs.fail(w, r, "Failed to add lead", err)
		return
	}
	created, err := h.board.Add(r.Context(), in)
	if err != nil {
		h.rs.fail(w, r, "Failed to add lead", err)
		return
	}
	h.rs.notifier.Success("Lead added successfully")
	writeJSON(w, http.StatusCreated, h.views.lead(*created, false))
}

// Seed はサンプルリードを投入する。
// POST /leads/seed
func (h *LeadHandler) Seed(w http.ResponseWriter, r *http.Request) {
	res, err := h.leads.SeedExamples(r.Context())
	if err != nil {
		h.rs.fail(w, r, "Failed to add example leads", err)
		return
	}
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("Added %d example leads", res.TotalExamples)
	}
	h.rs.notifier.Success(msg)

	if err := h.board.Refresh(r.Context(), h.board.Status()); err != nil {
		if h.rs.softFail(w, r, "Failed to load leads", err) {
			return
		}
	}
	writeJSON(w, http.StatusOK, struct {
		*model.SeedResult
		Leads []leadView `json:"leads"`
	}{res, h.views.entries(h.board.Filtered(""))})
}

// Detail はリード・担当者・AIスロットを返す。リードが存在しない場合は一覧へ遷移する。
// GET /leads/{id}
func (h *LeadHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		l        *model.Lead
		contacts []model.Contact
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		l, err = h.leads.Get(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = h.contacts.ForLead(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		h.rs.failTo(w, r, "Failed to load lead details", "/leads", err)
		return
	}

	writeJSON(w, http.StatusOK, leadDetailView{
		Lead:     h.views.lead(*l, false),
		Contacts: h.views.contacts(contacts),
		AI:       h.views.ai(h.enricher.Snapshot(enrich.LeadSubject(id))),
		Statuses: statusOptions(),
	})
}

// Update はリードの指定フィールドを更新する。
// PUT /leads/{id}
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.LeadPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.rs.fail(w, r, "Failed to update lead", err)
		return
	}
	updated, err := h.board.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.rs.fail(w, r, "Failed to update lead", err)
		return
	}
	h.rs.notifier.Success("Lead updated")
	writeJSON(w, http.StatusOK, h.views.lead(*updated, false))
}

// ChangeStatus はステータスのみを更新する。任意のステータスへ遷移できる。
// PUT /leads/{id}/status
func (h *LeadHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.fail(w, r, "Failed to update status", err)
		return
	}
	status, err := model.ParseLeadStatus(req.Status)
	if err != nil {
		h.rs.fail(w, r, "Failed to update status", err)
		return
	}
	updated, err := h.board.ChangeStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.rs.fail(w, r, "Failed to update status", err)
		return
	}
	h.rs.notifier.Success("Status updated")
	writeJSON(w, http.StatusOK, h.views.lead(*updated, false))
}

// Delete はリードを削除する。担当者は残る。
// DELETE /leads/{id}
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.board.Remove(r.Context(), id); err != nil {
		h.rs.fail(w, r, "Failed to delete lead", err)
		return
	}
	h.enricher.Discard(enrich.LeadSubject(id))
	h.rs.notifier.Success("Lead deleted")
	w.WriteHeader(http.StatusNoContent)
}

// AddContact はリードに担当者を追加する。
// POST /leads/{id}/contacts
func (h *LeadHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	var in model.ContactInput
	if err := decodeJSON(r, &in); err != nil {
		h.rs.fail(w, r, "Failed to add contact", err)
		return
	}
	c, err := h.contacts.AddToLead(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.rs.fail(w, r, "Failed to add contact", err)
		return
	}
	h.rs.notifier.Success("Contact added")
	writeJSON(w, http.StatusCreated, h.views.contact(*c))
}

// Research はリードの企業リサーチを実行し、結果を ai_insights として保存する。
// 呼び出し元が切断しても操作は完了まで実行される。
// POST /leads/{id}/research
func (h *LeadHandler) Research(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	subject := enrich.LeadSubject(id)
	label := model.AIKindResearch.FailureLabel()
	if h.rejectDuplicate(w, r, subject, model.AIKindResearch, label) {
		return
	}

	l, err := h.leads.Get(r.Context(), id)
	if err != nil {
		h.rs.failTo(w, r, label, "/leads", err)
		return
	}
	task, err := h.enricher.RequestResearch(r.Context(), subject, model.ResearchInput{
		CompanyName:       l.CompanyName,
		Industry:          l.Industry,
		AdditionalContext: l.Notes,
	})
	if err != nil {
		h.rs.fail(w, r, label, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	text, err := task.Wait(ctx)
	if err != nil {
		h.rs.fail(w, r, label, err)
		return
	}
	saved, err := h.enricher.PersistResearch(ctx, id, text)
	if err != nil {
		h.rs.fail(w, r, "Failed to save research", err)
		return
	}

	h.rs.notifier.Success("AI research complete")
	lv := h.views.lead(*saved, false)
	writeJSON(w, http.StatusOK, aiView{Lead: &lv, Text: h.views.sanitizer.Sanitize(text), AI: h.views.ai(h.enricher.Snapshot(subject))})
}

// DiscoverContacts はリードの担当者候補を探索する。結果は保存しない。
// POST /leads/{id}/discover-contacts
func (h *LeadHandler) DiscoverContacts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	subject := enrich.LeadSubject(id)
	label := model.AIKindContacts.FailureLabel()
	if h.rejectDuplicate(w, r, subject, model.AIKindContacts, label) {
		return
	}

	l, err := h.leads.Get(r.Context(), id)
	if err != nil {
		h.rs.failTo(w, r, label, "/leads", err)
		return
	}
	task, err := h.enricher.RequestContactDiscovery(r.Context(), subject, l.CompanyName)
	if err != nil {
		h.rs.fail(w, r, label, err)
		return
	}
	h.writeTaskResult(w, r, task, subject, label, "Contact discovery complete!")
}

// GenerateEmail はリード宛てのメールを生成する。template_id は任意。
// POST /leads/{id}/email?template_id=
func (h *LeadHandler) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	subject := enrich.LeadSubject(id)
	label := model.AIKindEmail.FailureLabel()
	if h.rejectDuplicate(w, r, subject, model.AIKindEmail, label) {
		return
	}

	task, err := h.enricher.RequestEmailGeneration(r.Context(), subject, id, strings.TrimSpace(r.URL.Query().Get("template_id")))
	if err != nil {
		h.rs.fail(w, r, label, err)
		return
	}
	h.writeTaskResult(w, r, task, subject, label, "Email generated")
}

// DiscardAI は詳細画面を離れるときにAIスロットを破棄する。
// DELETE /leads/{id}/ai
func (h *LeadHandler) DiscardAI(w http.ResponseWriter, r *http.Request) {
	h.enricher.Discard(enrich.LeadSubject(chi.URLParam(r, "id")))
	w.WriteHeader(http.StatusNoContent)
}

// rejectDuplicate は同じスロットが実行中の場合に409を返す。force=1で無視する。
func (h *LeadHandler) rejectDuplicate(w http.ResponseWriter, r *http.Request, subject enrich.Subject, kind model.AIKind, label string) bool {
	return rejectPending(h.enricher, h.rs, w, r, subject, kind, label)
}

func (h *LeadHandler) writeTaskResult(w http.ResponseWriter, r *http.Request, task *enrich.Task, subject enrich.Subject, label, success string) {
	writeTaskResult(h.enricher, h.views, h.rs, w, r, task, subject, label, success)
}

func rejectPending(e Enricher, rs *responder, w http.ResponseWriter, r *http.Request, subject enrich.Subject, kind model.AIKind, label string) bool {
	if r.URL.Query().Get("force") == "1" || !e.Pending(subject, kind) {
		return false
	}
	rs.fail(w, r, label, model.NewOperationPendingError(string(kind)))
	return true
}

func writeTaskResult(e Enricher, views viewBuilder, rs *responder, w http.ResponseWriter, r *http.Request, task *enrich.Task, subject enrich.Subject, label, success string) {
	text, err := task.Wait(context.WithoutCancel(r.Context()))
	if err != nil {
		rs.fail(w, r, label, err)
		return
	}
	rs.notifier.Success(success)
	writeJSON(w, http.StatusOK, aiView{Text: views.sanitizer.Sanitize(text), AI: views.ai(e.Snapshot(subject))})
}
