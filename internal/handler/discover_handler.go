package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/leadman/internal/enrich"
	"github.com/hitoshi/leadman/internal/model"
)

// DiscoverHandler は未保存の企業に対するリサーチと、リードとしての保存を扱う。
type DiscoverHandler struct {
	enricher Enricher
	views    viewBuilder
	rs       *responder
}

func newDiscoverHandler(enricher Enricher, views viewBuilder, rs *responder) *DiscoverHandler {
	return &DiscoverHandler{enricher: enricher, views: views, rs: rs}
}

type discoverView struct {
	Company    string         `json:"company"`
	Industries []string       `json:"industries"`
	AI         model.AIResult `json:"ai"`
}

// Show は入力中の企業について取得済みの結果を返す。
// GET /discover?company=
func (h *DiscoverHandler) Show(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	var res model.AIResult
	if company != "" {
		res = h.views.ai(h.enricher.Snapshot(enrich.DraftSubject(company)))
	}
	industries := append([]string{model.AnyIndustry}, model.Industries...)
	writeJSON(w, http.StatusOK, discoverView{Company: company, Industries: industries, AI: res})
}

// Discard は画面遷移時に下書きの結果を破棄する。
// DELETE /discover?company=
func (h *DiscoverHandler) Discard(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	if strings.TrimSpace(company) == "" {
		h.rs.fail(w, r, "Failed to clear research", model.NewValidationError("company", "Company name is required"))
		return
	}
	h.enricher.Discard(enrich.DraftSubject(company))
	w.WriteHeader(http.StatusNoContent)
}

// Research は下書きの企業についてリサーチを実行する。
// POST /discover/research
func (h *DiscoverHandler) Research(w http.ResponseWriter, r *http.Request) {
	var draft model.DiscoveryDraft
	if err := decodeJSON(r, &draft); err != nil {
		h.rs.fail(w, r, "Research failed", err)
		return
	}
	subject := enrich.DraftSubject(draft.CompanyName)
	if rejectPending(h.enricher, h.rs, w, r, subject, model.AIKindResearch, "Research failed") {
		return
	}
	task, err := h.enricher.RequestResearch(r.Context(), subject, draft.ResearchInput())
	if err != nil {
		h.rs.fail(w, r, "Research failed", err)
		return
	}
	writeTaskResult(h.enricher, h.views, h.rs, w, r, task, subject, "Research failed", "Research complete!")
}

// DiscoverContacts は下書きの企業について担当者候補を探索する。
// POST /discover/contacts
func (h *DiscoverHandler) DiscoverContacts(w http.ResponseWriter, r *http.Request) {
	var draft model.DiscoveryDraft
	if err := decodeJSON(r, &draft); err != nil {
		h.rs.fail(w, r, "Contact discovery failed", err)
		return
	}
	subject := enrich.DraftSubject(draft.CompanyName)
	if rejectPending(h.enricher, h.rs, w, r, subject, model.AIKindContacts, "Contact discovery failed") {
		return
	}
	task, err := h.enricher.RequestContactDiscovery(r.Context(), subject, draft.CompanyName)
	if err != nil {
		h.rs.fail(w, r, "Contact discovery failed", err)
		return
	}
	writeTaskResult(h.enricher, h.views, h.rs, w, r, task, subject, "Contact discovery failed", "Contact discovery complete!")
}

// Save は下書きをリードとして保存し、詳細画面へ遷移する。
// 取得済みのリサーチ結果のみ保存される。
// POST /discover/save
func (h *DiscoverHandler) Save(w http.ResponseWriter, r *http.Request) {
	var draft model.DiscoveryDraft
	if err := decodeJSON(r, &draft); err != nil {
		h.rs.fail(w, r, "Failed to save lead", err)
		return
	}

	created, err := h.enricher.SaveAsLead(context.WithoutCancel(r.Context()), draft)
	if err != nil {
		if created == nil {
			h.rs.fail(w, r, "Failed to save lead", err)
			return
		}
		// リードは作成済みのため詳細画面へ進める
		h.rs.logger.Warn("リサーチ結果の保存に失敗しました",
			slog.String("lead_id", created.ID),
			slog.String("error", err.Error()),
		)
		h.rs.notifier.Error(model.UserMessage("Failed to save research", err))
		redirect(w, r, "/leads/"+created.ID)
		return
	}

	h.rs.notifier.Success("Lead saved successfully!")
	redirect(w, r, "/leads/"+created.ID)
}
