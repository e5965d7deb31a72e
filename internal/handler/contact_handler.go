package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/leadman/internal/contact"
	"github.com/hitoshi/leadman/internal/model"
)

// ContactHandler は全担当者一覧のハンドラー。
type ContactHandler struct {
	contacts ContactDirectory
	views    viewBuilder
	rs       *responder
}

func newContactHandler(contacts ContactDirectory, views viewBuilder, rs *responder) *ContactHandler {
	return &ContactHandler{contacts: contacts, views: views, rs: rs}
}

type contactListView struct {
	Query    string        `json:"query"`
	Contacts []contact.Row `json:"contacts"`
}

// List は全担当者を所属リードの企業名付きで返す。
// GET /contacts?q=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	rows, err := h.contacts.Overview(r.Context(), query)
	if err != nil {
		h.rs.fail(w, r, "Failed to load contacts", err)
		return
	}

	for i := range rows {
		rows[i].Contact = h.views.contact(rows[i].Contact)
	}
	writeJSON(w, http.StatusOK, contactListView{Query: query, Contacts: rows})
}

// Update は担当者の指定フィールドを更新する。
// PUT /contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ContactPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.rs.fail(w, r, "Failed to update contact", err)
		return
	}
	c, err := h.contacts.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.rs.fail(w, r, "Failed to update contact", err)
		return
	}
	h.rs.notifier.Success("Contact updated")
	writeJSON(w, http.StatusOK, h.views.contact(*c))
}

// Delete は担当者を削除する。
// DELETE /contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.rs.fail(w, r, "Failed to delete contact", err)
		return
	}
	h.rs.notifier.Success("Contact deleted")
	w.WriteHeader(http.StatusNoContent)
}
