package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/template"
)

// TemplateCatalog はテンプレートの参照と更新。実装は template.Catalog。
type TemplateCatalog interface {
	View(ctx context.Context) (*template.View, error)
	Create(ctx context.Context, in model.TemplateInput) (*model.Template, error)
	Save(ctx context.Context, id string, in model.TemplateInput) (*model.Template, error)
	Remove(ctx context.Context, id string) error
}

// TemplateHandler はメールテンプレートのハンドラー。
type TemplateHandler struct {
	catalog TemplateCatalog
	rs      *responder
}

func newTemplateHandler(catalog TemplateCatalog, rs *responder) *TemplateHandler {
	return &TemplateHandler{catalog: catalog, rs: rs}
}

type categoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type templateListView struct {
	*template.View
	Categories []categoryOption `json:"categories"`
}

func categoryOptions() []categoryOption {
	out := make([]categoryOption, 0, len(model.TemplateCategories))
	for _, c := range model.TemplateCategories {
		out = append(out, categoryOption{Value: string(c), Label: c.Label()})
	}
	return out
}

// List はテンプレート一覧を返す。空の場合は雛形も含める。
// GET /templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	v, err := h.catalog.View(r.Context())
	if err != nil {
		h.rs.fail(w, r, "Failed to load templates", err)
		return
	}
	writeJSON(w, http.StatusOK, templateListView{View: v, Categories: categoryOptions()})
}

// Starters は作成フォームに流し込む雛形を返す。
// GET /templates/starters
func (h *TemplateHandler) Starters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"starters": template.Starters()})
}

// Create はテンプレートを作成する。
// POST /templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		h.rs.fail(w, r, "Failed to save template", err)
		return
	}
	t, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.rs.fail(w, r, "Failed to save template", err)
		return
	}
	h.rs.notifier.Success("Template created")
	writeJSON(w, http.StatusCreated, t)
}

// Update はフォーム全体でテンプレートを更新する。
// PUT /templates/{id}
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.TemplateInput
	if err := decodeJSON(r, &in); err != nil {
		h.rs.fail(w, r, "Failed to save template", err)
		return
	}
	t, err := h.catalog.Save(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.rs.fail(w, r, "Failed to save template", err)
		return
	}
	h.rs.notifier.Success("Template updated")
	writeJSON(w, http.StatusOK, t)
}

// Delete はテンプレートを削除する。
// DELETE /templates/{id}
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.rs.fail(w, r, "Failed to delete template", err)
		return
	}
	h.rs.notifier.Success("Template deleted")
	w.WriteHeader(http.StatusNoContent)
}
