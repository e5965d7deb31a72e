package handler

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/repository"
)

// recentLeadCount はダッシュボードに表示する最近のリード数。
const recentLeadCount = 5

// DashboardHandler はダッシュボードのハンドラー。
type DashboardHandler struct {
	leads repository.LeadRepository
	views viewBuilder
	rs    *responder
}

func newDashboardHandler(leads repository.LeadRepository, views viewBuilder, rs *responder) *DashboardHandler {
	return &DashboardHandler{leads: leads, views: views, rs: rs}
}

type dashboardView struct {
	User   *model.User     `json:"user"`
	Stats  model.LeadStats `json:"stats"`
	Recent []leadView      `json:"recent_leads"`
}

// Show はバックエンド集計の件数と最近のリードを返す。
// GET /dashboard
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	var (
		stats *model.LeadStats
		leads []model.Lead
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		stats, err = h.leads.Stats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = h.leads.List(ctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		h.rs.fail(w, r, "Failed to load dashboard data", err)
		return
	}

	if len(leads) > recentLeadCount {
		leads = leads[:recentLeadCount]
	}
	writeJSON(w, http.StatusOK, dashboardView{
		User:   userFromRequest(r),
		Stats:  *stats,
		Recent: h.views.leads(leads),
	})
}
