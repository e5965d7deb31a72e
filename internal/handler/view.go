package handler

import (
	"github.com/hitoshi/leadman/internal/lead"
	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/security"
)

// leadView は表示用ラベルを付けたリード。
type leadView struct {
	model.Lead
	StatusLabel      string `json:"status_label"`
	IndustryLabel    string `json:"industry_label"`
	CompanySizeLabel string `json:"company_size_label"`
	WebsiteLabel     string `json:"website_label"`
	NotesLabel       string `json:"notes_label"`
	Stale            bool   `json:"stale,omitempty"`

	// ServerStatusLabel はstaleの間のバックエンド上のステータス。
	ServerStatusLabel string `json:"server_status_label,omitempty"`
}

type statusOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// statusOptions はステータス選択肢を表示順に返す。
func statusOptions() []statusOption {
	out := make([]statusOption, 0, len(model.LeadStatuses))
	for _, s := range model.LeadStatuses {
		out = append(out, statusOption{Value: string(s), Label: s.Label()})
	}
	return out
}

// viewBuilder はバックエンド由来の自由記述テキストを無害化してビューを組み立てる。
type viewBuilder struct {
	sanitizer security.TextSanitizer
}

func (b viewBuilder) lead(l model.Lead, stale bool) leadView {
	l.Notes = b.sanitizer.Sanitize(l.Notes)
	l.AIInsights = b.sanitizer.Sanitize(l.AIInsights)
	return leadView{
		Lead:             l,
		StatusLabel:      l.Status.Label(),
		IndustryLabel:    l.IndustryLabel(),
		CompanySizeLabel: l.CompanySizeLabel(),
		WebsiteLabel:     l.WebsiteLabel(),
		NotesLabel:       l.NotesLabel(),
		Stale:            stale,
	}
}

func (b viewBuilder) leads(leads []model.Lead) []leadView {
	out := make([]leadView, len(leads))
	for i, l := range leads {
		out[i] = b.lead(l, false)
	}
	return out
}

func (b viewBuilder) entries(entries []lead.Entry) []leadView {
	out := make([]leadView, len(entries))
	for i, e := range entries {
		out[i] = b.lead(e.Lead, e.Stale)
		if e.Stale {
			out[i].ServerStatusLabel = e.ServerStatus.Label()
		}
	}
	return out
}

func (b viewBuilder) contact(c model.Contact) model.Contact {
	c.Notes = b.sanitizer.Sanitize(c.Notes)
	return c
}

func (b viewBuilder) contacts(cs []model.Contact) []model.Contact {
	out := make([]model.Contact, len(cs))
	for i, c := range cs {
		out[i] = b.contact(c)
	}
	return out
}

func (b viewBuilder) ai(res model.AIResult) model.AIResult {
	for _, kind := range model.AIKinds {
		slot := res.Slot(kind)
		slot.Text = b.sanitizer.Sanitize(slot.Text)
	}
	return res
}
