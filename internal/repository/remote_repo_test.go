package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/hitoshi/leadman/internal/apiclient"
	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/security"
)

// --- モック定義 ---

type mockAPI struct {
	doFn  func(ctx context.Context, r apiclient.Request, out any) error
	calls []apiclient.Request
}

func (m *mockAPI) Do(ctx context.Context, r apiclient.Request, out any) error {
	m.calls = append(m.calls, r)
	if m.doFn != nil {
		return m.doFn(ctx, r, out)
	}
	return nil
}

// respond はoutにJSON値を書き込むdoFnを返す。
func respond(v any) func(context.Context, apiclient.Request, any) error {
	return func(_ context.Context, _ apiclient.Request, out any) error {
		if out == nil {
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}
}

func bodyJSON(t *testing.T, body any) map[string]any {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

// --- リード ---

func TestRemoteLeadRepo_CreateValidatesBeforeRequest(t *testing.T) {
	api := &mockAPI{}
	repo := NewRemoteLeadRepo(api, security.NewWebsiteValidator())

	_, err := repo.Create(context.Background(), model.LeadInput{CompanyName: "   "})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}

	_, err = repo.Create(context.Background(), model.LeadInput{CompanyName: "Acme", Website: "ftp://acme.com"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidURL {
		t.Errorf("error = %v, want INVALID_URL", err)
	}

	if len(api.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(api.calls))
	}
}

func TestRemoteLeadRepo_CreateMinimal(t *testing.T) {
	api := &mockAPI{doFn: respond(map[string]any{
		"id": "l1", "company_name": "Acme Corp", "status": "new",
		"created_at": "2025-01-02T03:04:05.123456+00:00", "updated_at": "2025-01-02T03:04:05.123456+00:00",
	})}
	repo := NewRemoteLeadRepo(api, security.NewWebsiteValidator())

	lead, err := repo.Create(context.Background(), model.LeadInput{CompanyName: " Acme Corp "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if lead.Status != model.LeadStatusNew {
		t.Errorf("Status = %q, want new", lead.Status)
	}
	if lead.IndustryLabel() != model.LabelNoIndustry || lead.WebsiteLabel() != model.LabelNotSpecified {
		t.Errorf("labels = %q, %q", lead.IndustryLabel(), lead.WebsiteLabel())
	}

	body := bodyJSON(t, api.calls[0].Body)
	if body["company_name"] != "Acme Corp" {
		t.Errorf("company_name = %v, want trimmed", body["company_name"])
	}
	if len(body) != 1 {
		t.Errorf("body = %v, want only company_name", body)
	}
}

func TestRemoteLeadRepo_ListStatusFilter(t *testing.T) {
	api := &mockAPI{doFn: respond([]map[string]any{{"id": "l1", "company_name": "A", "status": "won"}})}
	repo := NewRemoteLeadRepo(api, nil)

	leads, err := repo.List(context.Background(), model.LeadStatusWon)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("len = %d, want 1", len(leads))
	}
	if got := api.calls[0].Query.Get("status"); got != "won" {
		t.Errorf("status query = %q, want won", got)
	}

	if _, err := repo.List(context.Background(), ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if api.calls[1].Query != nil {
		t.Errorf("unfiltered list should send no query, got %v", api.calls[1].Query)
	}
}

func TestRemoteLeadRepo_UpdateSendsOnlyPatchFields(t *testing.T) {
	api := &mockAPI{doFn: respond(map[string]any{"id": "l1", "company_name": "Acme", "status": "new"})}
	repo := NewRemoteLeadRepo(api, nil)

	status := model.LeadStatusNew
	if _, err := repo.Update(context.Background(), "l1", model.LeadPatch{Status: &status}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	call := api.calls[0]
	if call.Method != http.MethodPut || call.Path != "/leads/l1" || call.Route != "/leads/{id}" {
		t.Errorf("call = %+v", call)
	}
	body := bodyJSON(t, call.Body)
	if len(body) != 1 || body["status"] != "new" {
		t.Errorf("body = %v, want {status: new}", body)
	}
}

func TestRemoteLeadRepo_GetNotFound(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, apiclient.Request, any) error {
		return model.NewNotFoundError("lead", "missing")
	}}
	repo := NewRemoteLeadRepo(api, nil)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRemoteLeadRepo_StatsAndSeed(t *testing.T) {
	api := &mockAPI{}
	repo := NewRemoteLeadRepo(api, nil)

	api.doFn = respond(map[string]int{"total": 3, "new": 2, "won": 1})
	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.New != 2 || stats.Won != 1 {
		t.Errorf("stats = %+v", stats)
	}

	api.doFn = respond(map[string]any{"message": "Created 8 example leads", "total_examples": 8})
	seed, err := repo.SeedExamples(context.Background())
	if err != nil {
		t.Fatalf("SeedExamples: %v", err)
	}
	if seed.TotalExamples != 8 {
		t.Errorf("TotalExamples = %d, want 8", seed.TotalExamples)
	}
	if api.calls[1].Path != "/leads/seed" || api.calls[1].Method != http.MethodPost {
		t.Errorf("seed call = %+v", api.calls[1])
	}
}

// --- 担当者 ---

func TestRemoteContactRepo_CreateRequiresName(t *testing.T) {
	api := &mockAPI{}
	repo := NewRemoteContactRepo(api)

	_, err := repo.Create(context.Background(), model.ContactInput{LeadID: "l1"})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	if model.DetailOf(err) != "Contact name is required" {
		t.Errorf("detail = %q", model.DetailOf(err))
	}
	if len(api.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(api.calls))
	}
}

func TestRemoteContactRepo_GetFromList(t *testing.T) {
	api := &mockAPI{doFn: respond([]map[string]any{
		{"id": "c1", "lead_id": "l1", "name": "Jane"},
		{"id": "c2", "lead_id": "l2", "name": "John"},
	})}
	repo := NewRemoteContactRepo(api)

	c, err := repo.Get(context.Background(), "c2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Name != "John" {
		t.Errorf("Name = %q, want John", c.Name)
	}

	if _, err := repo.Get(context.Background(), "c9"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRemoteContactRepo_ListByLead(t *testing.T) {
	api := &mockAPI{doFn: respond([]map[string]any{})}
	repo := NewRemoteContactRepo(api)

	got, err := repo.List(context.Background(), "l1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil {
		t.Error("List should return empty slice, not nil")
	}
	if api.calls[0].Query.Get("lead_id") != "l1" {
		t.Errorf("lead_id query = %q", api.calls[0].Query.Get("lead_id"))
	}
}

// --- テンプレート ---

func TestRemoteTemplateRepo_CreateDefaultsCategory(t *testing.T) {
	api := &mockAPI{doFn: respond(map[string]any{"id": "t1", "name": "N", "subject": "S", "body": "B", "category": "outreach"})}
	repo := NewRemoteTemplateRepo(api)

	if _, err := repo.Create(context.Background(), model.TemplateInput{Name: "N", Subject: "S", Body: "B"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	body := bodyJSON(t, api.calls[0].Body)
	if body["category"] != "outreach" {
		t.Errorf("category = %v, want outreach", body["category"])
	}
}

func TestRemoteTemplateRepo_CreateRequiresAllFields(t *testing.T) {
	api := &mockAPI{}
	repo := NewRemoteTemplateRepo(api)

	_, err := repo.Create(context.Background(), model.TemplateInput{Name: "N", Subject: "S"})
	if model.DetailOf(err) != "Please fill in all fields" {
		t.Errorf("detail = %q", model.DetailOf(err))
	}
	if len(api.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(api.calls))
	}
}

func TestRemoteTemplateRepo_DeleteRemoteFailure(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, apiclient.Request, any) error {
		return model.NewRemoteError(500, "database unavailable")
	}}
	repo := NewRemoteTemplateRepo(api)

	err := repo.Delete(context.Background(), "t1")
	if err == nil {
		t.Fatal("expected error")
	}
	if model.DetailOf(err) != "database unavailable" {
		t.Errorf("detail = %q", model.DetailOf(err))
	}
}
