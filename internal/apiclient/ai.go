package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/leadman/internal/model"
)

type researchResponse struct {
	Research string `json:"research"`
}

type contactDiscoveryRequest struct {
	CompanyName string `json:"company_name"`
	LeadID      string `json:"lead_id,omitempty"`
}

type contactDiscoveryResponse struct {
	ContactsResearch string `json:"contacts_research"`
}

type emailResponse struct {
	Email string `json:"email"`
}

// HealthStatus はバックエンドのヘルスチェック結果。
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Research は企業リサーチを依頼し、生成されたテキストを返す。
func (c *Client) Research(ctx context.Context, in model.ResearchInput) (string, error) {
	var out researchResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/ai/research",
		Body:   in,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Research, nil
}

// DiscoverContacts は担当者候補の探索を依頼する。
// leadIDは未保存の企業の場合は空でよい。
func (c *Client) DiscoverContacts(ctx context.Context, companyName, leadID string) (string, error) {
	var out contactDiscoveryResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/ai/discover-contacts",
		Body:   contactDiscoveryRequest{CompanyName: companyName, LeadID: leadID},
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ContactsResearch, nil
}

// GenerateEmail はリード宛てのメール文面を生成する。
// パラメータはボディではなくクエリで送る。
func (c *Client) GenerateEmail(ctx context.Context, leadID, templateID string) (string, error) {
	q := url.Values{}
	q.Set("lead_id", leadID)
	if templateID != "" {
		q.Set("template_id", templateID)
	}
	var out emailResponse
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/ai/generate-email",
		Query:  q,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Email, nil
}

// Health はバックエンドのヘルスチェックを呼び出す。
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
