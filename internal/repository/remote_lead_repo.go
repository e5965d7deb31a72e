package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/leadman/internal/apiclient"
	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/security"
)

// APIDoer はバックエンドへのリクエスト送信インターフェース。
// 実装は apiclient.Client。
type APIDoer interface {
	Do(ctx context.Context, r apiclient.Request, out any) error
}

// RemoteLeadRepo はバックエンドの /leads を操作するLeadRepositoryの実装。
type RemoteLeadRepo struct {
	api      APIDoer
	websites security.WebsiteValidator
}

// NewRemoteLeadRepo はRemoteLeadRepoを生成する。
func NewRemoteLeadRepo(api APIDoer, websites security.WebsiteValidator) *RemoteLeadRepo {
	return &RemoteLeadRepo{api: api, websites: websites}
}

func (r *RemoteLeadRepo) validateWebsite(raw string) error {
	if strings.TrimSpace(raw) == "" || r.websites == nil {
		return nil
	}
	if err := r.websites.ValidateWebsite(raw); err != nil {
		return model.NewInvalidURLError(err.Error())
	}
	return nil
}

// Create はリードを作成する。企業名が空の場合はリクエストを送信しない。
func (r *RemoteLeadRepo) Create(ctx context.Context, in model.LeadInput) (*model.Lead, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := r.validateWebsite(in.Website); err != nil {
		return nil, err
	}
	in.CompanyName = strings.TrimSpace(in.CompanyName)

	var lead model.Lead
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/leads",
		Body:   in,
	}, &lead); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	return &lead, nil
}

// List はリード一覧を取得する。statusはサーバー側のフィルタ。
func (r *RemoteLeadRepo) List(ctx context.Context, status model.LeadStatus) ([]model.Lead, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	leads := []model.Lead{}
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/leads",
		Query:  q,
	}, &leads); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// Get は指定IDのリードを取得する。
func (r *RemoteLeadRepo) Get(ctx context.Context, id string) (*model.Lead, error) {
	var lead model.Lead
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/leads/" + url.PathEscape(id),
		Route:  "/leads/{id}",
	}, &lead); err != nil {
		return nil, fmt.Errorf("get lead %s: %w", id, err)
	}
	return &lead, nil
}

// Update は指定したフィールドのみを送信する。
func (r *RemoteLeadRepo) Update(ctx context.Context, id string, patch model.LeadPatch) (*model.Lead, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Website != nil {
		if err := r.validateWebsite(*patch.Website); err != nil {
			return nil, err
		}
	}

	var lead model.Lead
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/leads/" + url.PathEscape(id),
		Route:  "/leads/{id}",
		Body:   patch,
	}, &lead); err != nil {
		return nil, fmt.Errorf("update lead %s: %w", id, err)
	}
	return &lead, nil
}

// Delete はリードを削除する。
func (r *RemoteLeadRepo) Delete(ctx context.Context, id string) error {
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/leads/" + url.PathEscape(id),
		Route:  "/leads/{id}",
	}, nil); err != nil {
		return fmt.Errorf("delete lead %s: %w", id, err)
	}
	return nil
}

// Stats はバックエンドの集計値を取得する。
func (r *RemoteLeadRepo) Stats(ctx context.Context) (*model.LeadStats, error) {
	var stats model.LeadStats
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/leads/stats/summary",
	}, &stats); err != nil {
		return nil, fmt.Errorf("lead stats: %w", err)
	}
	return &stats, nil
}

// SeedExamples はサンプルリードを投入する。
func (r *RemoteLeadRepo) SeedExamples(ctx context.Context) (*model.SeedResult, error) {
	var res model.SeedResult
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/leads/seed",
	}, &res); err != nil {
		return nil, fmt.Errorf("seed leads: %w", err)
	}
	return &res, nil
}

var _ LeadRepository = (*RemoteLeadRepo)(nil)
