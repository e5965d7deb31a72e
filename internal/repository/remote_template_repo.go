package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hitoshi/leadman/internal/apiclient"
	"github.com/hitoshi/leadman/internal/model"
)

// RemoteTemplateRepo はバックエンドの /templates を操作するTemplateRepositoryの実装。
type RemoteTemplateRepo struct {
	api APIDoer
}

// NewRemoteTemplateRepo はRemoteTemplateRepoを生成する。
func NewRemoteTemplateRepo(api APIDoer) *RemoteTemplateRepo {
	return &RemoteTemplateRepo{api: api}
}

// Create はテンプレートを作成する。カテゴリ未指定時は outreach とする。
func (r *RemoteTemplateRepo) Create(ctx context.Context, in model.TemplateInput) (*model.Template, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Category == "" {
		in.Category = model.TemplateCategoryOutreach
	}
	var t model.Template
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/templates",
		Body:   in,
	}, &t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return &t, nil
}

// List はテンプレート一覧を取得する。
func (r *RemoteTemplateRepo) List(ctx context.Context) ([]model.Template, error) {
	templates := []model.Template{}
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/templates",
	}, &templates); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// Get は指定IDのテンプレートを取得する。
// バックエンドは個別取得を提供しないため、一覧から探す。
func (r *RemoteTemplateRepo) Get(ctx context.Context, id string) (*model.Template, error) {
	templates, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, model.NewNotFoundError("template", id)
}

// Update は指定したフィールドのみを送信する。
func (r *RemoteTemplateRepo) Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var t model.Template
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/templates/" + url.PathEscape(id),
		Route:  "/templates/{id}",
		Body:   patch,
	}, &t); err != nil {
		return nil, fmt.Errorf("update template %s: %w", id, err)
	}
	return &t, nil
}

// Delete はテンプレートを削除する。
func (r *RemoteTemplateRepo) Delete(ctx context.Context, id string) error {
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/templates/" + url.PathEscape(id),
		Route:  "/templates/{id}",
	}, nil); err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	return nil
}

var _ TemplateRepository = (*RemoteTemplateRepo)(nil)
