package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/leadman/internal/apiclient"
	"github.com/hitoshi/leadman/internal/model"
)

// RemoteContactRepo はバックエンドの /contacts を操作するContactRepositoryの実装。
type RemoteContactRepo struct {
	api APIDoer
}

// NewRemoteContactRepo はRemoteContactRepoを生成する。
func NewRemoteContactRepo(api APIDoer) *RemoteContactRepo {
	return &RemoteContactRepo{api: api}
}

// Create は担当者を作成する。名前が空の場合はリクエストを送信しない。
func (r *RemoteContactRepo) Create(ctx context.Context, in model.ContactInput) (*model.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)

	var c model.Contact
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/contacts",
		Body:   in,
	}, &c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &c, nil
}

// List は担当者一覧を取得する。leadIDはサーバー側のフィルタ。
func (r *RemoteContactRepo) List(ctx context.Context, leadID string) ([]model.Contact, error) {
	var q url.Values
	if leadID != "" {
		q = url.Values{"lead_id": {leadID}}
	}
	contacts := []model.Contact{}
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/contacts",
		Query:  q,
	}, &contacts); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Get は指定IDの担当者を取得する。
// バックエンドは個別取得を提供しないため、一覧から探す。
func (r *RemoteContactRepo) Get(ctx context.Context, id string) (*model.Contact, error) {
	contacts, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if contacts[i].ID == id {
			return &contacts[i], nil
		}
	}
	return nil, model.NewNotFoundError("contact", id)
}

// Update は指定したフィールドのみを送信する。
func (r *RemoteContactRepo) Update(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var c model.Contact
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/contacts/" + url.PathEscape(id),
		Route:  "/contacts/{id}",
		Body:   patch,
	}, &c); err != nil {
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}
	return &c, nil
}

// Delete は担当者を削除する。
func (r *RemoteContactRepo) Delete(ctx context.Context, id string) error {
	if err := r.api.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/contacts/" + url.PathEscape(id),
		Route:  "/contacts/{id}",
	}, nil); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	return nil
}

var _ ContactRepository = (*RemoteContactRepo)(nil)
