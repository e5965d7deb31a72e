// Package contact は担当者ビュー（全担当者一覧・リード詳細の担当者欄）を提供する。
package contact

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/repository"
	"github.com/hitoshi/leadman/internal/search"
)

// UnknownLead は参照先のリードが存在しない担当者に表示する企業名。
const UnknownLead = "Unknown lead"

// Row は全担当者一覧の1行。所属リードの企業名を解決済み。
type Row struct {
	model.Contact
	LeadName string `json:"lead_name"`
	Orphan   bool   `json:"orphan,omitempty"`
}

// Directory は担当者の参照と更新を行う。
type Directory struct {
	contacts repository.ContactRepository
	leads    repository.LeadRepository
}

// NewDirectory はDirectoryを生成する。
func NewDirectory(contacts repository.ContactRepository, leads repository.LeadRepository) *Directory {
	return &Directory{contacts: contacts, leads: leads}
}

// Overview は全担当者を取得し、所属リードの企業名を付けて返す。
// 担当者とリードは並行して取得する。リードが削除済みの担当者は UnknownLead として扱う。
// queryは名前・役職・メールアドレスに対する部分一致。
func (d *Directory) Overview(ctx context.Context, query string) ([]Row, error) {
	var (
		contacts []model.Contact
		leads    []model.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = d.contacts.List(gctx, "")
		if err != nil {
			return fmt.Errorf("failed to list contacts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leads, err = d.leads.List(gctx, "")
		if err != nil {
			return fmt.Errorf("failed to list leads: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(leads))
	for _, l := range leads {
		names[l.ID] = l.CompanyName
	}

	matched := Filter(contacts, query)
	rows := make([]Row, 0, len(matched))
	for _, c := range matched {
		row := Row{Contact: c}
		if name, ok := names[c.LeadID]; ok {
			row.LeadName = name
		} else {
			row.LeadName = UnknownLead
			row.Orphan = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ForLead はリードに紐づく担当者を返す。
func (d *Directory) ForLead(ctx context.Context, leadID string) ([]model.Contact, error) {
	contacts, err := d.contacts.List(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts of lead %s: %w", leadID, err)
	}
	return contacts, nil
}

// AddToLead はリードに担当者を追加する。入力中のlead_idは無視する。
func (d *Directory) AddToLead(ctx context.Context, leadID string, in model.ContactInput) (*model.Contact, error) {
	in.LeadID = leadID
	c, err := d.contacts.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to add contact: %w", err)
	}
	return c, nil
}

// Update は担当者の指定フィールドを更新する。
func (d *Directory) Update(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error) {
	c, err := d.contacts.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact %s: %w", id, err)
	}
	return c, nil
}

// Remove は担当者を削除する。
func (d *Directory) Remove(ctx context.Context, id string) error {
	if err := d.contacts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact %s: %w", id, err)
	}
	return nil
}

// Filter は名前・役職・メールアドレスに検索語を含む担当者を返す。
func Filter(contacts []model.Contact, query string) []model.Contact {
	return search.Filter(contacts, query, func(c model.Contact) []string {
		return []string{c.Name, c.Title, c.Email}
	})
}
