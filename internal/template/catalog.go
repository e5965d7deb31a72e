// Package template はメールテンプレートビューを提供する。
package template

import (
	"context"
	"fmt"

	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/repository"
)

// starters はテンプレートが1件もないときに提示する雛形。
var starters = []model.TemplateInput{
	{
		Name:    "Cold Outreach",
		Subject: "Quick question about {{company}}'s HR needs",
		Body: "Hi {{name}},\n\n" +
			"I noticed {{company}} has been growing recently. Many companies at your stage face challenges with onboarding, payroll, and HR compliance.\n\n" +
			"Would you be open to a 15-minute call to discuss how we might help streamline your HR operations?\n\n" +
			"Best,\n{{sender_name}}",
		Category: model.TemplateCategoryOutreach,
	},
	{
		Name:    "Follow Up",
		Subject: "Following up - HR services for {{company}}",
		Body: "Hi {{name}},\n\n" +
			"Just following up on my previous email about HR support for {{company}}.\n\n" +
			"I'd love to share how we've helped similar companies reduce their HR admin time by 40%.\n\n" +
			"Are you available for a quick call this week?\n\n" +
			"Best,\n{{sender_name}}",
		Category: model.TemplateCategoryFollowUp,
	},
}

// Starters は雛形のコピーを返す。
func Starters() []model.TemplateInput {
	out := make([]model.TemplateInput, len(starters))
	copy(out, starters)
	return out
}

// View はテンプレート一覧ビューの内容。
// テンプレートが空の場合のみ Starters を含む。
type View struct {
	Templates []model.Template      `json:"templates"`
	Starters  []model.TemplateInput `json:"starters,omitempty"`
}

// Catalog はテンプレートの参照と更新を行う。
type Catalog struct {
	repo repository.TemplateRepository
}

// NewCatalog はCatalogを生成する。
func NewCatalog(repo repository.TemplateRepository) *Catalog {
	return &Catalog{repo: repo}
}

// View はテンプレート一覧を取得する。
func (c *Catalog) View(ctx context.Context) (*View, error) {
	templates, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	v := &View{Templates: templates}
	if len(templates) == 0 {
		v.Starters = Starters()
	}
	return v, nil
}

// Create はテンプレートを作成する。
func (c *Catalog) Create(ctx context.Context, in model.TemplateInput) (*model.Template, error) {
	t, err := c.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return t, nil
}

// Save はフォーム入力全体でテンプレートを更新する。
func (c *Catalog) Save(ctx context.Context, id string, in model.TemplateInput) (*model.Template, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := c.repo.Update(ctx, id, in.Patch())
	if err != nil {
		return nil, fmt.Errorf("failed to update template %s: %w", id, err)
	}
	return t, nil
}

// Remove はテンプレートを削除する。
func (c *Catalog) Remove(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	return nil
}
