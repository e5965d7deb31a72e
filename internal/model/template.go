package model

import (
	"strings"
	"time"
)

// TemplateCategory はメールテンプレートの分類。
type TemplateCategory string

const (
	TemplateCategoryOutreach TemplateCategory = "outreach"
	TemplateCategoryFollowUp TemplateCategory = "follow_up"
	TemplateCategoryProposal TemplateCategory = "proposal"
	TemplateCategoryMeeting  TemplateCategory = "meeting"
)

// TemplateCategories は選択可能なカテゴリ一覧。
var TemplateCategories = []TemplateCategory{
	TemplateCategoryOutreach,
	TemplateCategoryFollowUp,
	TemplateCategoryProposal,
	TemplateCategoryMeeting,
}

var templateCategoryLabels = map[TemplateCategory]string{
	TemplateCategoryOutreach: "Outreach",
	TemplateCategoryFollowUp: "Follow Up",
	TemplateCategoryProposal: "Proposal",
	TemplateCategoryMeeting:  "Meeting",
}

// Valid は既知のカテゴリかどうかを返す。
func (c TemplateCategory) Valid() bool {
	_, ok := templateCategoryLabels[c]
	return ok
}

// Label は表示用ラベルを返す。未知の値はそのまま返す。
func (c TemplateCategory) Label() string {
	if label, ok := templateCategoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Template は再利用可能なメール雛形。
// Body 内の {{variable}} はクライアントでは解釈しない。
type Template struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	Category  TemplateCategory `json:"category"`
	CreatedAt time.Time        `json:"created_at"`
}

// TemplateInput はテンプレート作成リクエストのボディ。
type TemplateInput struct {
	Name     string           `json:"name"`
	Subject  string           `json:"subject"`
	Body     string           `json:"body"`
	Category TemplateCategory `json:"category,omitempty"`
}

// Validate は全項目入力済みかを検証する。
func (in TemplateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Body) == "" {
		return NewValidationError("template", "Please fill in all fields")
	}
	if in.Category != "" && !in.Category.Valid() {
		return NewValidationError("category", "unknown template category: "+string(in.Category))
	}
	return nil
}

// Patch はフォーム入力全体を部分更新に変換する。
func (in TemplateInput) Patch() TemplatePatch {
	p := TemplatePatch{Name: &in.Name, Subject: &in.Subject, Body: &in.Body}
	if in.Category != "" {
		p.Category = &in.Category
	}
	return p
}

// TemplatePatch はテンプレートの部分更新。
type TemplatePatch struct {
	Name     *string           `json:"name,omitempty"`
	Subject  *string           `json:"subject,omitempty"`
	Body     *string           `json:"body,omitempty"`
	Category *TemplateCategory `json:"category,omitempty"`
}

// Validate は部分更新の値を検証する。
func (p TemplatePatch) Validate() error {
	if p.Name == nil && p.Subject == nil && p.Body == nil && p.Category == nil {
		return NewValidationError("template", "nothing to update")
	}
	for _, v := range []*string{p.Name, p.Subject, p.Body} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return NewValidationError("template", "Please fill in all fields")
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return NewValidationError("category", "unknown template category: "+string(*p.Category))
	}
	return nil
}
