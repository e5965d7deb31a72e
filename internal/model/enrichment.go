package model

import "strings"

// AIKind はAIエンリッチメント操作の種類を表す。
type AIKind string

const (
	// AIKindResearch は企業リサーチ。結果のみ ai_insights として永続化できる。
	AIKindResearch AIKind = "research"
	// AIKindContacts は担当者候補の探索。
	AIKindContacts AIKind = "contacts"
	// AIKindEmail はアウトリーチメールの生成。
	AIKindEmail AIKind = "email"
)

// AIKinds は全操作種別。
var AIKinds = []AIKind{AIKindResearch, AIKindContacts, AIKindEmail}

var aiFailureLabels = map[AIKind]string{
	AIKindResearch: "AI research failed",
	AIKindContacts: "Contact discovery failed",
	AIKindEmail:    "Email generation failed",
}

// FailureLabel は失敗通知に使う固定ラベルを返す。
func (k AIKind) FailureLabel() string {
	if label, ok := aiFailureLabels[k]; ok {
		return label
	}
	return "AI operation failed"
}

// AISlot は1種類の操作の結果・実行中フラグ・エラーを保持する。
type AISlot struct {
	Text    string `json:"text,omitempty"`
	Pending bool   `json:"pending"`
	Error   string `json:"error,omitempty"`
}

// AIResult は対象（リードまたは未保存の企業下書き）ごとの3スロット。
// 永続化されず、画面を離れると破棄される。
type AIResult struct {
	Research         AISlot `json:"research"`
	ContactsResearch AISlot `json:"contacts_research"`
	GeneratedEmail   AISlot `json:"generated_email"`
}

// Slot は種類に対応するスロットのポインタを返す。
func (r *AIResult) Slot(kind AIKind) *AISlot {
	switch kind {
	case AIKindResearch:
		return &r.Research
	case AIKindContacts:
		return &r.ContactsResearch
	case AIKindEmail:
		return &r.GeneratedEmail
	default:
		return nil
	}
}

// ResearchInput は企業リサーチのリクエストボディ。
type ResearchInput struct {
	CompanyName       string `json:"company_name"`
	Industry          string `json:"industry,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// Validate は企業名の必須チェックを行う。
func (in ResearchInput) Validate() error {
	if strings.TrimSpace(in.CompanyName) == "" {
		return NewValidationError("company_name", "Company name is required")
	}
	return nil
}

// AnyIndustry は Discovery 画面で業種を指定しない場合の値。
const AnyIndustry = "any"

// DiscoveryDraft は Discovery 画面で入力中の未保存企業。
type DiscoveryDraft struct {
	CompanyName       string `json:"company_name"`
	Industry          string `json:"industry,omitempty"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// ResearchInput は下書きからリサーチ入力を組み立てる。"any" は業種なしとして扱う。
func (d DiscoveryDraft) ResearchInput() ResearchInput {
	in := ResearchInput{CompanyName: d.CompanyName, AdditionalContext: d.AdditionalContext}
	if d.Industry != AnyIndustry {
		in.Industry = d.Industry
	}
	return in
}

// LeadInput は下書きからリード作成入力を組み立てる。
// 追加コンテキストはメモとして保存する。
func (d DiscoveryDraft) LeadInput() LeadInput {
	in := LeadInput{CompanyName: strings.TrimSpace(d.CompanyName), Notes: d.AdditionalContext}
	if d.Industry != AnyIndustry {
		in.Industry = d.Industry
	}
	return in
}
