package model

import (
	"strings"
	"time"
)

// LeadStatus はリードのパイプライン上の状態を表す。
// バックエンドは外部システムのため、未知の値が届いてもデコードは失敗させない。
type LeadStatus string

const (
	// LeadStatusNew は新規リード。作成時のデフォルト。
	LeadStatusNew LeadStatus = "new"
	// LeadStatusContacted はコンタクト済み。
	LeadStatusContacted LeadStatus = "contacted"
	// LeadStatusQualified は見込みありと判定済み。
	LeadStatusQualified LeadStatus = "qualified"
	// LeadStatusProposal は提案中。
	LeadStatusProposal LeadStatus = "proposal"
	// LeadStatusWon は受注。
	LeadStatusWon LeadStatus = "won"
	// LeadStatusLost は失注。
	LeadStatusLost LeadStatus = "lost"
)

// LeadStatuses はパイプライン表示順のステータス一覧。
// 順序は表示上のものであり、遷移制約ではない。
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusProposal,
	LeadStatusWon,
	LeadStatusLost,
}

var leadStatusLabels = map[LeadStatus]string{
	LeadStatusNew:       "New",
	LeadStatusContacted: "Contacted",
	LeadStatusQualified: "Qualified",
	LeadStatusProposal:  "Proposal",
	LeadStatusWon:       "Won",
	LeadStatusLost:      "Lost",
}

// Valid は既知のステータスかどうかを返す。
func (s LeadStatus) Valid() bool {
	_, ok := leadStatusLabels[s]
	return ok
}

// Label は表示用ラベルを返す。
// 未知の値はそのまま表示し、空文字列は "Unknown" とする。
func (s LeadStatus) Label() string {
	if label, ok := leadStatusLabels[s]; ok {
		return label
	}
	if s == "" {
		return "Unknown"
	}
	return string(s)
}

// ParseLeadStatus はユーザー入力をステータスに変換する。
// 未知の値はバリデーションエラーとする。
func ParseLeadStatus(raw string) (LeadStatus, error) {
	s := LeadStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", NewValidationError("status", "unknown lead status: "+raw)
	}
	return s, nil
}

// Industries はリード作成フォームで選択可能な業種。自由入力も許容する。
var Industries = []string{
	"Technology",
	"Healthcare",
	"Finance",
	"Manufacturing",
	"Retail",
	"Professional Services",
	"Education",
	"Real Estate",
	"Hospitality",
	"Construction",
	"Transportation",
	"Media & Entertainment",
	"Other",
}

// CompanySizes は従業員規模の区分。
var CompanySizes = []string{
	"1-10 employees",
	"11-50 employees",
	"51-200 employees",
	"201-500 employees",
	"500+ employees",
}

const (
	// LabelNotSpecified は未入力の任意項目の表示。
	LabelNotSpecified = "Not specified"
	// LabelNoIndustry は業種未入力時の表示。
	LabelNoIndustry = "No industry"
)

// Lead は営業パイプラインで追跡する見込み企業を表す。
type Lead struct {
	ID                 string     `json:"id"`
	CompanyName        string     `json:"company_name"`
	Industry           string     `json:"industry,omitempty"`
	CompanySize        string     `json:"company_size,omitempty"`
	Website            string     `json:"website,omitempty"`
	Status             LeadStatus `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	QualificationScore *int       `json:"qualification_score,omitempty"`
	AIInsights         string     `json:"ai_insights,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IndustryLabel は業種の表示値を返す。
func (l *Lead) IndustryLabel() string {
	return labelOr(l.Industry, LabelNoIndustry)
}

// CompanySizeLabel は企業規模の表示値を返す。
func (l *Lead) CompanySizeLabel() string {
	return labelOr(l.CompanySize, LabelNotSpecified)
}

// WebsiteLabel はWebサイトの表示値を返す。
func (l *Lead) WebsiteLabel() string {
	return labelOr(l.Website, LabelNotSpecified)
}

// NotesLabel はメモの表示値を返す。
func (l *Lead) NotesLabel() string {
	return labelOr(l.Notes, LabelNotSpecified)
}

func labelOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// LeadInput はリード作成リクエストのボディ。
// ステータス未指定時はバックエンドが new を設定する。
type LeadInput struct {
	CompanyName        string     `json:"company_name"`
	Industry           string     `json:"industry,omitempty"`
	CompanySize        string     `json:"company_size,omitempty"`
	Website            string     `json:"website,omitempty"`
	Status             LeadStatus `json:"status,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	QualificationScore *int       `json:"qualification_score,omitempty"`
}

// Validate はリクエスト送信前の必須項目チェックを行う。
func (in LeadInput) Validate() error {
	if strings.TrimSpace(in.CompanyName) == "" {
		return NewValidationError("company_name", "Company name is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return NewValidationError("status", "unknown lead status: "+string(in.Status))
	}
	return nil
}

// LeadPatch はリードの部分更新。nil のフィールドは送信しない。
type LeadPatch struct {
	CompanyName        *string     `json:"company_name,omitempty"`
	Industry           *string     `json:"industry,omitempty"`
	CompanySize        *string     `json:"company_size,omitempty"`
	Website            *string     `json:"website,omitempty"`
	Status             *LeadStatus `json:"status,omitempty"`
	Notes              *string     `json:"notes,omitempty"`
	QualificationScore *int        `json:"qualification_score,omitempty"`
	AIInsights         *string     `json:"ai_insights,omitempty"`
}

// IsEmpty は更新対象のフィールドがないかを返す。
func (p LeadPatch) IsEmpty() bool {
	return p.CompanyName == nil && p.Industry == nil && p.CompanySize == nil &&
		p.Website == nil && p.Status == nil && p.Notes == nil &&
		p.QualificationScore == nil && p.AIInsights == nil
}

// Validate は部分更新の値を検証する。
func (p LeadPatch) Validate() error {
	if p.IsEmpty() {
		return NewValidationError("lead", "nothing to update")
	}
	if p.CompanyName != nil && strings.TrimSpace(*p.CompanyName) == "" {
		return NewValidationError("company_name", "Company name is required")
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewValidationError("status", "unknown lead status: "+string(*p.Status))
	}
	return nil
}

// Apply は部分更新をローカルのリードに反映したコピーを返す。
func (p LeadPatch) Apply(l Lead) Lead {
	if p.CompanyName != nil {
		l.CompanyName = *p.CompanyName
	}
	if p.Industry != nil {
		l.Industry = *p.Industry
	}
	if p.CompanySize != nil {
		l.CompanySize = *p.CompanySize
	}
	if p.Website != nil {
		l.Website = *p.Website
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.QualificationScore != nil {
		score := *p.QualificationScore
		l.QualificationScore = &score
	}
	if p.AIInsights != nil {
		l.AIInsights = *p.AIInsights
	}
	return l
}

// LeadStats はステータス別の集計値。保存はせず、一覧から導出する。
type LeadStats struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Contacted int `json:"contacted"`
	Qualified int `json:"qualified"`
	Proposal  int `json:"proposal"`
	Won       int `json:"won"`
	Lost      int `json:"lost"`
}

// ComputeLeadStats はリード一覧から集計値を計算する。
// 未知のステータスは Total にのみ計上する。
func ComputeLeadStats(leads []Lead) LeadStats {
	var s LeadStats
	for i := range leads {
		s.Total++
		if p := s.counter(leads[i].Status); p != nil {
			*p++
		}
	}
	return s
}

// Count は指定ステータスの件数を返す。
func (s *LeadStats) Count(status LeadStatus) int {
	if p := s.counter(status); p != nil {
		return *p
	}
	return 0
}

func (s *LeadStats) counter(status LeadStatus) *int {
	switch status {
	case LeadStatusNew:
		return &s.New
	case LeadStatusContacted:
		return &s.Contacted
	case LeadStatusQualified:
		return &s.Qualified
	case LeadStatusProposal:
		return &s.Proposal
	case LeadStatusWon:
		return &s.Won
	case LeadStatusLost:
		return &s.Lost
	default:
		return nil
	}
}

// SeedResult はサンプルリード投入の結果。
type SeedResult struct {
	Message       string `json:"message"`
	TotalExamples int    `json:"total_examples"`
}
