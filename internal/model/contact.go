package model

import (
	"strings"
	"time"
)

// Contact はリードに紐づく担当者を表す。
// LeadID は参照のみで、リード削除後も残り得る。
type Contact struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Name      string    `json:"name"`
	Title     string    `json:"title,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	LinkedIn  string    `json:"linkedin,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactInput は担当者作成リクエストのボディ。
type ContactInput struct {
	LeadID   string `json:"lead_id"`
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Validate はリクエスト送信前の必須項目チェックを行う。
func (in ContactInput) Validate() error {
	if strings.TrimSpace(in.LeadID) == "" {
		return NewValidationError("lead_id", "Contact must belong to a lead")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name", "Contact name is required")
	}
	return nil
}

// ContactPatch は担当者の部分更新。lead_id は付け替え不可のため含めない。
type ContactPatch struct {
	Name     *string `json:"name,omitempty"`
	Title    *string `json:"title,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	LinkedIn *string `json:"linkedin,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// Validate は部分更新の値を検証する。
func (p ContactPatch) Validate() error {
	if p.Name == nil && p.Title == nil && p.Email == nil &&
		p.Phone == nil && p.LinkedIn == nil && p.Notes == nil {
		return NewValidationError("contact", "nothing to update")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewValidationError("name", "Contact name is required")
	}
	return nil
}
