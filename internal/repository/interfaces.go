// Package repository はデータ永続化のインターフェースを定義する。
//
// セッションはローカル（ファイル・PostgreSQL・Redis）に保存し、
// リード・担当者・テンプレートはバックエンドAPIを介して操作する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/leadman/internal/model"
)

// ErrCorruptSession は保存済みセッションが読み取れない、または片方しか存在しない場合のエラー。
var ErrCorruptSession = errors.New("persisted session is corrupt")

// SessionStore はセッション（トークンとユーザー）の永続化インターフェース。
// トークンとユーザーは常に同時に書き込まれ、同時に削除される。
type SessionStore interface {
	// Load は保存されたセッションを取得する。存在しない場合はnilを返す。
	// 内容が壊れている場合は ErrCorruptSession をラップしたエラーを返す。
	Load(ctx context.Context) (*model.Session, error)

	// Save はトークンとユーザーを1回の書き込みで保存する。
	Save(ctx context.Context, session *model.Session) error

	// Clear はトークンとユーザーを削除する。存在しない場合もエラーにしない。
	Clear(ctx context.Context) error
}

// LeadRepository はリードのリポジトリインターフェース。
type LeadRepository interface {
	// Create はリードを作成する。
	Create(ctx context.Context, in model.LeadInput) (*model.Lead, error)

	// List はリード一覧を更新日時の降順で取得する。statusが空の場合は全件。
	List(ctx context.Context, status model.LeadStatus) ([]model.Lead, error)

	// Get は指定IDのリードを取得する。存在しない場合は model.ErrNotFound をラップしたエラーを返す。
	Get(ctx context.Context, id string) (*model.Lead, error)

	// Update は指定したフィールドのみを更新する。
	Update(ctx context.Context, id string, patch model.LeadPatch) (*model.Lead, error)

	// Delete はリードを削除する。担当者は削除されない。
	Delete(ctx context.Context, id string) error

	// Stats はステータス別の件数をバックエンドで集計して返す。
	Stats(ctx context.Context) (*model.LeadStats, error)

	// SeedExamples はサンプルリードを投入する。
	SeedExamples(ctx context.Context) (*model.SeedResult, error)
}

// ContactRepository は担当者のリポジトリインターフェース。
type ContactRepository interface {
	// Create は担当者を作成する。
	Create(ctx context.Context, in model.ContactInput) (*model.Contact, error)

	// List は担当者一覧を取得する。leadIDが空の場合は全件。
	List(ctx context.Context, leadID string) ([]model.Contact, error)

	// Get は指定IDの担当者を取得する。
	Get(ctx context.Context, id string) (*model.Contact, error)

	// Update は指定したフィールドのみを更新する。
	Update(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error)

	// Delete は担当者を削除する。
	Delete(ctx context.Context, id string) error
}

// TemplateRepository はメールテンプレートのリポジトリインターフェース。
type TemplateRepository interface {
	Create(ctx context.Context, in model.TemplateInput) (*model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	Get(ctx context.Context, id string) (*model.Template, error)
	Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error)
	Delete(ctx context.Context, id string) error
}
