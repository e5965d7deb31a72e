package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code       string // エラーコード
	Message    string // エラーメッセージ
	Category   string // カテゴリ: auth, validation, remote, not_found, system
	Action     string // ユーザー向け対処方法
	Detail     string // バックエンドが返した detail（存在する場合）
	StatusCode int    // バックエンドのHTTPステータス（リモート由来の場合）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap はエラーコードに対応するセンチネルエラーを返す。
// 呼び出し側は errors.Is で分類を判定できる。
func (e *APIError) Unwrap() error {
	switch e.Code {
	case ErrCodeAuthRejected:
		return ErrAuthRejected
	case ErrCodeNotFound:
		return ErrNotFound
	case ErrCodeValidationFailed, ErrCodeInvalidCredentials, ErrCodeInvalidURL:
		return ErrValidation
	case ErrCodeOperationPending:
		return ErrPending
	default:
		return nil
	}
}

// センチネルエラー
var (
	ErrAuthRejected = errors.New("authentication rejected")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrPending      = errors.New("operation pending")
)

// 定義済みエラーコード
const (
	ErrCodeAuthRejected       = "AUTH_REJECTED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRemoteFailure      = "REMOTE_FAILURE"
	ErrCodeOperationPending   = "OPERATION_PENDING"
	ErrCodeInvalidURL         = "INVALID_URL"
)

// NewAuthRejectedError は認証拒否エラーを生成する。
// セッションはグローバルにクリアされるため、個別の通知は行わない。
func NewAuthRejectedError() *APIError {
	return &APIError{
		Code:       ErrCodeAuthRejected,
		Message:    "Session expired or invalid",
		Category:   "auth",
		Action:     "Please sign in again.",
		StatusCode: 401,
	}
}

// NewInvalidCredentialsError はログイン・登録時の認証失敗エラーを生成する。
func NewInvalidCredentialsError(detail string) *APIError {
	if detail == "" {
		detail = "Invalid credentials"
	}
	return &APIError{
		Code:       ErrCodeInvalidCredentials,
		Message:    detail,
		Category:   "auth",
		Action:     "Check your email and password.",
		Detail:     detail,
		StatusCode: 401,
	}
}

// NewValidationError は入力検証エラーを生成する。
// Detail にはどの項目かを保持する。
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Action:   "Correct the highlighted field and try again.",
		Detail:   field,
	}
}

// NewNotFoundError はエンティティ未検出エラーを生成する。
func NewNotFoundError(entity, id string) *APIError {
	return &APIError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", entity, id),
		Category:   "not_found",
		Action:     "The item may have been deleted. Return to the list.",
		StatusCode: 404,
	}
}

// NewRemoteError はバックエンド操作の失敗エラーを生成する。
func NewRemoteError(status int, detail string) *APIError {
	msg := "Request failed"
	if status > 0 {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	return &APIError{
		Code:       ErrCodeRemoteFailure,
		Message:    msg,
		Category:   "remote",
		Action:     "Wait a moment and try again.",
		Detail:     detail,
		StatusCode: status,
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("Invalid website URL: %s", reason),
		Category: "validation",
		Action:   "Enter a URL starting with http:// or https://.",
		Detail:   "website",
	}
}

// NewOperationPendingError は同じ操作が実行中であることを示すエラーを生成する。
func NewOperationPendingError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeOperationPending,
		Message:  fmt.Sprintf("%s is already in progress", kind),
		Category: "validation",
		Action:   "Wait for the current operation to finish.",
	}
}

// DetailOf はユーザーに提示できる詳細メッセージを取り出す。
// APIError 以外は err.Error() を返す。
func DetailOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" && apiErr.Code != ErrCodeValidationFailed && apiErr.Code != ErrCodeInvalidURL {
			return apiErr.Detail
		}
		return apiErr.Message
	}
	return err.Error()
}

// UserMessage は固定ラベルと詳細を組み合わせた通知文を返す。
// 例: "AI research failed: upstream timeout"
func UserMessage(label string, err error) string {
	detail := DetailOf(err)
	if detail == "" {
		return label
	}
	return label + ": " + detail
}
