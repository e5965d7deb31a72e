package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/leadman/internal/model"
)

// maxDetailLength は非JSONのエラーボディから採用する最大文字数。
const maxDetailLength = 200

// mapStatus はバックエンドのHTTPステータスをAPIErrorに分類する。
func mapStatus(ctx context.Context, status int, detail string) *model.APIError {
	switch {
	case status == http.StatusUnauthorized && isCredentialExchange(ctx):
		return model.NewInvalidCredentialsError(detail)
	case status == http.StatusUnauthorized:
		err := model.NewAuthRejectedError()
		err.Detail = detail
		return err
	case status == http.StatusNotFound:
		err := model.NewNotFoundError("resource", "")
		if detail != "" {
			err.Message = detail
		} else {
			err.Message = "Not found"
		}
		err.Detail = detail
		return err
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		msg := detail
		if msg == "" {
			msg = "Invalid request"
		}
		err := model.NewValidationError("", msg)
		err.StatusCode = status
		return err
	default:
		return model.NewRemoteError(status, detail)
	}
}

// parseDetail はエラーボディから表示用の詳細を取り出す。
// {"detail": "..."} と、検証エラーの {"detail": [{"msg": "..."}]} に対応する。
// JSONでない場合はボディのテキストを切り詰めて返す。
func parseDetail(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return truncate(text)
	}
	if len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return truncate(string(envelope.Detail))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDetailLength {
		return s
	}
	return string(r[:maxDetailLength]) + "..."
}
