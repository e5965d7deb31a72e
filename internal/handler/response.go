package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/leadman/internal/middleware"
	"github.com/hitoshi/leadman/internal/model"
	"github.com/hitoshi/leadman/internal/notify"
)

// maxRequestBodySize はコンソールへのリクエストボディの上限。
const maxRequestBodySize = 1 << 20

// responder はハンドラー共通の応答処理。
// 失敗時の通知とリダイレクトの方針をまとめて持つ。
type responder struct {
	notifier  notify.Notifier
	logger    *slog.Logger
	loginPath string
}

// writeJSON はvをJSONで書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// redirect はビュー遷移を303で返す。
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// decodeJSON はリクエストボディをvにデコードする。空のボディは許可しない。
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		return &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "Request body could not be parsed",
			Category: "validation",
			Action:   "Send a valid JSON body.",
		}
	}
	return nil
}

// fail は失敗の種類に応じて応答する。
//
//   - 認証拒否: ログイン画面へリダイレクト（通知なし）
//   - 入力エラー: 通知して400
//   - 実行中: 409
//   - 未検出: 通知して404
//   - それ以外: "label: detail" を通知して502（APIError以外は500）
func (rs *responder) fail(w http.ResponseWriter, r *http.Request, label string, err error) {
	rs.failTo(w, r, label, "", err)
}

// failTo は fail と同じだが、未検出の場合はlistPathへリダイレクトする。
func (rs *responder) failTo(w http.ResponseWriter, r *http.Request, label, listPath string, err error) {
	var apiErr *model.APIError
	isAPIErr := errors.As(err, &apiErr)
	if !isAPIErr {
		apiErr = &model.APIError{Code: "REQUEST_FAILED", Message: err.Error(), Category: "system"}
	}

	switch {
	case errors.Is(err, model.ErrAuthRejected):
		redirect(w, r, rs.loginPath)
	case errors.Is(err, model.ErrValidation):
		rs.notifier.Error(model.DetailOf(err))
		status := http.StatusBadRequest
		if apiErr.Code == model.ErrCodeInvalidCredentials {
			status = http.StatusUnauthorized
		}
		middleware.WriteErrorResponse(w, status, apiErr)
	case errors.Is(err, model.ErrPending):
		rs.notifier.Info(model.DetailOf(err))
		middleware.WriteErrorResponse(w, http.StatusConflict, apiErr)
	case errors.Is(err, model.ErrNotFound):
		rs.notifier.Error(label)
		if listPath != "" {
			redirect(w, r, listPath)
			return
		}
		middleware.WriteErrorResponse(w, http.StatusNotFound, apiErr)
	case isAPIErr:
		rs.notifier.Error(model.UserMessage(label, err))
		middleware.WriteErrorResponse(w, http.StatusBadGateway, apiErr)
	default:
		rs.logger.Error("internal server error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		rs.notifier.Error(label)
		middleware.WriteInternalServerError(w)
	}
}

// softFail は一覧の再取得失敗のように前回の表示を維持できる場合に使う。
// 認証拒否の場合のみ応答を書き込んで true を返し、それ以外は通知だけ行う。
func (rs *responder) softFail(w http.ResponseWriter, r *http.Request, label string, err error) bool {
	if errors.Is(err, model.ErrAuthRejected) {
		redirect(w, r, rs.loginPath)
		return true
	}
	rs.notifier.Error(model.UserMessage(label, err))
	return false
}
