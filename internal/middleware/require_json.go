package middleware

import (
	"mime"
	"net/http"
	"net/url"

	"github.com/hitoshi/leadman/internal/model"
)

// NewRequireJSONMiddleware は状態を変更するリクエストにJSONボディを要求する。
// 別オリジンからのリクエストは403で拒否する。
// フォーム送信はJSONのContent-Typeを付けられないため、ブラウザ経由の意図しない操作を防げる。
func NewRequireJSONMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if origin := r.Header.Get("Origin"); origin != "" {
				u, err := url.Parse(origin)
				if err != nil || u.Host != r.Host {
					WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
						Code:     "CROSS_ORIGIN_REJECTED",
						Message:  "Cross-origin requests are not allowed",
						Category: "auth",
						Action:   "Use the console from the same origin.",
					})
					return
				}
			}

			ct := r.Header.Get("Content-Type")
			// ボディなしのPOST（ログアウト等）は許可する
			if ct == "" && r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				WriteErrorResponse(w, http.StatusUnsupportedMediaType, &model.APIError{
					Code:     "UNSUPPORTED_MEDIA_TYPE",
					Message:  "Request body must be JSON",
					Category: "validation",
					Action:   "Send the request with Content-Type: application/json.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
