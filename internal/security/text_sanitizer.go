// Package security はコンソールが扱う外部由来データの安全化を提供する。
//
// AIが生成したテキストやユーザーが入力したメモはバックエンドから
// そのまま返ってくるため、ビューに載せる前にHTMLを取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキストとして表示する文字列の安全化を行う。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去し、エンティティを元の文字に戻したテキストを返す。
	// script/style の中身は破棄される。改行は保持する。
	Sanitize(raw string) string
}

// textSanitizer はbluemondayのStrictPolicyによるTextSanitizerの実装。
// Policyはスレッドセーフのため、1インスタンスを共有する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

var _ TextSanitizer = (*textSanitizer)(nil)

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はHTMLを除去したプレーンテキストを返す。
// StrictPolicyは & や < をエスケープするため、最後にアンエスケープする。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<>&") {
		return raw
	}
	return html.UnescapeString(s.policy.Sanitize(raw))
}
