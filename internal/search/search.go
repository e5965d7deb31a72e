// Package search はビューの絞り込みに使う文字列一致を提供する。
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matches はqueryがいずれかのフィールドに部分一致するかを返す。
// 比較はUnicodeのケースフォールディングで行う。空のqueryは常に一致する。
func Matches(query string, fields ...string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	// Caser は並行利用できないため呼び出しごとに生成する。
	fold := cases.Fold()
	needle := fold.String(q)
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}

// Filter はmatchがtrueを返す要素だけを元の順序で返す。
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if Matches(query, fields(it)...) {
			out = append(out, it)
		}
	}
	return out
}
