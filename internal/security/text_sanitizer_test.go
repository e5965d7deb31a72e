package security

import (
	"strings"
	"testing"
)

// TestSanitize_StripsMarkup はHTMLタグが除去されテキストが残ることを検証する。
func TestSanitize_StripsMarkup(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptタグと中身が除去される",
			input:        `Acme is growing<script>alert('xss')</script>`,
			wantAbsent:   []string{"<script", "alert"},
			wantContains: []string{"Acme is growing"},
		},
		{
			name:         "onイベント属性付きのタグが除去される",
			input:        `<img src=x onerror="steal()">Contact Jane`,
			wantAbsent:   []string{"<img", "onerror", "steal"},
			wantContains: []string{"Contact Jane"},
		},
		{
			name:         "書式タグは中身だけ残る",
			input:        `<p><strong>Key facts</strong></p>`,
			wantAbsent:   []string{"<p>", "<strong>"},
			wantContains: []string{"Key facts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should NOT contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_PreservesPlainText はプレーンテキストが変更されないことを検証する。
func TestSanitize_PreservesPlainText(t *testing.T) {
	s := NewTextSanitizer()

	inputs := []string{
		"",
		"Hi {{name}},\n\nWould you be open to a call?",
		"Industry: Media & Entertainment",
		"Revenue grew 40% year over year",
	}
	for _, in := range inputs {
		if got := s.Sanitize(in); got != in {
			t.Errorf("Sanitize(%q) = %q, want unchanged", in, got)
		}
	}
}

// TestSanitize_Idempotent は同一入力に対して同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()
	input := `<b>Acme</b> & partners`

	first := s.Sanitize(input)
	second := s.Sanitize(input)
	if first != second {
		t.Errorf("Sanitize not deterministic: %q vs %q", first, second)
	}
	if first != "Acme & partners" {
		t.Errorf("Sanitize(%q) = %q, want %q", input, first, "Acme & partners")
	}
}
