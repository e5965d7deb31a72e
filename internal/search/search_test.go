package search

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		fields []string
		want   bool
	}{
		{"会社名に部分一致", "tech", []string{"TechStartup Inc.", ""}, true},
		{"業種に部分一致", "tech", []string{"Acme Corp", "Technology"}, true},
		{"大文字クエリ", "ACME", []string{"Acme Corp"}, true},
		{"一致なし", "tech", []string{"Acme Corp", "Retail"}, false},
		{"空クエリは常に一致", "  ", []string{"Acme Corp"}, true},
		{"フィールドなし", "acme", nil, false},
		{"非ASCIIの大文字小文字", "émile", []string{"ÉMILE Consulting"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.query, tt.fields...); got != tt.want {
				t.Errorf("Matches(%q, %v) = %v, want %v", tt.query, tt.fields, got, tt.want)
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	type company struct{ name, industry string }
	items := []company{
		{"TechStartup Inc.", "Software"},
		{"Acme Corp", "Technology"},
		{"Globex", "Retail"},
	}

	got := Filter(items, "tech", func(c company) []string { return []string{c.name, c.industry} })
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].name != "TechStartup Inc." || got[1].name != "Acme Corp" {
		t.Errorf("got %v, want TechStartup then Acme", got)
	}

	all := Filter(items, "", func(c company) []string { return []string{c.name} })
	if len(all) != 3 {
		t.Errorf("empty query len = %d, want 3", len(all))
	}
}
