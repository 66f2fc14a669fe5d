package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestEmbeddedLibrary(t *testing.T) {
	r := Get()
	for _, id := range []string{ExtractionStatement, ExtractionRetry, InsightsMemo} {
		pt, err := r.GetPrompt(id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if pt.Category != strings.Split(id, ".")[0] {
			t.Errorf("%s category = %q", id, pt.Category)
		}
	}

	sys, user, err := r.Render(ExtractionStatement, Vars{"Filename": "pl.pdf", "Text": "Revenue 10"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sys, `"total_equity": 0`) {
		t.Error("extraction system prompt lost the target shape")
	}
	if user != "Document filename: pl.pdf\n\nRevenue 10" {
		t.Errorf("user = %q", user)
	}
}

func TestRenderUserPrompt(t *testing.T) {
	pt := &PromptTemplate{
		ID:             "t.one",
		UserPromptTmpl: "{{.Name}} in {{.Currency}}",
		Variables: []PromptVariable{
			{Name: "Name", Required: true},
			{Name: "Currency", Default: "USD"},
		},
	}

	tests := []struct {
		name    string
		vars    Vars
		want    string
		wantErr bool
	}{
		{"default fills", Vars{"Name": "Apex"}, "Apex in USD", false},
		{"override default", Vars{"Name": "Apex", "Currency": "EUR"}, "Apex in EUR", false},
		{"missing required", Vars{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderUserPrompt(pt, tt.vars)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"p/insights/memo.json": {Data: []byte(`{"system_prompt":"short","user_prompt_template":"{{.Payload}}"}`)},
		"p/top.json":           {Data: []byte(`{"id":"custom.id","system_prompt":"x"}`)},
		"p/readme.txt":         {Data: []byte("ignored")},
	}
	r := NewRegistry()
	if err := LoadFS(r, fsys, "p"); err != nil {
		t.Fatal(err)
	}
	if got := r.ListPrompts(); len(got) != 2 || got[0] != "custom.id" || got[1] != "insights.memo" {
		t.Errorf("ids = %v", got)
	}
	pt, _ := r.GetPrompt("custom.id")
	if pt.Category != "default" {
		t.Errorf("category = %q", pt.Category)
	}

	bad := fstest.MapFS{"p/x.json": {Data: []byte(`{"user_prompt_template":"{{.Open"}`)}}
	if err := LoadFS(NewRegistry(), bad, "p"); err == nil {
		t.Error("expected template parse error")
	}
}

func TestLoadFromDirectory_Overrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "extraction"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `{"system_prompt":"override","user_prompt_template":"{{.Payload}}"}`
	if err := os.WriteFile(filepath.Join(dir, "extraction", "test_only.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFromDirectory(dir); err != nil {
		t.Fatal(err)
	}
	sys, user, err := Get().Render("extraction.test_only", Vars{"Payload": "p"})
	if err != nil || sys != "override" || user != "p" {
		t.Errorf("got %q %q %v", sys, user, err)
	}
	if err := LoadFromDirectory(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
