package utils

import (
	"math"
	"strings"
	"testing"
)

type sample struct {
	Revenue float64 `json:"revenue"`
	Name    string  `json:"name"`
}

func TestSmartParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  sample
	}{
		{"plain json", `{"revenue": 10, "name": "a"}`, sample{10, "a"}},
		{"fenced block", "Here you go:\n```json\n{\"revenue\": 20, \"name\": \"b\"}\n```\nThanks", sample{20, "b"}},
		{"prose around object", `Sure! {"revenue": 30, "name": "c"} Let me know.`, sample{30, "c"}},
		{"trailing comma", `{"revenue": 40, "name": "d",}`, sample{40, "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			if _, err := SmartParse(tt.input, &got); err != nil {
				t.Fatalf("SmartParse failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsolateJSON(t *testing.T) {
	if got := IsolateJSON("no json here"); got != "no json here" {
		t.Errorf("IsolateJSON passthrough = %q", got)
	}
	if got := IsolateJSON("x {\"a\":{\"b\":1}} y"); got != `{"a":{"b":1}}` {
		t.Errorf("IsolateJSON nested = %q", got)
	}
}

func TestSafeDiv(t *testing.T) {
	if SafeDiv(1, 0) != 0 {
		t.Error("division by zero should be 0")
	}
	if SafeDiv(math.Inf(1), 1) != 0 {
		t.Error("infinite quotient should be 0")
	}
	if SafeDiv(6, 3) != 2 {
		t.Error("6/3 should be 2")
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   float64
	}{
		{1.25, 1, 1.3},
		{-1.25, 1, -1.3},
		{78.21428, 1, 78.2},
		{1234567.5, 0, 1234568},
		{math.NaN(), 2, 0},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(150, 0, 100) != 100 || Clamp(-3, 0, 100) != 0 || Clamp(42, 0, 100) != 42 {
		t.Error("Clamp bounds wrong")
	}
	if ClampInt(-1, 0, 100) != 0 || ClampInt(101, 0, 100) != 100 {
		t.Error("ClampInt bounds wrong")
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("```markdown\n**Proceed** with caution\n```")
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	if !strings.Contains(html, "<strong>Proceed</strong>") {
		t.Errorf("unexpected html: %q", html)
	}
}
