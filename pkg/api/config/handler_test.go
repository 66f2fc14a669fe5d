package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"deal_diligence/pkg/core/agent"
	"deal_diligence/pkg/core/llm"
)

type stubProvider struct{}

func (stubProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	return "", nil
}

func (stubProvider) AdaptInstructions(raw string) string { return raw }

func TestConfigEndpoints(t *testing.T) {
	mgr := agent.NewStaticManager(agent.Config{ActiveProvider: "groq"}, map[string]llm.Provider{
		"groq":   stubProvider{},
		"gemini": stubProvider{},
	})
	r := mux.NewRouter()
	NewHandler(mgr).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	var got Response
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ActiveProvider != "groq" || len(got.Available) != 2 {
		t.Errorf("config = %+v", got)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"switch", `{"provider":"gemini"}`, http.StatusOK},
		{"unknown provider", `{"provider":"kimi"}`, http.StatusBadRequest},
		{"bad body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/config/switch", strings.NewReader(tt.body)))
			if rec.Code != tt.code {
				t.Errorf("status = %d body=%s", rec.Code, rec.Body)
			}
		})
	}
	if mgr.GetActiveProvider() != "gemini" {
		t.Errorf("active = %s", mgr.GetActiveProvider())
	}
}
