package config

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"gopkg.in/yaml.v2"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Pipeline.InsightDeadline() != 90*time.Second {
		t.Errorf("insight deadline = %v", cfg.Pipeline.InsightDeadline())
	}
	if cfg.DCF.WACC != nil {
		t.Error("default config should not override DCF assumptions")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	yml := `
server:
  addr: ":9000"
llm:
  active_provider: gemini
  rpm: 12
  call_timeout: 15s
  agents:
    insights:
      provider: deepseek
pipeline:
  classifier: false
  insight_timeout: 45s
dcf:
  wacc: 0.15
  terminal_growth_rate: 0.02
  projection_years: 7
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/dd")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_RPM", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.LLM.ActiveProvider != "gemini" || cfg.LLM.RPM != 12 {
		t.Errorf("file values not applied: %+v %+v", cfg.Server, cfg.LLM)
	}
	if cfg.LLM.Agents["insights"].Provider != "deepseek" {
		t.Errorf("agents = %+v", cfg.LLM.Agents)
	}
	if _, ok := cfg.LLM.Agents["extraction"]; !ok {
		t.Error("default agents should survive a partial agents block")
	}
	if cfg.Pipeline.Classifier || !cfg.Pipeline.Insights {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.InsightDeadline() != 45*time.Second {
		t.Errorf("deadline = %v", cfg.Pipeline.InsightDeadline())
	}
	if cfg.DCF.WACC == nil || *cfg.DCF.WACC != 0.15 || *cfg.DCF.ProjectionYears != 7 {
		t.Errorf("dcf overrides = %+v", cfg.DCF)
	}
	if cfg.DCF.TerminalGrowthRate == nil || *cfg.DCF.TerminalGrowthRate != 0.02 {
		t.Errorf("terminal growth override = %v", cfg.DCF.TerminalGrowthRate)
	}
	if cfg.LLM.CallDeadline() != 15*time.Second {
		t.Errorf("call deadline = %v", cfg.LLM.CallDeadline())
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.URL != "postgres://localhost/dd" {
		t.Errorf("database = %+v", cfg.Database)
	}
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "memory")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.LLM.CacheTTL != Default().LLM.CacheTTL {
		t.Errorf("cfg = %+v", cfg)
	}
}

// Commented-out keys in the shipped file must still be real settings once enabled.
func TestShippedConfig_CommentedKeysAreKnown(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	enabled := regexp.MustCompile(`(?m)^(\s*)# ([a-z_]+:)`).ReplaceAll(raw, []byte("$1$2"))

	cfg := Default()
	if err := yaml.UnmarshalStrict(enabled, &cfg); err != nil {
		t.Fatalf("unknown key in config/config.yaml: %v", err)
	}
	if cfg.DCF.TerminalGrowthRate == nil || *cfg.DCF.TerminalGrowthRate != 0.025 {
		t.Errorf("terminal growth example not applied: %v", cfg.DCF.TerminalGrowthRate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("shipped config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad duration", func(c *Config) { c.Sweeper.StaleAfter = "soon" }},
		{"bad call timeout", func(c *Config) { c.LLM.CallTimeout = "1 minute" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without url", func(c *Config) { c.Database.Driver = "postgres"; c.Database.URL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
