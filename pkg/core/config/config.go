// Package config loads service settings from a YAML file, a .env file and
// the process environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"deal_diligence/pkg/core/agent"
	"deal_diligence/pkg/core/valuation"
)

type Config struct {
	Server   ServerConfig        `yaml:"server"`
	Database DatabaseConfig      `yaml:"database"`
	LLM      LLMConfig           `yaml:"llm"`
	Pipeline PipelineConfig      `yaml:"pipeline"`
	DCF      valuation.Overrides `yaml:"dcf"`
	Sweeper  SweeperConfig       `yaml:"sweeper"`
	Log      LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres | memory
	URL    string `yaml:"url"`    // postgres DSN
	Path   string `yaml:"path"`   // sqlite file
}

type LLMConfig struct {
	agent.Config `yaml:",inline"`
	RPM          int    `yaml:"rpm"`
	CacheTTL     string `yaml:"cache_ttl"`
	CallTimeout  string `yaml:"call_timeout"`
	PromptDir    string `yaml:"prompt_dir"` // optional overrides of the built-in prompts
}

// PipelineConfig switches optional stages. AI-backed stages are further
// disabled at bootstrap when no provider has credentials.
type PipelineConfig struct {
	Classifier     bool   `yaml:"classifier"`
	AIExtraction   bool   `yaml:"ai_extraction"`
	AnomalyDetect  bool   `yaml:"anomaly_detection"`
	Multivariate   bool   `yaml:"multivariate"`
	Insights       bool   `yaml:"insights"`
	InsightTimeout string `yaml:"insight_timeout"`
	Workers        int    `yaml:"workers"` // batch CLI concurrency
}

type SweeperConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Schedule   string `yaml:"schedule"`    // cron spec
	StaleAfter string `yaml:"stale_after"` // duration
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a configuration that runs locally without any service
// besides an LLM key.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: "sqlite", Path: "deal_diligence.db"},
		LLM: LLMConfig{
			Config: agent.Config{
				ActiveProvider: "groq",
				Agents: map[string]agent.AgentConfig{
					agent.RoleExtraction: {Description: "Statement extraction from document text"},
					agent.RoleInsights:   {Description: "Partner memo over computed analyses"},
				},
			},
			RPM:         30,
			CacheTTL:    "30m",
			CallTimeout: "60s",
		},
		Pipeline: PipelineConfig{
			Classifier:     true,
			AIExtraction:   true,
			AnomalyDetect:  true,
			Multivariate:   true,
			Insights:       true,
			InsightTimeout: "90s",
			Workers:        4,
		},
		Sweeper: SweeperConfig{Enabled: true, Schedule: "@every 5m", StaleAfter: "30m"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path (optional; a missing file keeps defaults), then .env, then
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	// Missing .env is normal outside development.
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "HTTP_ADDR")
	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Database.Path, "SQLITE_PATH")
	setString(&cfg.LLM.ActiveProvider, "LLM_PROVIDER")
	setString(&cfg.LLM.PromptDir, "PROMPT_DIR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.File, "LOG_FILE")
	if v, err := strconv.Atoi(os.Getenv("LLM_RPM")); err == nil {
		cfg.LLM.RPM = v
	}
	// A DSN without an explicit driver means Postgres.
	if os.Getenv("DATABASE_URL") != "" && os.Getenv("DB_DRIVER") == "" {
		cfg.Database.Driver = "postgres"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks values that are only parsed later.
func (c Config) Validate() error {
	for name, v := range map[string]string{
		"llm.cache_ttl":            c.LLM.CacheTTL,
		"llm.call_timeout":         c.LLM.CallTimeout,
		"pipeline.insight_timeout": c.Pipeline.InsightTimeout,
		"sweeper.stale_after":      c.Sweeper.StaleAfter,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for postgres")
	}
	return nil
}

func (c LLMConfig) CacheDuration() time.Duration { return duration(c.CacheTTL, 0) }

func (c LLMConfig) CallDeadline() time.Duration { return duration(c.CallTimeout, 60*time.Second) }

func (c PipelineConfig) InsightDeadline() time.Duration {
	return duration(c.InsightTimeout, 90*time.Second)
}

func (c SweeperConfig) StaleDuration() time.Duration { return duration(c.StaleAfter, 30*time.Minute) }

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
