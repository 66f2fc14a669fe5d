package agent

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"deal_diligence/pkg/core/llm"
	"deal_diligence/pkg/core/logger"
)

// Agent roles that need a model.
const (
	RoleExtraction = "extraction"
	RoleInsights   = "insights"
)

type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Agents         map[string]AgentConfig    `yaml:"agents"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Description string `yaml:"description"`
}

// ProviderConfig holds per-provider settings. The key itself is read from
// the environment variable named by APIKeyEnv (default <NAME>_API_KEY).
type ProviderConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// Manager routes each agent role to a provider built at bootstrap.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

// NewManager builds every provider that has credentials. Providers without
// a key are skipped, so a Manager may end up empty.
func NewManager(ctx context.Context, config Config) *Manager {
	m := &Manager{config: config, providers: map[string]llm.Provider{}}

	names := map[string]bool{config.ActiveProvider: true}
	for name := range config.Providers {
		names[name] = true
	}
	for _, ac := range config.Agents {
		names[ac.Provider] = true
	}

	for name := range names {
		if name == "" {
			continue
		}
		pc := config.Providers[name]
		envName := pc.APIKeyEnv
		if envName == "" {
			envName = strings.ToUpper(name) + "_API_KEY"
		}
		p, err := llm.New(ctx, llm.Settings{
			Provider: name,
			Model:    pc.Model,
			APIKey:   os.Getenv(envName),
			BaseURL:  pc.BaseURL,
		})
		if err != nil {
			logger.Log.WithError(err).Warnf("provider %s unavailable", name)
			continue
		}
		m.providers[name] = p
	}
	return m
}

// NewStaticManager wraps already-built providers; used by tests and tools.
func NewStaticManager(config Config, providers map[string]llm.Provider) *Manager {
	return &Manager{config: config, providers: providers}
}

// GetProvider returns the provider for a role, or nil when none is usable.
func (m *Manager) GetProvider(agentType string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// 1. Check for agent-specific override
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p
		}
	}

	// 2. Use global active provider
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return nil
}

// Available lists the providers that were built, sorted.
func (m *Manager) Available() []string {
	out := make([]string, 0, len(m.providers))
	for name := range m.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.mu.Lock()
	m.config.ActiveProvider = newProvider
	m.mu.Unlock()
	logger.Log.Infof("Global provider set to: %s", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// For returns a provider bound to role that resolves the concrete provider on
// every call, so SetGlobalProvider affects work already wired.
func (m *Manager) For(role string) llm.Provider {
	return &roleProvider{m: m, role: role}
}

type roleProvider struct {
	m    *Manager
	role string
}

func (p *roleProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	target := p.m.GetProvider(p.role)
	if target == nil {
		return "", fmt.Errorf("no provider for %s: %w", p.role, llm.ErrNoAPIKey)
	}
	return target.GenerateResponse(ctx, prompt, systemPrompt, options)
}

func (p *roleProvider) AdaptInstructions(raw string) string {
	if target := p.m.GetProvider(p.role); target != nil {
		return target.AdaptInstructions(raw)
	}
	return raw
}
