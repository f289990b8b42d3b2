package agent

import (
	"sync"

	"cortex/internal/adapters/config"
	"cortex/internal/adapters/llm"
	"cortex/pkg/logger"
)

// maxSessions bounds the per-session agent registry; the least recently
// created session is evicted past the cap.
const maxSessions = 1024

// Factory constructs agents per session. It replaces any notion of a
// process-global agent: callers thread the factory through explicitly.
type Factory struct {
	defaults BusinessContext
	memCfg   config.MemoryConfig
	backend  Backend
	llm      llm.Client

	mu       sync.Mutex
	sessions map[string]*Agent
	order    []string
	log      *logger.Logger
}

// NewFactory creates an agent factory with the default business context.
func NewFactory(cfg *config.Config, backend Backend, llmClient llm.Client) *Factory {
	return &Factory{
		defaults: ContextFromConfig(cfg.Business),
		memCfg:   cfg.Memory,
		backend:  backend,
		llm:      llmClient,
		sessions: make(map[string]*Agent),
		log:      logger.Get().With("component", "agent_factory"),
	}
}

// ContextFromConfig builds the default business context from configuration.
func ContextFromConfig(cfg config.BusinessConfig) BusinessContext {
	return BusinessContext{
		Industry:    cfg.Industry,
		CompanySize: cfg.CompanySize,
		KeyMetrics: KeyMetrics{
			Revenue:     cfg.Revenue,
			Employees:   cfg.Employees,
			MarketShare: cfg.MarketShare,
			GrowthRate:  cfg.GrowthRate,
			Efficiency:  cfg.Efficiency,
			RiskScore:   cfg.RiskScore,
		},
		Priorities: cfg.Priorities,
	}
}

// NewAgent constructs a standalone agent with the given context.
func (f *Factory) NewAgent(bctx BusinessContext) *Agent {
	return New(bctx, NewMemory(f.memCfg), f.backend, f.llm)
}

// ForSession returns the agent bound to a session, creating it on first use
// with the default business context.
func (f *Factory) ForSession(sessionID string) *Agent {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.sessions[sessionID]; ok {
		return a
	}

	if len(f.sessions) >= maxSessions {
		evicted := f.order[0]
		f.order = f.order[1:]
		delete(f.sessions, evicted)
		f.log.Info("Evicted oldest agent session", "session_id", evicted)
	}

	a := New(f.defaults, NewMemory(f.memCfg), f.backend, f.llm)
	f.sessions[sessionID] = a
	f.order = append(f.order, sessionID)

	f.log.Debug("Created agent for session", "session_id", sessionID, "agent_id", a.ID())
	return a
}
