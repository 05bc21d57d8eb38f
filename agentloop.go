// Package agentloop provides a high-level façade over the agent runtime:
// provider selection, the tool registry with the built-in tool families, the
// session store and the sub-agent supervisor. Most applications interact
// with this package by:
//  1. Creating a Runtime via New() (settings default to the environment)
//  2. Optionally registering extra tools
//  3. Calling Run() with a prompt
//
// The façade delegates the conversation loop to agent.Agent while keeping
// setup concise. Defaults are safe for local development; production
// deployments typically supply a durable store path and a structured logger.
package agentloop

import (
	"context"
	"fmt"
	"sort"

	"github.com/agentloop/agentloop/agent"
	"github.com/agentloop/agentloop/config"
	"github.com/agentloop/agentloop/logging"
	"github.com/agentloop/agentloop/mcp"
	"github.com/agentloop/agentloop/provider"
	"github.com/agentloop/agentloop/provider/anthropic"
	"github.com/agentloop/agentloop/provider/ollama"
	"github.com/agentloop/agentloop/provider/openai"
	"github.com/agentloop/agentloop/store"
	"github.com/agentloop/agentloop/subagent"
	"github.com/agentloop/agentloop/tool"
	"github.com/agentloop/agentloop/tool/builtin"
)

// providerConstructors is the fixed set of supported backends. Adapters are
// selected here by id; nothing else in the runtime switches on provider
// identity.
var providerConstructors = map[string]func(cfg provider.Config) provider.Provider{
	anthropic.ProviderName: func(cfg provider.Config) provider.Provider { return anthropic.New(cfg) },
	openai.ProviderName:    func(cfg provider.Config) provider.Provider { return openai.New(cfg) },
	ollama.ProviderName:    func(cfg provider.Config) provider.Provider { return ollama.New(cfg) },
}

// NewProvider constructs the adapter registered under id. Unsupported ids
// fail fast naming the id and the supported set.
func NewProvider(id string, cfg provider.Config) (provider.Provider, error) {
	ctor, ok := providerConstructors[id]
	if !ok {
		supported := make([]string, 0, len(providerConstructors))
		for name := range providerConstructors {
			supported = append(supported, name)
		}
		sort.Strings(supported)
		return nil, fmt.Errorf("unsupported provider %q (supported: %v)", id, supported)
	}
	return ctor(cfg), nil
}

// Options configures a Runtime instance.
type Options struct {
	// Settings override the environment-derived configuration.
	Settings *config.Settings

	// Logger defaults to a no-op logger, or a text logger when
	// Settings.Debug is set.
	Logger logging.Logger

	// Store overrides the session state backend chosen from Settings.
	Store store.Store

	// SystemPrompt for the top-level conversation.
	SystemPrompt string

	// Tools registered in addition to the built-in families.
	Tools []tool.Tool

	// MCPServers to expose through the mcp tool family.
	MCPServers []mcp.Config
}

// Runtime aggregates the provider, registry, store and supervisor behind a
// single entry point.
type Runtime struct {
	settings   *config.Settings
	logger     logging.Logger
	provider   provider.Provider
	registry   *tool.Registry
	store      store.Store
	supervisor *subagent.Supervisor
	system     string
}

// New assembles a Runtime. Any unset option falls back to the environment
// configuration and in-memory services.
func New(optFns ...func(o *Options)) (*Runtime, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	settings := opts.Settings
	if settings == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	logger := opts.Logger
	if logger == nil {
		if settings.Debug {
			logger = logging.NewDefaultLogger()
		} else {
			logger = logging.NewNopLogger()
		}
	}

	p, err := NewProvider(settings.Provider, providerConfig(settings, settings.Provider, settings.Model))
	if err != nil {
		return nil, err
	}

	st := opts.Store
	if st == nil {
		if settings.StorePath != "" {
			st = store.NewSQLite(settings.StorePath)
		} else {
			st = store.NewMemory()
		}
	}
	if err := st.Open(context.Background()); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	r := &Runtime{
		settings: settings,
		logger:   logger,
		provider: p,
		store:    st,
		system:   opts.SystemPrompt,
	}

	registry := tool.NewRegistry(logger)
	if err := registry.RegisterAll(
		builtin.Think(logger),
		builtin.Sleep(),
		builtin.NewSessionTool(st),
	); err != nil {
		return nil, err
	}
	if len(opts.MCPServers) > 0 {
		clients := make([]*mcp.Client, 0, len(opts.MCPServers))
		for _, cfg := range opts.MCPServers {
			clients = append(clients, mcp.NewClient(cfg))
		}
		if err := registry.RegisterAll(mcp.Tools(clients...)...); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterAll(opts.Tools...); err != nil {
		return nil, err
	}

	r.supervisor = subagent.NewSupervisor(r.runSubAgent, func(o *subagent.Options) {
		o.Logger = logger
		o.Grace = settings.SubAgentGrace
	})
	if err := registry.RegisterAll(subagent.Tools(r.supervisor)...); err != nil {
		return nil, err
	}
	r.registry = registry

	return r, nil
}

// Run executes one conversation against the default provider.
func (r *Runtime) Run(ctx context.Context, prompt string) (*agent.Result, error) {
	a := agent.New(r.provider, r.registry, func(o *agent.Options) {
		o.Logger = r.logger
		o.SystemPrompt = r.system
		o.MaxTurns = r.settings.MaxTurns
	})
	return a.Run(ctx, prompt)
}

// Registry exposes the tool registry, e.g. for registering tools after
// construction.
func (r *Runtime) Registry() *tool.Registry { return r.registry }

// Provider returns the default backend adapter.
func (r *Runtime) Provider() provider.Provider { return r.provider }

// Supervisor returns the sub-agent supervisor.
func (r *Runtime) Supervisor() *subagent.Supervisor { return r.supervisor }

// Close cancels running sub-agents and releases the store.
func (r *Runtime) Close() error {
	r.supervisor.CleanupAll()
	return r.store.Close()
}

// runSubAgent executes one spawned unit with its own conversation. Provider
// and tool overrides fall back to the parent's.
func (r *Runtime) runSubAgent(ctx context.Context, params subagent.SpawnParams) (string, error) {
	p := r.provider
	if params.Provider != "" || params.Model != "" {
		id := params.Provider
		if id == "" {
			id = r.provider.Name()
		}
		override, err := NewProvider(id, providerConfig(r.settings, id, params.Model))
		if err != nil {
			return "", err
		}
		p = override
	}

	registry := r.registry
	if len(params.Tools) > 0 {
		subset, err := registry.Subset(params.Tools)
		if err != nil {
			return "", err
		}
		registry = subset
	}

	a := agent.New(p, registry, func(o *agent.Options) {
		o.Logger = r.logger
		o.MaxTurns = r.settings.MaxTurns
	})
	res, err := a.Run(ctx, params.Prompt)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// providerConfig maps settings onto one backend's configuration.
func providerConfig(s *config.Settings, id, model string) provider.Config {
	cfg := provider.Config{Model: model}
	switch id {
	case anthropic.ProviderName:
		cfg.APIKey = s.AnthropicAPIKey
	case openai.ProviderName:
		cfg.APIKey = s.OpenAIAPIKey
	case ollama.ProviderName:
		cfg.BaseURL = s.OllamaBaseURL
	}
	return cfg
}
