// Package config loads runtime settings from the environment. All variables
// carry the AGENTLOOP_ prefix, e.g. AGENTLOOP_PROVIDER or
// AGENTLOOP_ANTHROPIC_API_KEY.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Settings holds everything the runtime reads from the environment.
type Settings struct {
	// Provider selects the default backend: anthropic, openai or ollama.
	Provider string `env:"PROVIDER" envDefault:"anthropic"`
	Model    string `env:"MODEL"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OllamaBaseURL   string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`

	// MaxTurns caps the generate/execute loop per run.
	MaxTurns int `env:"MAX_TURNS" envDefault:"10"`

	// SubAgentGrace bounds how long cancellation waits for a sub-agent.
	SubAgentGrace time.Duration `env:"SUBAGENT_GRACE" envDefault:"5s"`

	// StorePath enables the SQLite-backed session store when set; empty
	// keeps session state in memory.
	StorePath string `env:"STORE_PATH"`

	Debug bool `env:"DEBUG"`
}

// Load parses Settings from the environment.
func Load() (*Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: "AGENTLOOP_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &s, nil
}
