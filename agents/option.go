package agents

import (
	"github.com/ficheapp/fiche/agents/providers"
)

// Config represents general agent configuration
type Config struct {
	// provider is the model backend
	provider providers.Provider
	// instructions is the fixed system prompt, set at construction
	instructions string
	// model is the provider model identifier
	model string
	// temperature for response generation, typically ranging from 0 to 1
	temperature float32
	// maxTokens caps the response length
	maxTokens int
	// name is the agent presentation name, used in errors and logs
	name string
}

// Name returns the agent name.
func (c Config) Name() string {
	return c.name
}

type Option func(c *Config)

func WithProvider(p providers.Provider) Option {
	return func(c *Config) {
		c.provider = p
	}
}

func WithInstructions(instructions string) Option {
	return func(c *Config) {
		c.instructions = instructions
	}
}

func WithModel(model string) Option {
	return func(c *Config) {
		c.model = model
	}
}

func WithTemperature(temperature float32) Option {
	return func(c *Config) {
		c.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.maxTokens = maxTokens
	}
}

func WithName(name string) Option {
	return func(c *Config) {
		c.name = name
	}
}
