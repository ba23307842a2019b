package agents

import (
	"context"

	"github.com/ficheapp/fiche/agents/providers"
	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/schema"
)

// Responder produces one reply message for a conversation. Both agent
// variants satisfy it; the resolution engine depends on nothing else.
type Responder interface {
	Run(ctx context.Context, history []components.Message, apiResp *components.ApiResponse) (*components.Message, error)
}

// Agent is the plain responder: fixed system instructions plus the caller's
// conversation produce exactly one reply message. The agent never mutates the
// conversation it is given; the caller owns its history and appends replies
// itself.
type Agent struct {
	Config
}

var _ Responder = (*Agent)(nil)

// NewAgent initializes a plain Agent.
func NewAgent(options ...Option) *Agent {
	ret := new(Agent)
	for _, opt := range options {
		opt(&ret.Config)
	}
	if ret.name == "" {
		ret.name = "Agent"
	}
	return ret
}

// Run obtains one reply message for the given conversation.
func (a *Agent) Run(ctx context.Context, history []components.Message, apiResp *components.ApiResponse) (*components.Message, error) {
	req := &providers.ChatRequest{
		System:      a.instructions,
		Messages:    history,
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}
	reply, err := a.provider.Chat(ctx, req, apiResp)
	if err != nil {
		return nil, &InvocationError{Agent: a.name, Err: err}
	}
	return components.NewMessage(components.AssistantRole, schema.String(reply.Text)), nil
}
