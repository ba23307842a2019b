package agents

import (
	"context"

	"github.com/ficheapp/fiche/agents/providers"
	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/schema"
	"github.com/ficheapp/fiche/tools"
)

// ToolAgent is the tool-using responder. The reply message may carry tool
// call requests; dispatching them and deciding on a follow-up call is the
// caller's concern (the resolution engine owns the registry).
type ToolAgent struct {
	Config
	tools []tools.Definition
}

var _ Responder = (*ToolAgent)(nil)

// NewToolAgent initializes a ToolAgent advertising the given tool definitions.
func NewToolAgent(defs []tools.Definition, options ...Option) *ToolAgent {
	ret := &ToolAgent{tools: defs}
	for _, opt := range options {
		opt(&ret.Config)
	}
	if ret.name == "" {
		ret.name = "ToolAgent"
	}
	return ret
}

// Run obtains one reply message, possibly carrying tool call requests.
func (a *ToolAgent) Run(ctx context.Context, history []components.Message, apiResp *components.ApiResponse) (*components.Message, error) {
	req := &providers.ChatRequest{
		System:      a.instructions,
		Messages:    history,
		Tools:       a.tools,
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}
	reply, err := a.provider.Chat(ctx, req, apiResp)
	if err != nil {
		return nil, &InvocationError{Agent: a.name, Err: err}
	}
	msg := components.NewMessage(components.AssistantRole, schema.String(reply.Text))
	if len(reply.ToolCalls) > 0 {
		msg.SetToolCalls(reply.ToolCalls)
	}
	return msg, nil
}
