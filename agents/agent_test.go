package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ficheapp/fiche/agents/providers"
	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/schema"
)

// fakeProvider replays canned replies and records the requests it received.
type fakeProvider struct {
	replies  []*providers.ChatReply
	err      error
	requests []*providers.ChatRequest
}

func (p *fakeProvider) Chat(ctx context.Context, req *providers.ChatRequest, apiResp *components.ApiResponse) (*providers.ChatReply, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	reply := p.replies[0]
	if len(p.replies) > 1 {
		p.replies = p.replies[1:]
	}
	if apiResp != nil {
		apiResp.Usage = &components.ApiUsage{InputTokens: 10, OutputTokens: 5}
	}
	return reply, nil
}

func TestAgentRun(t *testing.T) {
	provider := &fakeProvider{replies: []*providers.ChatReply{{Text: "159346 habitants"}}}
	agent := NewAgent(
		WithProvider(provider),
		WithInstructions("Réponds brièvement."),
		WithModel("gpt-4o-mini"),
	)
	history := []components.Message{
		*components.NewMessage(components.UserRole, schema.String("population de Dijon ?")),
	}
	msg, err := agent.Run(context.Background(), history, nil)
	require.NoError(t, err)
	assert.Equal(t, components.AssistantRole, msg.Role())
	assert.Equal(t, "159346 habitants", msg.Text())
	assert.Empty(t, msg.ToolCalls())

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "Réponds brièvement.", req.System)
	assert.Len(t, req.Messages, 1, "agent must not grow the caller history")
	assert.Empty(t, req.Tools)
}

func TestToolAgentRunCarriesToolCalls(t *testing.T) {
	provider := &fakeProvider{replies: []*providers.ChatReply{{
		Text: "je consulte la base",
		ToolCalls: []components.ToolCall{
			{ID: "call_1", Name: "web_search", Arguments: `{"query":"maire de Dijon"}`},
		},
	}}}
	agent := NewToolAgent(nil, WithProvider(provider), WithName("fiche-tool-agent"))
	history := []components.Message{
		*components.NewMessage(components.UserRole, schema.String("maire de Dijon ?")),
	}
	msg, err := agent.Run(context.Background(), history, nil)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls(), 1)
	assert.Equal(t, "web_search", msg.ToolCalls()[0].Name)
}

func TestAgentRunProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("timeout")}
	agent := NewAgent(WithProvider(provider), WithName("fiche-agent"))
	_, err := agent.Run(context.Background(), nil, nil)
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "fiche-agent", invErr.Agent)
}

func TestAgentRunCollectsUsage(t *testing.T) {
	provider := &fakeProvider{replies: []*providers.ChatReply{{Text: "ok"}}}
	agent := NewAgent(WithProvider(provider))
	apiResp := new(components.ApiResponse)
	_, err := agent.Run(context.Background(), nil, apiResp)
	require.NoError(t, err)
	require.NotNil(t, apiResp.Usage)
	assert.Equal(t, 10, apiResp.Usage.InputTokens)
}
