package anthropic

import (
	"context"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ficheapp/fiche/agents/providers"
	"github.com/ficheapp/fiche/components"
)

const defaultMaxTokens = 1024

// Provider adapts the Anthropic messages API.
type Provider struct {
	clt *anthropic.Client
}

var _ providers.Provider = (*Provider)(nil)

// New returns a Provider backed by the given client.
func New(client *anthropic.Client) *Provider {
	return &Provider{clt: client}
}

// Chat implements providers.Provider.
func (p *Provider) Chat(ctx context.Context, req *providers.ChatRequest, apiResp *components.ApiResponse) (*providers.ChatReply, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		// the messages API rejects zero
		maxTokens = defaultMaxTokens
	}
	chatReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(req.Model),
		System:      req.System,
		Temperature: &req.Temperature,
		MaxTokens:   maxTokens,
	}
	chatReq.Messages = make([]anthropic.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		v := new(anthropic.Message)
		msg.ToAnthropic(v)
		chatReq.Messages = append(chatReq.Messages, *v)
	}
	for _, def := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, anthropic.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		})
	}
	res, err := p.clt.CreateMessages(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if apiResp != nil {
		apiResp.FromAnthropic(&res)
	}
	reply := new(providers.ChatReply)
	for _, content := range res.Content {
		switch content.Type {
		case anthropic.MessagesContentTypeText:
			if content.Text != nil && reply.Text == "" {
				reply.Text = *content.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			if tu := content.MessageContentToolUse; tu != nil {
				reply.ToolCalls = append(reply.ToolCalls, components.ToolCall{
					ID:        tu.ID,
					Name:      tu.Name,
					Arguments: string(tu.Input),
				})
			}
		}
	}
	return reply, nil
}
