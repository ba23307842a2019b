package openai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ficheapp/fiche/agents/providers"
	"github.com/ficheapp/fiche/components"
)

// Provider adapts an OpenAI-compatible chat completion endpoint. Pointing the
// client at another base URL serves any compatible backend (e.g. Perplexity).
type Provider struct {
	clt *openai.Client
}

var _ providers.Provider = (*Provider)(nil)

// New returns a Provider backed by the given client.
func New(client *openai.Client) *Provider {
	return &Provider{clt: client}
}

// Chat implements providers.Provider.
func (p *Provider) Chat(ctx context.Context, req *providers.ChatRequest, apiResp *components.ApiResponse) (*providers.ChatReply, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	chatReq.Messages = make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		v := new(openai.ChatCompletionMessage)
		msg.ToOpenAI(v)
		chatReq.Messages = append(chatReq.Messages, *v)
	}
	for _, def := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	res, err := p.clt.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if apiResp != nil {
		apiResp.FromOpenAI(&res)
	}
	reply := new(providers.ChatReply)
	if len(res.Choices) == 0 {
		return reply, nil
	}
	choice := res.Choices[0].Message
	reply.Text = choice.Content
	for _, tc := range choice.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, components.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}
