package cohere

import (
	"context"
	"errors"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereClient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/ficheapp/fiche/agents/providers"
	"github.com/ficheapp/fiche/components"
)

// Provider adapts the cohere chat API. It serves plain agents only: the chat
// history conversion carries no tool call payloads, so tool-bearing requests
// are refused with providers.ErrToolsUnsupported.
type Provider struct {
	clt *cohereClient.Client
}

var _ providers.Provider = (*Provider)(nil)

// New returns a Provider backed by the given client.
func New(client *cohereClient.Client) *Provider {
	return &Provider{clt: client}
}

// Chat implements providers.Provider.
func (p *Provider) Chat(ctx context.Context, req *providers.ChatRequest, apiResp *components.ApiResponse) (*providers.ChatReply, error) {
	if len(req.Tools) > 0 {
		return nil, providers.ErrToolsUnsupported
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("empty conversation")
	}
	lastIdx := len(req.Messages) - 1
	temperature := float64(req.Temperature)
	model := req.Model
	chatReq := &cohere.ChatRequest{
		Model:       &model,
		Temperature: &temperature,
		Message:     req.Messages[lastIdx].Text(),
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		chatReq.MaxTokens = &maxTokens
	}
	if req.System != "" {
		system := req.System
		chatReq.Preamble = &system
	}
	for _, msg := range req.Messages[:lastIdx] {
		v := new(cohere.Message)
		msg.ToCohere(v)
		chatReq.ChatHistory = append(chatReq.ChatHistory, v)
	}
	res, err := p.clt.Chat(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if apiResp != nil {
		apiResp.FromCohere(res)
	}
	return &providers.ChatReply{Text: res.Text}, nil
}
