package providers

import (
	"context"
	"errors"

	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/tools"
)

// ErrToolsUnsupported is returned by providers without tool call support
// when the request advertises tools.
var ErrToolsUnsupported = errors.New("provider does not support tool calls")

// ChatRequest is one provider invocation: a fixed system instruction, the
// conversation so far, and the tool definitions the model may call.
type ChatRequest struct {
	System      string
	Messages    []components.Message
	Tools       []tools.Definition
	Model       string
	Temperature float32
	MaxTokens   int
}

// ChatReply is the provider answer: one reply text plus zero or more tool
// call requests that must be satisfied before a final answer exists.
type ChatReply struct {
	Text      string
	ToolCalls []components.ToolCall
}

// Provider is the seam separating agents from any specific model backend.
// Implementations never mutate the request messages.
type Provider interface {
	Chat(ctx context.Context, req *ChatRequest, apiResp *components.ApiResponse) (*ChatReply, error)
}
