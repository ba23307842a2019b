package cohere

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ficheapp/fiche/agents/providers"
	"github.com/ficheapp/fiche/tools"
)

func TestChatRefusesTools(t *testing.T) {
	p := New(nil)
	_, err := p.Chat(context.Background(), &providers.ChatRequest{
		Model: "command-r",
		Tools: []tools.Definition{{Name: "web_search"}},
	}, nil)
	require.ErrorIs(t, err, providers.ErrToolsUnsupported,
		"tool-bearing requests must be refused before any API call")
}

func TestChatRejectsEmptyConversation(t *testing.T) {
	p := New(nil)
	_, err := p.Chat(context.Background(), &providers.ChatRequest{Model: "command-r"}, nil)
	require.Error(t, err)
}
