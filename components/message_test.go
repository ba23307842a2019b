package components

import (
	"bytes"
	"encoding/json"
	"testing"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ficheapp/fiche/schema"
)

func TestMessageToOpenAIToolCalls(t *testing.T) {
	msg := NewMessage(AssistantRole, schema.String("je cherche")).
		SetToolCalls([]ToolCall{{ID: "call_1", Name: "web_search", Arguments: `{"query":"population Dijon"}`}})
	var dist openai.ChatCompletionMessage
	msg.ToOpenAI(&dist)
	if dist.Role != openai.ChatMessageRoleAssistant {
		t.Errorf("expect assistant role, got %s", dist.Role)
	}
	if len(dist.ToolCalls) != 1 {
		t.Fatalf("expect 1 tool call, got %d", len(dist.ToolCalls))
	}
	if dist.ToolCalls[0].Function.Name != "web_search" {
		t.Errorf("unexpected tool name %s", dist.ToolCalls[0].Function.Name)
	}
}

func TestMessageToOpenAIToolResult(t *testing.T) {
	msg := NewToolResultMessage(ToolCallback{ID: "call_1", Name: "web_search", Content: "159346 habitants"})
	var dist openai.ChatCompletionMessage
	msg.ToOpenAI(&dist)
	if dist.Role != openai.ChatMessageRoleTool {
		t.Errorf("expect tool role, got %s", dist.Role)
	}
	if dist.ToolCallID != "call_1" {
		t.Errorf("expect matching tool call ID, got %s", dist.ToolCallID)
	}
	if dist.Content != "159346 habitants" {
		t.Errorf("unexpected content: %s", dist.Content)
	}
}

func TestMessageToAnthropicToolResult(t *testing.T) {
	msg := NewToolResultMessage(ToolCallback{ID: "call_1", Name: "web_search", Content: "échec réseau", IsError: true})
	var dist anthropic.Message
	msg.ToAnthropic(&dist)
	if dist.Role != anthropic.RoleUser {
		t.Errorf("tool results must travel as user messages, got %s", dist.Role)
	}
	if len(dist.Content) != 1 {
		t.Fatalf("expect 1 content block, got %d", len(dist.Content))
	}
}

func TestMessageMarshaler(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	dec := json.NewDecoder(&buf)
	msg := NewMessage(UserRole, schema.String("quel est le maire de Dijon ?")).SetTurnID(NewTurnID())
	if err := enc.Encode(msg); err != nil {
		t.Fatal(err)
	}
	var decoded Message
	if err := dec.Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Text() != msg.Text() {
		t.Errorf("content mismatch, expect %q got %q", msg.Text(), decoded.Text())
	}
	if decoded.TurnID() != msg.TurnID() {
		t.Errorf("turn ID mismatch, expect %q got %q", msg.TurnID(), decoded.TurnID())
	}
}
