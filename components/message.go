package components

import (
	"encoding/json"

	cohere "github.com/cohere-ai/cohere-go/v2"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/xid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ficheapp/fiche/schema"
)

// NewTurnID returns a new turn ID.
func NewTurnID() string {
	return xid.New().String()
}

// MessageRole is the role of the message sender (e.g. 'user', 'assistant', 'tool')
type MessageRole = string

const (
	SystemRole    MessageRole = "system"
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	ToolRole      MessageRole = "tool"
)

// Message represents one entry of a field conversation.
//
// An assistant message may carry tool call requests. A tool message carries
// exactly one tool result and is only ever appended after the assistant
// message holding the matching request.
type Message struct {
	content schema.Schema
	// role is the role of the message sender
	role MessageRole
	// turnID is the identifier of the resolution turn this message belongs to
	turnID string
	// toolCalls are the tool call requests of an assistant message
	toolCalls []ToolCall
	// toolResult is the result payload of a tool message
	toolResult *ToolCallback
}

// NewMessage returns a new Message
func NewMessage(role MessageRole, content schema.Schema) *Message {
	return &Message{
		role:    role,
		content: content,
	}
}

// NewToolResultMessage returns a tool Message wrapping one tool callback.
func NewToolResultMessage(cb ToolCallback) *Message {
	return &Message{
		role:       ToolRole,
		content:    schema.String(cb.Content),
		toolResult: &cb,
	}
}

// SetTurnID set message turnID
func (m *Message) SetTurnID(turnID string) *Message {
	m.turnID = turnID
	return m
}

// SetToolCalls attaches tool call requests to an assistant message.
func (m *Message) SetToolCalls(calls []ToolCall) *Message {
	m.toolCalls = calls
	return m
}

// Role returns message role
func (m Message) Role() MessageRole {
	return m.role
}

// Content returns message content
func (m Message) Content() schema.Schema {
	return m.content
}

// Text returns the message content rendered to text.
func (m Message) Text() string {
	return schema.Stringify(m.content)
}

// TurnID returns message turnID
func (m Message) TurnID() string {
	return m.turnID
}

// ToolCalls returns the tool call requests carried by the message.
func (m Message) ToolCalls() []ToolCall {
	return m.toolCalls
}

// ToolResult returns the tool result carried by a tool message.
func (m Message) ToolResult() *ToolCallback {
	return m.toolResult
}

// ToOpenAI converts the message to an openai ChatCompletionMessage
func (m Message) ToOpenAI(dist *openai.ChatCompletionMessage) {
	dist.Role = m.role
	dist.Content = m.Text()
	if cb := m.toolResult; cb != nil {
		dist.Role = openai.ChatMessageRoleTool
		dist.ToolCallID = cb.ID
		dist.Name = cb.Name
		dist.Content = cb.Content
		return
	}
	if len(m.toolCalls) == 0 {
		return
	}
	dist.ToolCalls = make([]openai.ToolCall, 0, len(m.toolCalls))
	for _, v := range m.toolCalls {
		dist.ToolCalls = append(dist.ToolCalls, openai.ToolCall{
			ID:   v.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      v.Name,
				Arguments: v.Arguments,
			},
		})
	}
}

// ToAnthropic converts the message to an anthropic Message.
// Tool results travel as user messages per the anthropic wire format.
func (m Message) ToAnthropic(dist *anthropic.Message) {
	if cb := m.toolResult; cb != nil {
		dist.Role = anthropic.RoleUser
		dist.Content = []anthropic.MessageContent{
			anthropic.NewToolResultMessageContent(cb.ID, cb.Content, cb.IsError),
		}
		return
	}
	dist.Role = anthropic.ChatRole(m.role)
	dist.Content = make([]anthropic.MessageContent, 0, len(m.toolCalls)+1)
	if txt := m.Text(); txt != "" {
		dist.Content = append(dist.Content, anthropic.NewTextMessageContent(txt))
	}
	for _, v := range m.toolCalls {
		dist.Content = append(dist.Content, anthropic.NewToolUseMessageContent(v.ID, v.Name, []byte(v.Arguments)))
	}
}

// ToCohere converts the message to a cohere chat history Message.
func (m Message) ToCohere(dist *cohere.Message) {
	switch m.role {
	case SystemRole:
		dist.Role = "SYSTEM"
		dist.System = &cohere.ChatMessage{
			Message: m.Text(),
		}
	case AssistantRole:
		dist.Role = "CHATBOT"
		dist.Chatbot = &cohere.ChatMessage{
			Message: m.Text(),
		}
	default:
		dist.Role = "USER"
		dist.User = &cohere.ChatMessage{
			Message: m.Text(),
		}
	}
}

type messageJSON struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	TurnID     string        `json:"turn_id,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	ToolResult *ToolCallback `json:"tool_result,omitempty"`
}

// MarshalJSON serializes the message for session export.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		Role:       m.role,
		Content:    m.Text(),
		TurnID:     m.turnID,
		ToolCalls:  m.toolCalls,
		ToolResult: m.toolResult,
	})
}

// UnmarshalJSON restores a message exported with MarshalJSON.
func (m *Message) UnmarshalJSON(bs []byte) error {
	var v messageJSON
	if err := json.Unmarshal(bs, &v); err != nil {
		return err
	}
	m.role = v.Role
	m.content = schema.String(v.Content)
	m.turnID = v.TurnID
	m.toolCalls = v.ToolCalls
	m.toolResult = v.ToolResult
	return nil
}
