package components

// ToolCall is a tool call request emitted by an assistant message.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolCallback is the outcome of one tool call dispatch. A failed dispatch is
// reported with IsError set and a textual explanation in Content, never as an
// error surfaced to the caller.
type ToolCallback struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}
