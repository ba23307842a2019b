package tools

import (
	"context"
	"strings"

	"github.com/invopop/jsonschema"
)

// Result is the payload returned by a successful tool call.
type Result struct {
	// Content is the textual content of the result
	Content string `json:"content"`
	// Citations lists source URLs backing the content
	Citations []string `json:"citations,omitempty"`
}

// Text renders the result for the conversation, citations last.
func (r Result) Text() string {
	if len(r.Citations) == 0 {
		return r.Content
	}
	var sb strings.Builder
	sb.WriteString(r.Content)
	sb.WriteString("\n\nSources:")
	for _, v := range r.Citations {
		sb.WriteString("\n- ")
		sb.WriteString(v)
	}
	return sb.String()
}

// Renderer converts a typed tool output into a Result.
type Renderer interface {
	RenderResult() *Result
}

// Definition describes one callable tool to the language model.
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// Tool is a single-purpose, name-addressable capability. Call receives the
// raw JSON arguments of a tool call request.
type Tool interface {
	Name() string
	Description() string
	Definition() Definition
	Call(ctx context.Context, arguments string) (*Result, error)
}
