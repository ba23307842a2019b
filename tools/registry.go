package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ficheapp/fiche/components"
)

// UnknownToolError reports a tool call request naming no registered tool.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Registry is the static set of tools available to the agent, constructed
// explicitly at startup. Registration order is the order tools are advertised
// to the model.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *zap.Logger
}

type RegistryOption func(*Registry)

// WithLogger sets the registry logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry returns a registry holding the given tools.
func NewRegistry(list []Tool, opts ...RegistryOption) *Registry {
	ret := &Registry{
		tools:  make(map[string]Tool, len(list)),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	for _, t := range list {
		ret.Register(t)
	}
	return ret
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name()]; !ok {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Lookup returns a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the tool definitions in registration order.
func (r *Registry) Definitions() []Definition {
	list := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.tools[name].Definition())
	}
	return list
}

// Dispatch runs one tool call request and reports the outcome as a callback.
// Failures never propagate: an unknown tool or a failing tool produces an
// error-shaped callback the agent can recover from conversationally.
func (r *Registry) Dispatch(ctx context.Context, call components.ToolCall) components.ToolCallback {
	cb := components.ToolCallback{
		ID:   call.ID,
		Name: call.Name,
	}
	tool, ok := r.Lookup(call.Name)
	if !ok {
		err := &UnknownToolError{Name: call.Name}
		r.logger.Warn("tool call for unregistered tool", zap.String("tool", call.Name))
		cb.Content = err.Error()
		cb.IsError = true
		return cb
	}
	result, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		r.logger.Warn("tool call failed",
			zap.String("tool", call.Name),
			zap.Error(err),
		)
		cb.Content = fmt.Sprintf("tool %s failed: %v", call.Name, err)
		cb.IsError = true
		return cb
	}
	cb.Content = result.Text()
	return cb
}
