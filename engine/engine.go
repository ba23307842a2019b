// Package engine walks a profile template and resolves every field through
// the two-phase agent protocol, or straight from the trusted numeric dataset
// when the field is a known indicator.
package engine

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ficheapp/fiche/agents"
	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/ofgl"
	"github.com/ficheapp/fiche/profile"
	"github.com/ficheapp/fiche/prompts"
	"github.com/ficheapp/fiche/schema"
	"github.com/ficheapp/fiche/tools"
)

// Binding ties a template subject key to a real entity: its administrative
// identifier and its display name. The display name is also the key into the
// numeric dataset.
type Binding struct {
	Identifier string
	Name       string
}

// Bindings maps template subject keys ("municipality", "inter_municipality")
// to their entities for one run.
type Bindings map[string]Binding

// Engine resolves templates. All collaborators are injected: the agent
// produces replies, the registry executes the tool calls the agent requests,
// the session store keeps every field conversation for the duration of a run.
type Engine struct {
	Config
	agent    agents.Responder
	registry *tools.Registry
	sessions *components.SessionStore
	logger   *zap.Logger
}

// New returns an Engine around an agent and a tool registry.
func New(agent agents.Responder, registry *tools.Registry, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Config:   newConfig(opts...),
		agent:    agent,
		registry: registry,
		sessions: components.NewSessionStore(),
		logger:   logger,
	}
}

// Sessions exposes the conversation store, e.g. for audit export after a run.
func (e *Engine) Sessions() *components.SessionStore {
	return e.sessions
}

// resolveSubject fills every field of one (section, subject) pair, in
// declared order. Fields that cannot be resolved get the unknown marker; the
// only error returned is context cancellation.
func (e *Engine) resolveSubject(ctx context.Context, section string, subject *profile.Subject, bindings Bindings, dataset ofgl.Dataset, res *SectionResult) error {
	binding := bindings[subject.Key]
	for _, field := range subject.Fields {
		if err := e.resolveField(ctx, section, subject.Key, binding, field, field.Name, dataset, res); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) resolveField(ctx context.Context, section, subjectKey string, binding Binding, field *profile.Field, path string, dataset ofgl.Dataset, res *SectionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch field.Kind {
	case profile.GroupKind:
		for _, child := range field.Fields {
			if err := e.resolveField(ctx, section, subjectKey, binding, child, path+"."+child.Name, dataset, res); err != nil {
				return err
			}
		}
		return nil
	case profile.ArrayKind:
		return e.resolveArray(ctx, section, subjectKey, binding, field, path, res)
	default:
		key := components.SessionKey{Section: section, Subject: subjectKey, Field: path}
		e.resolveScalar(ctx, key, binding, field, "", dataset, res)
		return nil
	}
}

// resolveScalar resolves one leaf. The numeric bypass wins when the field is
// a number-typed known indicator with a dataset entry; a missing entry falls
// through to the agent like any other field.
func (e *Engine) resolveScalar(ctx context.Context, key components.SessionKey, binding Binding, field *profile.Field, framing string, dataset ofgl.Dataset, res *SectionResult) {
	if field.Type == "number" && e.numericFields[field.Name] {
		if v, ok := dataset.Lookup(binding.Name, field.Name); ok {
			field.Content = v
			res.Resolved++
			return
		}
		e.logger.Debug("no dataset entry, falling back to agent",
			zap.String("subject", binding.Name),
			zap.String("field", field.Name),
		)
	}

	prompt, err := prompts.Field(key.Section, prompts.FieldData{
		Identifier:  binding.Identifier,
		Name:        binding.Name,
		Field:       field.Name,
		Type:        field.Type,
		Instruction: field.Instruction,
		Example:     field.Example,
	})
	if err != nil {
		e.logger.Error("prompt render failed", zap.String("session", key.String()), zap.Error(err))
		field.Content = e.unknown
		res.Unknown++
		return
	}
	if framing != "" {
		prompt = framing + "\n\n" + prompt
	}

	session := e.sessions.Session(key)
	session.NewTurn()
	session.NewMessage(components.UserRole, schema.String(prompt))

	answer := e.converse(ctx, key, session, res)
	if answer == "" {
		field.Content = e.unknown
		res.Unknown++
		return
	}
	field.Content = answer
	res.Resolved++
}

// converse runs the two-phase protocol on a session whose last message is the
// pending user prompt. Phase one may request tools; their results are fed
// back and the final phase produces the answer, keeping every field within
// MaxToolRounds. Tool calls in a final reply are dropped before the reply is
// persisted: sessions are shared across an array field's items, and an
// unanswered request would make every later provider call in that session
// wire-invalid.
func (e *Engine) converse(ctx context.Context, key components.SessionKey, session *components.Memory, res *SectionResult) string {
	reply, err := e.run(ctx, key, session, res, MaxToolRounds == 0)
	if err != nil {
		return ""
	}
	for round := 0; round < MaxToolRounds && len(reply.ToolCalls()) > 0; round++ {
		for _, call := range reply.ToolCalls() {
			cb := e.registry.Dispatch(ctx, call)
			session.Push(components.NewToolResultMessage(cb))
		}
		if reply, err = e.run(ctx, key, session, res, round == MaxToolRounds-1); err != nil {
			return ""
		}
	}
	return strings.TrimSpace(reply.Text())
}

func (e *Engine) run(ctx context.Context, key components.SessionKey, session *components.Memory, res *SectionResult, final bool) (*components.Message, error) {
	var apiResp components.ApiResponse
	reply, err := e.agent.Run(ctx, session.History(), &apiResp)
	res.Usage.Merge(apiResp.Usage)
	if err != nil {
		e.logger.Warn("agent invocation failed",
			zap.String("session", key.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if final && len(reply.ToolCalls()) > 0 {
		e.logger.Warn("dropping tool calls from final reply",
			zap.String("session", key.String()),
			zap.Int("tool_calls", len(reply.ToolCalls())),
		)
		reply.SetToolCalls(nil)
	}
	session.Push(reply)
	return reply, nil
}

// resolveArray fills an array field. All items share one session so the
// model keeps earlier items in view; items resolve strictly in order,
// subfields in declared order within each item.
func (e *Engine) resolveArray(ctx context.Context, section, subjectKey string, binding Binding, field *profile.Field, path string, res *SectionResult) error {
	key := components.SessionKey{Section: section, Subject: subjectKey, Field: path}
	for i, item := range field.Items {
		for j, sub := range leaves(item) {
			if err := ctx.Err(); err != nil {
				return err
			}
			var framing string
			if j == 0 {
				if i == 0 {
					framing = prompts.ArrayIntro(field.Name, len(field.Items))
				} else {
					framing = prompts.ItemHeading(i)
				}
			}
			e.resolveScalar(ctx, key, binding, sub, framing, nil, res)
		}
	}
	return nil
}

// leaves flattens an item's subfields to its scalar leaves, in declared
// order, descending through nested groups and arrays.
func leaves(fields []*profile.Field) []*profile.Field {
	var out []*profile.Field
	for _, f := range fields {
		switch f.Kind {
		case profile.GroupKind:
			out = append(out, leaves(f.Fields)...)
		case profile.ArrayKind:
			for _, item := range f.Items {
				out = append(out, leaves(item)...)
			}
		default:
			out = append(out, f)
		}
	}
	return out
}
