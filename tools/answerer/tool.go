// Package answerer is a question-answering tool backed by a plain agent,
// typically wired to an online-research model such as Perplexity sonar
// through the OpenAI-compatible provider.
package answerer

import (
	"context"
	"errors"

	"github.com/ficheapp/fiche/agents"
	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/schema"
	"github.com/ficheapp/fiche/tools"
)

const (
	defaultName        = "ask_researcher"
	defaultDescription = "Pose une question factuelle à un modèle de recherche en ligne et retourne sa réponse."
)

// Input is the schema of one question.
type Input struct {
	// Question is the question to answer
	Question string `json:"question" jsonschema:"title=question,description=La question factuelle à poser." validate:"required"`
}

// Output is the model answer.
type Output struct {
	Answer string `json:"answer,omitempty"`
}

// RenderResult implements tools.Renderer.
func (o Output) RenderResult() *tools.Result {
	return &tools.Result{Content: o.Answer}
}

type Config struct {
	tools.Config
}

// Answerer relays questions to its underlying agent. Each question is asked
// in a one-shot conversation: the tool keeps no history of its own.
type Answerer struct {
	Config
	agent *agents.Agent
}

// New returns an Answerer using the given plain agent.
func New(agent *agents.Agent, opts ...tools.Option) *Answerer {
	ret := &Answerer{agent: agent}
	for _, opt := range opts {
		opt(&ret.Config.Config)
	}
	if ret.Name() == "" {
		ret.SetName(defaultName)
	}
	if ret.Description() == "" {
		ret.SetDescription(defaultDescription)
	}
	return ret
}

// Run asks the question and returns the reply text.
func (t *Answerer) Run(ctx context.Context, input *Input) (*Output, error) {
	if t.agent == nil {
		return nil, errors.New("answerer has no agent")
	}
	history := []components.Message{
		*components.NewMessage(components.UserRole, schema.String(input.Question)),
	}
	msg, err := t.agent.Run(ctx, history, nil)
	if err != nil {
		return nil, err
	}
	return &Output{Answer: msg.Text()}, nil
}

// Entry wraps the tool for registry use.
func (t *Answerer) Entry() tools.Tool {
	return tools.NewFunc(t.Name(), t.Description(), t.Run)
}
