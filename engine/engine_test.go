package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/ofgl"
	"github.com/ficheapp/fiche/profile"
	"github.com/ficheapp/fiche/schema"
	"github.com/ficheapp/fiche/tools"
)

// stubAgent scripts replies call by call and records what the engine sent.
type stubAgent struct {
	mu             sync.Mutex
	calls          int
	historyLengths []int
	lastUserTexts  []string
	reply          func(call int, history []components.Message) (*components.Message, error)
}

func (s *stubAgent) Run(ctx context.Context, history []components.Message, apiResp *components.ApiResponse) (*components.Message, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.historyLengths = append(s.historyLengths, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role() == components.UserRole {
			s.lastUserTexts = append(s.lastUserTexts, history[i].Text())
			break
		}
	}
	s.mu.Unlock()
	if apiResp != nil {
		apiResp.Usage = &components.ApiUsage{InputTokens: 10, OutputTokens: 5}
	}
	return s.reply(call, history)
}

func text(t string) *components.Message {
	return components.NewMessage(components.AssistantRole, schema.String(t))
}

var fieldNamePattern = regexp.MustCompile(`le champ '([^']+)'`)

// echoReply answers "<field>: stub" by reading the field name back out of the
// prompt, mirroring how a real model sees it.
func echoReply(call int, history []components.Message) (*components.Message, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role() == components.UserRole {
			if m := fieldNamePattern.FindStringSubmatch(history[i].Text()); m != nil {
				return text(m[1] + ": stub"), nil
			}
			break
		}
	}
	return text("stub"), nil
}

func mustParse(t *testing.T, doc string) *profile.Template {
	t.Helper()
	tpl, err := profile.Parse([]byte(doc), nil)
	require.NoError(t, err)
	return tpl
}

var dijonBindings = Bindings{
	"municipality": {Identifier: "212102313", Name: "Dijon"},
}

const dijonDoc = `{
  "summary": {
    "municipality": {
      "population": {"type": "number", "content": null},
      "founding_legend": {"type": "text", "content": null}
    }
  }
}`

func TestResolveNumericBypass(t *testing.T) {
	tpl := mustParse(t, dijonDoc)
	stub := &stubAgent{reply: func(int, []components.Message) (*components.Message, error) {
		return text("unknown"), nil
	}}
	eng := New(stub, tools.NewRegistry(nil), nil)
	dataset := ofgl.Dataset{"Dijon": {"population": 159346}}

	report, err := eng.Resolve(context.Background(), tpl, dijonBindings, dataset)
	require.NoError(t, err)

	subject := tpl.Sections[0].Subjects[0]
	assert.Equal(t, float64(159346), subject.Field("population").Content)
	assert.Equal(t, "unknown", subject.Field("founding_legend").Content)
	assert.Equal(t, 1, stub.calls, "numeric bypass must not invoke the agent")
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Sections[0].Resolved)
	assert.Equal(t, 1, report.Sections[0].Unknown)
}

func TestResolveNumericIdempotence(t *testing.T) {
	dataset := ofgl.Dataset{"Dijon": {"population": 159346}}
	run := func() any {
		tpl := mustParse(t, dijonDoc)
		stub := &stubAgent{reply: func(int, []components.Message) (*components.Message, error) {
			return text("unknown"), nil
		}}
		eng := New(stub, tools.NewRegistry(nil), nil)
		_, err := eng.Resolve(context.Background(), tpl, dijonBindings, dataset)
		require.NoError(t, err)
		return tpl.Sections[0].Subjects[0].Field("population").Content
	}
	assert.Equal(t, run(), run())
}

func TestResolveNumericMissingEntryFallsBack(t *testing.T) {
	tpl := mustParse(t, dijonDoc)
	stub := &stubAgent{reply: func(int, []components.Message) (*components.Message, error) {
		return text("159346 habitants"), nil
	}}
	eng := New(stub, tools.NewRegistry(nil), nil)

	_, err := eng.Resolve(context.Background(), tpl, dijonBindings, ofgl.Dataset{})
	require.NoError(t, err)
	assert.Equal(t, "159346 habitants", tpl.Sections[0].Subjects[0].Field("population").Content)
	assert.Equal(t, 2, stub.calls)
}

func TestResolveDirectAnswerIsOneCall(t *testing.T) {
	tpl := mustParse(t, `{"summary": {"municipality": {"motto": {"type": "text", "content": null}}}}`)
	stub := &stubAgent{reply: func(int, []components.Message) (*components.Message, error) {
		return text("Moult me tarde"), nil
	}}
	eng := New(stub, tools.NewRegistry(nil), nil)

	_, err := eng.Resolve(context.Background(), tpl, dijonBindings, nil)
	require.NoError(t, err)
	assert.Equal(t, "Moult me tarde", tpl.Sections[0].Subjects[0].Field("motto").Content)
	assert.Equal(t, 1, stub.calls, "no tool request means a single model call")
}

type echoInput struct {
	Query string `json:"query"`
}

type echoOutput struct {
	Answer string `json:"answer"`
}

func (o echoOutput) RenderResult() *tools.Result {
	return &tools.Result{Content: o.Answer}
}

func echoTool() tools.Tool {
	return tools.NewFunc("echo", "echoes", func(ctx context.Context, in *echoInput) (echoOutput, error) {
		return echoOutput{Answer: "echo: " + in.Query}, nil
	})
}

func TestResolveToolRoundIsTwoCalls(t *testing.T) {
	tpl := mustParse(t, `{"summary": {"municipality": {"mayor": {"type": "text", "content": null}}}}`)
	stub := &stubAgent{reply: func(call int, history []components.Message) (*components.Message, error) {
		if call == 1 {
			m := text("")
			m.SetToolCalls([]components.ToolCall{{ID: "c1", Name: "echo", Arguments: `{"query": "maire de Dijon"}`}})
			return m, nil
		}
		// final replies may carry tool calls too; they must be ignored
		m := text("François Rebsamen")
		m.SetToolCalls([]components.ToolCall{{ID: "c2", Name: "echo", Arguments: `{"query": "again"}`}})
		return m, nil
	}}
	eng := New(stub, tools.NewRegistry([]tools.Tool{echoTool()}), nil)

	_, err := eng.Resolve(context.Background(), tpl, dijonBindings, nil)
	require.NoError(t, err)
	assert.Equal(t, "François Rebsamen", tpl.Sections[0].Subjects[0].Field("mayor").Content)
	assert.Equal(t, 2, stub.calls, "one tool round means exactly two model calls")

	history := eng.Sessions().History(components.SessionKey{Section: "summary", Subject: "municipality", Field: "mayor"})
	require.Len(t, history, 4)
	assert.Equal(t, components.ToolRole, history[2].Role())
	assert.Equal(t, "echo: maire de Dijon", history[2].ToolResult().Content)
	assert.Empty(t, history[3].ToolCalls(), "ignored final-reply tool calls must not be persisted")
}

func TestResolveArraySessionNeverLeavesToolCallsUnanswered(t *testing.T) {
	// every phase-1 reply requests a tool and every final reply tries to as
	// well; the shared contacts session must still stay consumable for the
	// later items
	tpl := mustParse(t, contactsDoc)
	stub := &stubAgent{reply: func(call int, history []components.Message) (*components.Message, error) {
		m := text("réponse")
		if history[len(history)-1].Role() == components.UserRole {
			m = text("")
		}
		m.SetToolCalls([]components.ToolCall{{
			ID:        fmt.Sprintf("c%d", call),
			Name:      "echo",
			Arguments: `{"query":"contact"}`,
		}})
		return m, nil
	}}
	eng := New(stub, tools.NewRegistry([]tools.Tool{echoTool()}), nil)

	_, err := eng.Resolve(context.Background(), tpl, dijonBindings, nil)
	require.NoError(t, err)

	contacts := tpl.Sections[0].Subjects[0].Field("contacts")
	for i := 0; i < 2; i++ {
		assert.Equal(t, "réponse", contacts.Items[i][0].Content, "item %d", i)
		assert.Equal(t, "réponse", contacts.Items[i][1].Content, "item %d", i)
	}

	key := components.SessionKey{Section: "summary", Subject: "municipality", Field: "contacts"}
	history := eng.Sessions().History(key)
	// 4 subfields, each: user prompt, tool request, tool result, final reply
	require.Len(t, history, 16)
	for i, msg := range history {
		if len(msg.ToolCalls()) == 0 {
			continue
		}
		require.Less(t, i+1, len(history), "message %d carries an unanswered tool request", i)
		assert.Equal(t, components.ToolRole, history[i+1].Role(),
			"message %d carries tool calls with no tool result following", i)
	}
}

func TestResolveToolFailureFeedsBack(t *testing.T) {
	broken := tools.NewFunc("boom", "always fails", func(ctx context.Context, in *echoInput) (echoOutput, error) {
		return echoOutput{}, errors.New("upstream down")
	})
	tpl := mustParse(t, `{"summary": {"municipality": {"mayor": {"type": "text", "content": null}}}}`)
	stub := &stubAgent{reply: func(call int, history []components.Message) (*components.Message, error) {
		if call == 1 {
			m := text("")
			m.SetToolCalls([]components.ToolCall{{ID: "c1", Name: "boom", Arguments: `{"query": "x"}`}})
			return m, nil
		}
		return text("unknown"), nil
	}}
	eng := New(stub, tools.NewRegistry([]tools.Tool{broken}), nil)

	_, err := eng.Resolve(context.Background(), tpl, dijonBindings, nil)
	require.NoError(t, err)
	assert.Equal(t, "unknown", tpl.Sections[0].Subjects[0].Field("mayor").Content)

	history := eng.Sessions().History(components.SessionKey{Section: "summary", Subject: "municipality", Field: "mayor"})
	require.Len(t, history, 4)
	require.NotNil(t, history[2].ToolResult())
	assert.True(t, history[2].ToolResult().IsError)
}

func TestResolveAgentErrorWritesUnknown(t *testing.T) {
	tpl := mustParse(t, dijonDoc)
	stub := &stubAgent{reply: func(int, []components.Message) (*components.Message, error) {
		return nil, errors.New("provider is down")
	}}
	eng := New(stub, tools.NewRegistry(nil), nil)

	_, err := eng.Resolve(context.Background(), tpl, dijonBindings, nil)
	require.NoError(t, err, "agent failures stay field-local")
	subject := tpl.Sections[0].Subjects[0]
	assert.Equal(t, "unknown", subject.Field("population").Content)
	assert.Equal(t, "unknown", subject.Field("founding_legend").Content)
}

const contactsDoc = `{
  "summary": {
    "municipality": {
      "contacts": [
        {
          "name": {"type": "text", "content": null},
          "title": {"type": "text", "content": null}
        },
        {
          "name": {"type": "text", "content": null},
          "title": {"type": "text", "content": null}
        }
      ]
    }
  }
}`

func TestResolveArrayItemMajorOrder(t *testing.T) {
	tpl := mustParse(t, contactsDoc)
	stub := &stubAgent{reply: echoReply}
	eng := New(stub, tools.NewRegistry(nil), nil)

	_, err := eng.Resolve(context.Background(), tpl, dijonBindings, nil)
	require.NoError(t, err)

	contacts := tpl.Sections[0].Subjects[0].Field("contacts")
	for i := 0; i < 2; i++ {
		assert.Equal(t, "name: stub", contacts.Items[i][0].Content, "item %d", i)
		assert.Equal(t, "title: stub", contacts.Items[i][1].Content, "item %d", i)
	}

	assert.Equal(t, 4, stub.calls, "one call per subfield when no tools are requested")
	assert.Equal(t, []int{1, 3, 5, 7}, stub.historyLengths, "the shared session grows strictly in item-major order")

	require.Len(t, stub.lastUserTexts, 4)
	assert.Contains(t, stub.lastUserTexts[0], "'contacts'", "first prompt carries the array intro")
	assert.Contains(t, stub.lastUserTexts[0], "'name'")
	assert.Contains(t, stub.lastUserTexts[1], "'title'")
	assert.Contains(t, stub.lastUserTexts[2], "élément 2", "third prompt switches to the second item")
	assert.Contains(t, stub.lastUserTexts[2], "'name'")
	assert.Contains(t, stub.lastUserTexts[3], "'title'")

	key := components.SessionKey{Section: "summary", Subject: "municipality", Field: "contacts"}
	assert.Len(t, eng.Sessions().History(key), 8)
	assert.Equal(t, 1, eng.Sessions().Len(), "all items share one session")
}

func TestResolveUsageMerged(t *testing.T) {
	tpl := mustParse(t, dijonDoc)
	stub := &stubAgent{reply: func(int, []components.Message) (*components.Message, error) {
		return text("réponse"), nil
	}}
	eng := New(stub, tools.NewRegistry(nil), nil)

	report, err := eng.Resolve(context.Background(), tpl, dijonBindings, nil)
	require.NoError(t, err)
	assert.Equal(t, stub.calls*10, report.Usage.InputTokens)
	assert.Equal(t, stub.calls*5, report.Usage.OutputTokens)
}
