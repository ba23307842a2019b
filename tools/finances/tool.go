// Package finances exposes the OFGL public-finance lookups as a tool, so the
// agent can fetch official figures for communes and intercommunalities that
// the numeric bypass does not already cover.
package finances

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ficheapp/fiche/ofgl"
	"github.com/ficheapp/fiche/tools"
)

const (
	defaultName        = "public_finances"
	defaultDescription = "Interroge les données financières officielles (OFGL) d'une commune par SIREN ou d'une intercommunalité par code EPCI, pour un exercice donné."
)

// Input identifies one subject and one fiscal year.
type Input struct {
	// Identifier is the SIREN of a commune or the EPCI code of an
	// intercommunality, depending on Scope.
	Identifier string `json:"identifier" jsonschema:"title=identifier,description=SIREN de la commune ou code EPCI de l'intercommunalité." validate:"required"`
	// Scope selects the dataset to query.
	Scope string `json:"scope" jsonschema:"title=scope,description=Périmètre de la recherche: commune ou epci.,enum=commune,enum=epci" validate:"required,oneof=commune epci"`
	// Year is the fiscal year of the figures.
	Year int `json:"year" jsonschema:"title=year,description=Exercice budgétaire (année)." validate:"required,gte=2012"`
}

// Output carries the metrics found, possibly empty.
type Output struct {
	Identifier string       `json:"identifier,omitempty"`
	Scope      string       `json:"scope,omitempty"`
	Year       int          `json:"year,omitempty"`
	Metrics    ofgl.Metrics `json:"metrics,omitempty"`
}

// RenderResult implements tools.Renderer. Metrics are rendered one per line in
// name order so the output is stable across calls.
func (o Output) RenderResult() *tools.Result {
	if len(o.Metrics) == 0 {
		return &tools.Result{Content: fmt.Sprintf("Aucune donnée financière pour %s (%s) en %d.", o.Identifier, o.Scope, o.Year)}
	}
	names := make([]string, 0, len(o.Metrics))
	for name := range o.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %.2f", name, o.Metrics[name]))
	}
	return &tools.Result{Content: strings.Join(lines, "\n")}
}

type Config struct {
	tools.Config
}

// Lookup answers finance queries through an OFGL client.
type Lookup struct {
	Config
	client *ofgl.Client
}

// New returns a Lookup using the given OFGL client.
func New(client *ofgl.Client, opts ...tools.Option) *Lookup {
	ret := &Lookup{client: client}
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

// Run queries the dataset matching the scope.
func (t *Lookup) Run(ctx context.Context, input *Input) (*Output, error) {
	if t.client == nil {
		return nil, errors.New("finances lookup has no client")
	}
	out := &Output{Identifier: input.Identifier, Scope: input.Scope, Year: input.Year}
	switch input.Scope {
	case "commune":
		out.Metrics = t.client.CommuneFinances(ctx, input.Identifier, input.Year)
	case "epci":
		out.Metrics = t.client.EPCIFinances(ctx, input.Identifier, input.Year)
	default:
		return nil, fmt.Errorf("unknown scope %q", input.Scope)
	}
	return out, nil
}

// Entry wraps the tool for registry use.
func (t *Lookup) Entry() tools.Tool {
	return tools.NewFunc(t.Name(), t.Description(), t.Run)
}
