package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var validate = validator.New()

// Func adapts a typed run function into a Tool. Arguments of a tool call are
// unmarshaled into I and validated against its `validate` tags before the
// function runs; the schema advertised to the model is reflected from the
// struct tags of I.
type Func[I any, O Renderer] struct {
	Config
	run func(context.Context, *I) (O, error)
}

// NewFunc returns a Tool backed by a typed run function.
func NewFunc[I any, O Renderer](name, description string, run func(context.Context, *I) (O, error)) *Func[I, O] {
	ret := &Func[I, O]{run: run}
	ret.SetName(name)
	ret.SetDescription(description)
	return ret
}

// Definition reflects the input schema from the struct tags of I.
func (f *Func[I, O]) Definition() Definition {
	reflector := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return Definition{
		Name:        f.Name(),
		Description: f.Description(),
		Parameters:  reflector.Reflect(new(I)),
	}
}

// Call unmarshals and validates the arguments, then runs the function.
func (f *Func[I, O]) Call(ctx context.Context, arguments string) (*Result, error) {
	input := new(I)
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), input); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", f.Name(), err)
		}
	}
	if err := validate.Struct(input); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); !ok {
			return nil, fmt.Errorf("invalid arguments for %s: %w", f.Name(), err)
		}
	}
	out, err := f.run(ctx, input)
	if err != nil {
		return nil, err
	}
	return out.RenderResult(), nil
}
