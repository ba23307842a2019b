// Package profile models the municipal-profile template: an ordered tree of
// sections, subjects and fields that the resolution engine fills in place.
package profile

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tells how a field resolves: one value, a group of subfields, or an
// ordered list of item groups.
type Kind string

const (
	ScalarKind Kind = "scalar"
	GroupKind  Kind = "group"
	ArrayKind  Kind = "array"
)

// Field is one node of the template tree. A scalar carries Type, Instruction,
// Example and receives Content; a group carries Fields; an array carries
// Items, each an ordered group of subfields sharing one shape.
type Field struct {
	Name        string
	Kind        Kind
	Type        string
	Instruction string
	Example     any
	Content     any
	Fields      []*Field
	Items       [][]*Field
}

// Subject is one entity a section describes, e.g. the commune or its
// intercommunality.
type Subject struct {
	Key    string
	Fields []*Field
}

// Section groups subjects with disjoint data dependencies. Sections resolve
// concurrently, fields within a section in declared order.
type Section struct {
	Name     string
	Subjects []*Subject
}

// Template is the whole profile, in declaration order.
type Template struct {
	Sections []*Section
}

// Section returns a section by name, nil when absent.
func (t *Template) Section(name string) *Section {
	for _, s := range t.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Field returns a direct field of the subject by name, nil when absent.
func (s *Subject) Field(name string) *Field {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type scalarJSON struct {
	Type        string `json:"type"`
	Instruction string `json:"instruction,omitempty"`
	Content     any    `json:"content"`
}

// MarshalJSON writes the template back in its original shape, with every
// resolved content in place.
func (t *Template) MarshalJSON() ([]byte, error) {
	root := orderedmap.New[string, any]()
	for _, section := range t.Sections {
		subjects := orderedmap.New[string, any]()
		for _, subject := range section.Subjects {
			subjects.Set(subject.Key, fieldsValue(subject.Fields))
		}
		root.Set(section.Name, subjects)
	}
	return json.Marshal(root)
}

func fieldsValue(fields []*Field) *orderedmap.OrderedMap[string, any] {
	out := orderedmap.New[string, any]()
	for _, f := range fields {
		out.Set(f.Name, fieldValue(f))
	}
	return out
}

func fieldValue(f *Field) any {
	switch f.Kind {
	case ArrayKind:
		items := make([]any, 0, len(f.Items))
		for _, item := range f.Items {
			items = append(items, fieldsValue(item))
		}
		return items
	case GroupKind:
		return fieldsValue(f.Fields)
	default:
		return scalarJSON{Type: f.Type, Instruction: f.Instruction, Content: f.Content}
	}
}
