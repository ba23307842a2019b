package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type rawNode = orderedmap.OrderedMap[string, json.RawMessage]

type loadConfig struct {
	requiredSections []string
}

type LoadOption func(*loadConfig)

// WithRequiredSections makes loading fail when any of the named sections is
// absent from the template.
func WithRequiredSections(names ...string) LoadOption {
	return func(c *loadConfig) {
		c.requiredSections = append(c.requiredSections, names...)
	}
}

// Load reads the template file and, when examplePath is not empty, the
// few-shot example file, and returns the parsed template. Any failure is a
// *LoadError.
func Load(templatePath, examplePath string, opts ...LoadOption) (*Template, error) {
	templateJSON, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, &LoadError{Path: templatePath, Err: err}
	}
	var exampleJSON []byte
	if examplePath != "" {
		if exampleJSON, err = os.ReadFile(examplePath); err != nil {
			return nil, &LoadError{Path: examplePath, Err: err}
		}
	}
	tpl, err := Parse(templateJSON, exampleJSON, opts...)
	if err != nil {
		return nil, &LoadError{Path: templatePath, Err: err}
	}
	return tpl, nil
}

// Parse decodes a template document and merges the example document's
// contents into Field.Example. exampleJSON may be nil.
func Parse(templateJSON, exampleJSON []byte, opts ...LoadOption) (*Template, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	root := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(templateJSON, root); err != nil {
		return nil, err
	}
	tpl := &Template{Sections: make([]*Section, 0, root.Len())}
	for pair := root.Oldest(); pair != nil; pair = pair.Next() {
		section, err := parseSection(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		tpl.Sections = append(tpl.Sections, section)
	}
	for _, name := range cfg.requiredSections {
		if tpl.Section(name) == nil {
			return nil, fmt.Errorf("required section %q is missing", name)
		}
	}
	if exampleJSON != nil {
		if err := mergeExamples(tpl, exampleJSON); err != nil {
			return nil, err
		}
	}
	return tpl, nil
}

func parseSection(name string, raw json.RawMessage) (*Section, error) {
	subjects := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, subjects); err != nil {
		return nil, fmt.Errorf("section %q: %w", name, err)
	}
	section := &Section{Name: name, Subjects: make([]*Subject, 0, subjects.Len())}
	for pair := subjects.Oldest(); pair != nil; pair = pair.Next() {
		fields, err := parseFields(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("section %q, subject %q: %w", name, pair.Key, err)
		}
		section.Subjects = append(section.Subjects, &Subject{Key: pair.Key, Fields: fields})
	}
	return section, nil
}

func parseFields(raw json.RawMessage) ([]*Field, error) {
	node := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, node); err != nil {
		return nil, err
	}
	fields := make([]*Field, 0, node.Len())
	for pair := node.Oldest(); pair != nil; pair = pair.Next() {
		field, err := parseField(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func parseField(name string, raw json.RawMessage) (*Field, error) {
	if isArray(raw) {
		return parseArrayField(name, raw)
	}
	node := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, node); err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	_, hasType := node.Get("type")
	_, hasContent := node.Get("content")
	if hasType && hasContent {
		var leaf struct {
			Type        string `json:"type"`
			Instruction string `json:"instruction"`
			Example     any    `json:"example"`
			Content     any    `json:"content"`
		}
		if err := json.Unmarshal(raw, &leaf); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		return &Field{
			Name:        name,
			Kind:        ScalarKind,
			Type:        leaf.Type,
			Instruction: leaf.Instruction,
			Example:     leaf.Example,
			Content:     leaf.Content,
		}, nil
	}
	children, err := parseFields(raw)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	return &Field{Name: name, Kind: GroupKind, Fields: children}, nil
}

// parseArrayField decodes an item list and enforces structural homogeneity:
// every item carries the first item's subfield set, in the same order.
func parseArrayField(name string, raw json.RawMessage) (*Field, error) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err != nil {
		return nil, fmt.Errorf("array %q: %w", name, err)
	}
	field := &Field{Name: name, Kind: ArrayKind, Items: make([][]*Field, 0, len(rawItems))}
	var shape []string
	for i, rawItem := range rawItems {
		item, err := parseFields(rawItem)
		if err != nil {
			return nil, fmt.Errorf("array %q, item %d: %w", name, i, err)
		}
		names := make([]string, len(item))
		for j, f := range item {
			names[j] = f.Name
		}
		if i == 0 {
			shape = names
		} else if !equalShape(shape, names) {
			return nil, fmt.Errorf("array %q, item %d: subfields %v do not match item 0 %v", name, i, names, shape)
		}
		field.Items = append(field.Items, item)
	}
	return field, nil
}

func equalShape(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// mergeExamples copies the contents of the example document into the
// matching fields' Example. Nodes absent from the example are left as the
// template declares them.
func mergeExamples(tpl *Template, exampleJSON []byte) error {
	example, err := Parse(exampleJSON, nil)
	if err != nil {
		return fmt.Errorf("example document: %w", err)
	}
	for _, section := range tpl.Sections {
		exSection := example.Section(section.Name)
		if exSection == nil {
			continue
		}
		for _, subject := range section.Subjects {
			for _, exSubject := range exSection.Subjects {
				if exSubject.Key == subject.Key {
					mergeFieldExamples(subject.Fields, exSubject.Fields)
				}
			}
		}
	}
	return nil
}

func mergeFieldExamples(fields, examples []*Field) {
	byName := make(map[string]*Field, len(examples))
	for _, ex := range examples {
		byName[ex.Name] = ex
	}
	for _, f := range fields {
		ex, ok := byName[f.Name]
		if !ok || ex.Kind != f.Kind {
			continue
		}
		switch f.Kind {
		case ScalarKind:
			if ex.Content != nil {
				f.Example = ex.Content
			}
		case GroupKind:
			mergeFieldExamples(f.Fields, ex.Fields)
		case ArrayKind:
			if len(ex.Items) == 0 {
				continue
			}
			for i, item := range f.Items {
				exItem := ex.Items[min(i, len(ex.Items)-1)]
				mergeFieldExamples(item, exItem)
			}
		}
	}
}
