package template

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	xe "github.com/opst/jobtemplate/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidTemplate is wrapped by errors from Validate and loaders.
var ErrInvalidTemplate = errors.New("invalid template")

// Definition is a job template: named inputs and parameters with declared types.
type Definition struct {
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs      []Input     `json:"inputs" yaml:"inputs"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
}

// Input of job template. It has exactly one type.
type Input struct {
	Key  string `json:"key" yaml:"key"`
	Type string `json:"type" yaml:"type"`
	Help string `json:"help,omitempty" yaml:"help,omitempty"`
}

// Parameter of job template.
type Parameter struct {
	Name string

	// Types are candidate type strings, in order of preference.
	Types []string

	// Default is textual default value, if declared.
	//
	// Defaults of array parameters are newline-joined.
	Default *string

	Help string

	// Const parameters are fixed by the template. They are not editable.
	Const bool
}

// parameterDoc is the document form of Parameter.
//
// Default is kept undecoded, so it is taken verbatim from the document.
type parameterDoc[D any] struct {
	Name    string `json:"name" yaml:"name"`
	Types   Types  `json:"types" yaml:"types"`
	Default D      `json:"default,omitempty" yaml:"default,omitempty"`
	Help    string `json:"help,omitempty" yaml:"help,omitempty"`
	Const   bool   `json:"const,omitempty" yaml:"const,omitempty"`
}

func (p *Parameter) assign(name string, types Types, help string, isConst bool) {
	p.Name = name
	p.Types = []string(types)
	p.Help = help
	p.Const = isConst
	p.Default = nil
}

func (p *Parameter) UnmarshalYAML(node *yaml.Node) error {
	doc := parameterDoc[*yaml.Node]{}
	if err := node.Decode(&doc); err != nil {
		return err
	}
	p.assign(doc.Name, doc.Types, doc.Help, doc.Const)
	text, ok, err := defaultFromNode(doc.Default)
	if err != nil {
		return fmt.Errorf("parameter %q: default: %w", doc.Name, err)
	}
	if ok {
		p.Default = &text
	}
	return nil
}

func (p *Parameter) UnmarshalJSON(b []byte) error {
	doc := parameterDoc[json.RawMessage]{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	p.assign(doc.Name, doc.Types, doc.Help, doc.Const)
	text, ok, err := defaultFromJSON(doc.Default)
	if err != nil {
		return fmt.Errorf("parameter %q: default: %w", doc.Name, err)
	}
	if ok {
		p.Default = &text
	}
	return nil
}

func (p Parameter) MarshalYAML() (interface{}, error) {
	doc := parameterDoc[*yaml.Node]{
		Name: p.Name, Types: Types(p.Types), Help: p.Help, Const: p.Const,
	}
	if p.Default != nil {
		doc.Default = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: *p.Default}
	}
	return doc, nil
}

func (p Parameter) MarshalJSON() ([]byte, error) {
	doc := parameterDoc[*string]{
		Name: p.Name, Types: Types(p.Types), Help: p.Help, Const: p.Const,
		Default: p.Default,
	}
	return json.Marshal(doc)
}

// defaultFromNode takes text of default value from YAML node as written.
//
// Sequences are newline-joined. Null means no default.
func defaultFromNode(node *yaml.Node) (string, bool, error) {
	if node == nil {
		return "", false, nil
	}
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "", false, nil
		}
		return node.Value, true, nil
	case yaml.SequenceNode:
		lines := make([]string, 0, len(node.Content))
		for nth, item := range node.Content {
			for item.Kind == yaml.AliasNode && item.Alias != nil {
				item = item.Alias
			}
			if item.Kind != yaml.ScalarNode {
				return "", false, fmt.Errorf("element #%d is not a scalar", nth)
			}
			lines = append(lines, item.Value)
		}
		return strings.Join(lines, "\n"), true, nil
	}
	return "", false, fmt.Errorf("line %d: not a scalar nor a sequence", node.Line)
}

// defaultFromJSON takes text of default value from JSON as written.
//
// Strings are unquoted, other scalars are taken as their literals.
// Arrays are newline-joined. Null means no default.
func defaultFromJSON(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	if raw[0] == '[' {
		items := []json.RawMessage{}
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", false, err
		}
		lines := make([]string, 0, len(items))
		for nth, item := range items {
			s, err := jsonScalarText(item)
			if err != nil {
				return "", false, fmt.Errorf("element #%d: %w", nth, err)
			}
			lines = append(lines, s)
		}
		return strings.Join(lines, "\n"), true, nil
	}
	s, err := jsonScalarText(raw)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func jsonScalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("empty value")
	}
	switch raw[0] {
	case '"':
		s := ""
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '[', '{':
		return "", errors.New("not a scalar")
	}
	return string(raw), nil
}

// Types is a list of candidate types.
//
// In documents, it can be written as a single string or a sequence of strings.
type Types []string

func (t *Types) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*t = Types{node.Value}
		return nil
	}
	var ts []string
	if err := node.Decode(&ts); err != nil {
		return err
	}
	*t = Types(ts)
	return nil
}

func (t *Types) UnmarshalJSON(b []byte) error {
	s := new(string)
	if err := json.Unmarshal(b, s); err == nil {
		*t = Types{*s}
		return nil
	}
	var ts []string
	if err := json.Unmarshal(b, &ts); err != nil {
		return err
	}
	*t = Types(ts)
	return nil
}

// Validate checks names and keys are given.
//
// Duplicated names are not errors here. Resolvers deal with them.
func (d Definition) Validate() error {
	errs := []error{}
	for nth, in := range d.Inputs {
		if strings.TrimSpace(in.Key) == "" {
			errs = append(errs, fmt.Errorf("%w: input #%d has no key", ErrInvalidTemplate, nth))
		}
	}
	for nth, p := range d.Parameters {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("%w: parameter #%d has no name", ErrInvalidTemplate, nth))
		}
	}
	return errors.Join(errs...)
}

// Decode reads a template document from r.
//
// Documents are read as YAML. JSON documents are accepted also.
func Decode(r io.Reader) (Definition, error) {
	def := Definition{}
	if err := yaml.NewDecoder(r).Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, fmt.Errorf("%w: empty document", ErrInvalidTemplate)
		}
		return Definition{}, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// DecodeJSON reads a template document written in JSON from r.
func DecodeJSON(r io.Reader) (Definition, error) {
	def := Definition{}
	if err := json.NewDecoder(r).Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, fmt.Errorf("%w: empty document", ErrInvalidTemplate)
		}
		return Definition{}, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Load reads a template document from file.
//
// Files named "*.json" are read by DecodeJSON, and others are by Decode.
func Load(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, xe.Wrap(err)
	}
	defer f.Close()

	decode := Decode
	if strings.EqualFold(filepath.Ext(path), ".json") {
		decode = DecodeJSON
	}

	def, err := decode(f)
	if err != nil {
		return Definition{}, xe.WrapWithNote(path, err)
	}
	return def, nil
}
