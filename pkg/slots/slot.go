package slots

import (
	"errors"
	"fmt"

	"github.com/opst/jobtemplate/pkg/typedesc"
	"github.com/opst/jobtemplate/pkg/values"
)

// Context is what the surrounding system knows when a template is resolved.
type Context struct {
	Domain    typedesc.DomainId
	Framework typedesc.FrameworkId

	// License is passed through to collaborators. Resolution does not use it.
	License string
}

type Editor int

const (
	BooleanToggle Editor = iota + 1
	IntegerField
	FloatField
	TextField
	ArrayEditor
	ReferenceChooser
)

func (e Editor) String() string {
	switch e {
	case BooleanToggle:
		return "BooleanToggle"
	case IntegerField:
		return "IntegerField"
	case FloatField:
		return "FloatField"
	case TextField:
		return "TextField"
	case ArrayEditor:
		return "ArrayEditor"
	case ReferenceChooser:
		return "ReferenceChooser"
	default:
		return fmt.Sprintf("Editor(%d)", int(e))
	}
}

// EditKind tells how a slot should be edited.
//
// Element is set only for ArrayEditor, and Model only for ReferenceChooser.
type EditKind struct {
	Editor  Editor
	Element typedesc.PrimitiveKind
	Model   typedesc.ModelRef
}

func (e EditKind) String() string {
	switch e.Editor {
	case ArrayEditor:
		return fmt.Sprintf("%s(%s)", e.Editor, e.Element)
	case ReferenceChooser:
		return fmt.Sprintf("%s(%s)", e.Editor, e.Model)
	}
	return e.Editor.String()
}

// EditKindOf derives EditKind from descriptor.
func EditKindOf(d typedesc.Descriptor) EditKind {
	switch d := d.(type) {
	case typedesc.Primitive:
		switch d.Kind {
		case typedesc.Bool:
			return EditKind{Editor: BooleanToggle}
		case typedesc.Int:
			return EditKind{Editor: IntegerField}
		case typedesc.Float:
			return EditKind{Editor: FloatField}
		}
		return EditKind{Editor: TextField}
	case typedesc.Array:
		return EditKind{Editor: ArrayEditor, Element: d.Element}
	}
	if m, ok := typedesc.Model(d); ok {
		return EditKind{Editor: ReferenceChooser, Model: m}
	}
	return EditKind{Editor: TextField}
}

// Origin tells which part of the template a slot comes from.
type Origin int

const (
	FromInput Origin = iota + 1
	FromParameter
)

func (o Origin) String() string {
	switch o {
	case FromInput:
		return "input"
	case FromParameter:
		return "parameter"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Slot is a resolved, editable input or parameter.
type Slot struct {
	Key string

	// Type is the declared type string, as it is.
	Type string

	Descriptor typedesc.Descriptor
	Default    values.Value
	Edit       EditKind
	Help       string
	Origin     Origin
}

func (s Slot) Equal(o Slot) bool {
	return s.Key == o.Key &&
		s.Type == o.Type &&
		s.Descriptor == o.Descriptor &&
		valueEq(s.Default, o.Default) &&
		s.Edit == o.Edit &&
		s.Help == o.Help &&
		s.Origin == o.Origin
}

func valueEq(a, b values.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// Coerce converts raw value for the slot.
//
// Errors from coercion are *values.CoercionError which knows the slot key.
func (s Slot) Coerce(raw any) (values.Value, error) {
	v, err := values.Coerce(s.Descriptor, raw)
	if err != nil {
		var cerr *values.CoercionError
		if errors.As(err, &cerr) {
			return nil, cerr.WithField(s.Key)
		}
		return nil, fmt.Errorf("%s: %w", s.Key, err)
	}
	return v, nil
}

// DefaultText is the default value in text, to be shown in editors.
func (s Slot) DefaultText() string {
	text, err := values.Uncoerce(s.Descriptor, s.Default)
	if err != nil {
		return ""
	}
	return text
}
