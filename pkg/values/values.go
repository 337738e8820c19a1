package values

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/opst/jobtemplate/pkg/typedesc"
)

// Kind is a kind of canonical values.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindFloat
	KindStr
	KindBoolArray
	KindIntArray
	KindFloatArray
	KindStrArray
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindStr:
		return "Str"
	case KindBoolArray:
		return "BoolArray"
	case KindIntArray:
		return "IntArray"
	case KindFloatArray:
		return "FloatArray"
	case KindStrArray:
		return "StrArray"
	case KindRef:
		return "Ref"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindOf returns the kind of values which are acceptable for d.
func KindOf(d typedesc.Descriptor) (Kind, bool) {
	switch d := d.(type) {
	case typedesc.Primitive:
		return scalarKind(d.Kind)
	case typedesc.Array:
		return arrayKind(d.Element)
	case typedesc.Opaque:
		return KindStr, true
	}
	if typedesc.IsReference(d) {
		return KindRef, true
	}
	return 0, false
}

func scalarKind(k typedesc.PrimitiveKind) (Kind, bool) {
	switch k {
	case typedesc.Bool:
		return KindBool, true
	case typedesc.Int:
		return KindInt, true
	case typedesc.Float:
		return KindFloat, true
	case typedesc.Str:
		return KindStr, true
	}
	return 0, false
}

func arrayKind(k typedesc.PrimitiveKind) (Kind, bool) {
	switch k {
	case typedesc.Bool:
		return KindBoolArray, true
	case typedesc.Int:
		return KindIntArray, true
	case typedesc.Float:
		return KindFloatArray, true
	case typedesc.Str:
		return KindStrArray, true
	}
	return 0, false
}

// Value is a canonical, strongly typed value to be submitted.
//
// Implementations are Bool, Int, Float, Str, BoolArray, IntArray,
// FloatArray, StrArray and Ref.
type Value interface {
	Kind() Kind
	Equal(Value) bool
	value()
}

type Bool bool
type Int int64
type Float float64
type Str string
type BoolArray []bool
type IntArray []int64
type FloatArray []float64
type StrArray []string

// Ref is a primary key of a remote object.
type Ref int64

// NoRef is a Ref which references nothing.
const NoRef Ref = -1

func (Bool) value()       {}
func (Int) value()        {}
func (Float) value()      {}
func (Str) value()        {}
func (BoolArray) value()  {}
func (IntArray) value()   {}
func (FloatArray) value() {}
func (StrArray) value()   {}
func (Ref) value()        {}

func (Bool) Kind() Kind       { return KindBool }
func (Int) Kind() Kind        { return KindInt }
func (Float) Kind() Kind      { return KindFloat }
func (Str) Kind() Kind        { return KindStr }
func (BoolArray) Kind() Kind  { return KindBoolArray }
func (IntArray) Kind() Kind   { return KindIntArray }
func (FloatArray) Kind() Kind { return KindFloatArray }
func (StrArray) Kind() Kind   { return KindStrArray }
func (Ref) Kind() Kind        { return KindRef }

func (b Bool) Equal(o Value) bool {
	ob, ok := o.(Bool)
	return ok && b == ob
}

func (i Int) Equal(o Value) bool {
	oi, ok := o.(Int)
	return ok && i == oi
}

// Equal compares floats. NaN equals to NaN here.
func (f Float) Equal(o Value) bool {
	of, ok := o.(Float)
	return ok && floatEq(float64(f), float64(of))
}

func (s Str) Equal(o Value) bool {
	os, ok := o.(Str)
	return ok && s == os
}

func (r Ref) Equal(o Value) bool {
	or, ok := o.(Ref)
	return ok && r == or
}

func (a BoolArray) Equal(o Value) bool {
	oa, ok := o.(BoolArray)
	return ok && slices.Equal(a, oa)
}

func (a IntArray) Equal(o Value) bool {
	oa, ok := o.(IntArray)
	return ok && slices.Equal(a, oa)
}

func (a FloatArray) Equal(o Value) bool {
	oa, ok := o.(FloatArray)
	return ok && slices.EqualFunc(a, oa, floatEq)
}

func (a StrArray) Equal(o Value) bool {
	oa, ok := o.(StrArray)
	return ok && slices.Equal(a, oa)
}

func floatEq(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// arrays are encoded as "[]" even if they are nil.

func (a BoolArray) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]bool(a))
}

func (a IntArray) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(a))
}

func (a FloatArray) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]float64(a))
}

func (a StrArray) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

// Zero returns the value used when nothing is given for d.
//
// They are false, -1, 0.0, "", empty arrays or NoRef.
func Zero(d typedesc.Descriptor) (Value, error) {
	kind, ok := KindOf(d)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, d)
	}
	switch kind {
	case KindBool:
		return Bool(false), nil
	case KindInt:
		return Int(-1), nil
	case KindFloat:
		return Float(0), nil
	case KindStr:
		return Str(""), nil
	case KindBoolArray:
		return BoolArray{}, nil
	case KindIntArray:
		return IntArray{}, nil
	case KindFloatArray:
		return FloatArray{}, nil
	case KindStrArray:
		return StrArray{}, nil
	default:
		return NoRef, nil
	}
}
