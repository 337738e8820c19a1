package values

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/opst/jobtemplate/pkg/typedesc"
	kstrings "github.com/opst/jobtemplate/pkg/utils/strings"
)

var (
	// ErrBadScalar is wrapped by CoercionError when a scalar (or an array element) cannot be parsed.
	ErrBadScalar = errors.New("bad scalar")

	// ErrBadReference is wrapped by CoercionError when a reference is not an integer primary key.
	ErrBadReference = errors.New("bad reference")

	// ErrUnsupported is returned for descriptors which have no values.
	ErrUnsupported = errors.New("unsupported type")

	// ErrKindMismatch is returned by Uncoerce when the value does not fit the descriptor.
	ErrKindMismatch = errors.New("value kind mismatch")
)

// CoercionError is returned by Coerce.
//
// It keeps the raw value as given, so that callers can report it.
type CoercionError struct {
	// Field is the name of the slot. It is empty unless set with WithField.
	Field string

	// Type is the descriptor of the slot, in canonical form.
	Type string

	// Raw is the raw value in text.
	Raw string

	// Index is the index of the bad element in arrays, or -1.
	Index int

	kind  error
	cause error
}

func (e *CoercionError) Error() string {
	b := new(strings.Builder)
	b.WriteString(e.kind.Error())
	if e.Field != "" {
		fmt.Fprintf(b, " for %q", e.Field)
	}
	fmt.Fprintf(b, " (%s): %q", e.Type, e.Raw)
	if 0 <= e.Index {
		fmt.Fprintf(b, " (at element #%d)", e.Index)
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *CoercionError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// WithField returns a copy of e having field name.
func (e *CoercionError) WithField(field string) *CoercionError {
	c := *e
	c.Field = field
	return &c
}

// Coerce converts raw into canonical value for d.
//
// raw may be:
//
//   - string: text representation. Arrays are newline-separated, and "" is an empty array.
//   - Value, bool, integers, float64: already typed values.
//   - []any, []string, []bool, []int64, []float64: arrays of them (from decoded YAML/JSON, for example).
//
// Size limits of arrays are not checked.
//
// # Returns
//
// - Value: coerced value.
//
// - error: *CoercionError wrapping ErrBadScalar or ErrBadReference,
// or ErrUnsupported for unknown descriptors.
func Coerce(d typedesc.Descriptor, raw any) (Value, error) {
	switch d := d.(type) {
	case typedesc.Primitive:
		return coerceScalar(d, d.Kind, raw, -1)
	case typedesc.Array:
		return coerceArray(d, raw)
	case typedesc.Opaque:
		return coerceScalar(d, typedesc.Str, raw, -1)
	case typedesc.PrimaryKeyRef, typedesc.JobOutputRef, typedesc.DockerImageRef, typedesc.NameRef:
		return coerceRef(d, raw)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, d)
}

var errNewlineInElement = errors.New("array element has a newline")

func badScalar(d typedesc.Descriptor, raw any, index int, cause error) *CoercionError {
	return &CoercionError{
		Type: d.String(), Raw: text(raw), Index: index,
		kind: ErrBadScalar, cause: cause,
	}
}

func text(raw any) string {
	switch r := raw.(type) {
	case string:
		return r
	case Value:
		if s, err := format(r); err == nil {
			return s
		}
	}
	return fmt.Sprint(raw)
}

func coerceScalar(d typedesc.Descriptor, kind typedesc.PrimitiveKind, raw any, index int) (Value, error) {
	if s, ok := raw.(string); ok {
		switch kind {
		case typedesc.Bool:
			v, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, badScalar(d, raw, index, err)
			}
			return Bool(v), nil
		case typedesc.Int:
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, badScalar(d, raw, index, err)
			}
			return Int(v), nil
		case typedesc.Float:
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, badScalar(d, raw, index, err)
			}
			return Float(v), nil
		default:
			return Str(s), nil
		}
	}

	switch kind {
	case typedesc.Bool:
		switch r := raw.(type) {
		case bool:
			return Bool(r), nil
		case Bool:
			return r, nil
		}
	case typedesc.Int:
		if i, ok := asInt(raw); ok {
			return Int(i), nil
		}
	case typedesc.Float:
		switch r := raw.(type) {
		case float64:
			return Float(r), nil
		case float32:
			return Float(r), nil
		case Float:
			return r, nil
		}
		if i, ok := asInt(raw); ok {
			return Float(i), nil
		}
	case typedesc.Str:
		switch r := raw.(type) {
		case Str:
			return r, nil
		case bool, int, int32, int64, float64, Bool, Int, Float:
			return Str(text(r)), nil
		}
	}
	return nil, badScalar(d, raw, index, fmt.Errorf("unexpected %T", raw))
}

// asInt converts integer-like values. Floats are accepted only if they are integral.
func asInt(raw any) (int64, bool) {
	switch r := raw.(type) {
	case int:
		return int64(r), true
	case int32:
		return int64(r), true
	case int64:
		return r, true
	case uint64:
		if r <= math.MaxInt64 {
			return int64(r), true
		}
	case Int:
		return int64(r), true
	case Ref:
		return int64(r), true
	case float64:
		if r == math.Trunc(r) && -(1<<63) <= r && r < 1<<63 {
			return int64(r), true
		}
	}
	return 0, false
}

func coerceArray(d typedesc.Array, raw any) (Value, error) {
	var items []any
	switch r := raw.(type) {
	case string:
		for _, line := range kstrings.SplitIfNotEmpty(r, "\n") {
			items = append(items, line)
		}
	case []any:
		items = r
	case []string:
		for _, v := range r {
			items = append(items, v)
		}
	case []bool:
		for _, v := range r {
			items = append(items, v)
		}
	case []int64:
		for _, v := range r {
			items = append(items, v)
		}
	case []float64:
		for _, v := range r {
			items = append(items, v)
		}
	case Value:
		if k, _ := arrayKind(d.Element); r.Kind() == k {
			if sa, ok := r.(StrArray); ok {
				for i, item := range sa {
					if strings.Contains(item, "\n") {
						return nil, badScalar(d, raw, i, errNewlineInElement)
					}
				}
			}
			return r, nil
		}
		return nil, badScalar(d, raw, -1, fmt.Errorf("unexpected %s", r.Kind()))
	default:
		return nil, badScalar(d, raw, -1, fmt.Errorf("unexpected %T", raw))
	}

	// TODO: check size limit (d.Bound) once the job API states how overflow is treated.
	switch d.Element {
	case typedesc.Bool:
		ret := BoolArray{}
		for i, item := range items {
			v, err := coerceElement(d, item, raw, i)
			if err != nil {
				return nil, err
			}
			ret = append(ret, bool(v.(Bool)))
		}
		return ret, nil
	case typedesc.Int:
		ret := IntArray{}
		for i, item := range items {
			v, err := coerceElement(d, item, raw, i)
			if err != nil {
				return nil, err
			}
			ret = append(ret, int64(v.(Int)))
		}
		return ret, nil
	case typedesc.Float:
		ret := FloatArray{}
		for i, item := range items {
			v, err := coerceElement(d, item, raw, i)
			if err != nil {
				return nil, err
			}
			ret = append(ret, float64(v.(Float)))
		}
		return ret, nil
	case typedesc.Str:
		ret := StrArray{}
		for i, item := range items {
			v, err := coerceElement(d, item, raw, i)
			if err != nil {
				return nil, err
			}
			ret = append(ret, string(v.(Str)))
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, d)
}

// coerceElement coerces an element of array. Errors carry whole raw value.
func coerceElement(d typedesc.Array, item any, whole any, index int) (Value, error) {
	// arrays are newline-separated in text form. elements can not have one.
	if s, ok := item.(string); ok && strings.Contains(s, "\n") {
		return nil, badScalar(d, whole, index, errNewlineInElement)
	}
	v, err := coerceScalar(d, d.Element, item, index)
	if err != nil {
		var cerr *CoercionError
		if errors.As(err, &cerr) {
			cerr.Raw = text(whole)
		}
		return nil, err
	}
	return v, nil
}

func coerceRef(d typedesc.Descriptor, raw any) (Value, error) {
	bad := func(cause error) (Value, error) {
		return nil, &CoercionError{
			Type: d.String(), Raw: text(raw), Index: -1,
			kind: ErrBadReference, cause: cause,
		}
	}

	if s, ok := raw.(string); ok {
		pk, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return bad(err)
		}
		return Ref(pk), nil
	}
	if pk, ok := asInt(raw); ok {
		return Ref(pk), nil
	}
	return bad(fmt.Errorf("unexpected %T", raw))
}

// Uncoerce converts v into text, which Coerce(d, ...) accepts and gives v back.
//
// Arrays are joined with newline.
func Uncoerce(d typedesc.Descriptor, v Value) (string, error) {
	kind, ok := KindOf(d)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, d)
	}
	if v == nil || v.Kind() != kind {
		return "", fmt.Errorf("%w: %s for %s", ErrKindMismatch, kindName(v), d)
	}
	return format(v)
}

func kindName(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

func format(v Value) (string, error) {
	switch v := v.(type) {
	case Bool:
		return strconv.FormatBool(bool(v)), nil
	case Int:
		return strconv.FormatInt(int64(v), 10), nil
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 64), nil
	case Str:
		return string(v), nil
	case Ref:
		return strconv.FormatInt(int64(v), 10), nil
	case BoolArray:
		return join(v, strconv.FormatBool), nil
	case IntArray:
		return join(v, func(i int64) string { return strconv.FormatInt(i, 10) }), nil
	case FloatArray:
		return join(v, func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }), nil
	case StrArray:
		return strings.Join(v, "\n"), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupported, v)
}

func join[T any](items []T, f func(T) string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = f(item)
	}
	return strings.Join(lines, "\n")
}
