package jobrequest

import (
	"encoding/json"
	"io"

	"github.com/opst/jobtemplate/pkg/cmp"
	"github.com/opst/jobtemplate/pkg/slots"
	"github.com/opst/jobtemplate/pkg/values"
)

// TypedValue is a value with its declared type string.
type TypedValue struct {
	// Type is the type string as declared in the template, not normalized.
	Type  string       `json:"type"`
	Value values.Value `json:"value"`
}

func (tv TypedValue) Equal(o TypedValue) bool {
	if tv.Type != o.Type {
		return false
	}
	if tv.Value == nil || o.Value == nil {
		return tv.Value == nil && o.Value == nil
	}
	return tv.Value.Equal(o.Value)
}

// JobRequest is a payload to create a new job.
type JobRequest struct {
	Inputs      map[string]TypedValue `json:"inputs"`
	Parameters  map[string]TypedValue `json:"parameters"`
	Description string                `json:"description"`
}

func (jr JobRequest) Equal(o JobRequest) bool {
	return jr.Description == o.Description &&
		cmp.MapEqWith(jr.Inputs, o.Inputs, cmp.EqualMethod[TypedValue]) &&
		cmp.MapEqWith(jr.Parameters, o.Parameters, cmp.EqualMethod[TypedValue])
}

// Build assembles a JobRequest.
//
// It does nothing more than assembling: values should be coerced already.
// Every key in inputs and parameters appears in the result.
func Build(inputs, parameters map[string]slots.Assignment, description string) JobRequest {
	return JobRequest{
		Inputs:      typed(inputs),
		Parameters:  typed(parameters),
		Description: description,
	}
}

func typed(as map[string]slots.Assignment) map[string]TypedValue {
	ret := make(map[string]TypedValue, len(as))
	for k, a := range as {
		ret[k] = TypedValue{Type: a.Slot.Type, Value: a.Value}
	}
	return ret
}

// Encode writes jr as JSON, followed by a newline.
//
// Type strings are written without HTML escaping ("<" stays "<").
// indent is used for each level of indentation; empty indent means compact.
func Encode(w io.Writer, jr JobRequest, indent string) error {
	if jr.Inputs == nil {
		jr.Inputs = map[string]TypedValue{}
	}
	if jr.Parameters == nil {
		jr.Parameters = map[string]TypedValue{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(jr)
}
