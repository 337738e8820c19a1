package slots

import (
	"errors"
	"fmt"

	"github.com/opst/jobtemplate/pkg/values"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// ErrUnknownKey is reported when raw values have a key which no slot has.
var ErrUnknownKey = errors.New("unknown key")

// Assignment is a slot with its coerced value.
type Assignment struct {
	Slot  Slot
	Value values.Value
}

func (a Assignment) Equal(o Assignment) bool {
	return a.Slot.Equal(o.Slot) && valueEq(a.Value, o.Value)
}

// Bind assigns raw values onto slots.
//
// Slots without raw value get their default.
//
// # Args
//
// - slots: resolved slots. Keys should be unique (as Resolve gives).
//
// - raw: raw values by key. Each value is passed to Slot.Coerce.
//
// # Returns
//
// - map[string]Assignment: assignments for all slots, by key.
//
// - error: aggregate of all coercion failures (*values.CoercionError) and
// unknown keys (ErrUnknownKey). When it is not nil, the map is nil.
func Bind(slots []Slot, raw map[string]any) (map[string]Assignment, error) {
	errs := []error{}
	ret := map[string]Assignment{}

	known := map[string]struct{}{}
	for _, s := range slots {
		known[s.Key] = struct{}{}

		r, ok := raw[s.Key]
		if !ok {
			ret[s.Key] = Assignment{Slot: s, Value: s.Default}
			continue
		}
		v, err := s.Coerce(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ret[s.Key] = Assignment{Slot: s, Value: v}
	}

	for k := range raw {
		if _, ok := known[k]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownKey, k))
		}
	}

	if err := utilerrors.NewAggregate(errs); err != nil {
		return nil, err
	}
	return ret, nil
}
