package utils

// Map over sli with mapper.
//
// If mapper causes error, return (nil, error).
//
// Otherwise, return (mapping result, nil).
func MapUntilError[T any, R any](sli []T, mapper func(v T) (R, error)) ([]R, error) {
	ret := make([]R, len(sli))
	for nth, v := range sli {
		r, err := mapper(v)
		if err != nil {
			return nil, err
		}
		ret[nth] = r
	}
	return ret, nil
}

// find first element match with predicator.
//
// args:
//   - sli: slice to be scanned
//   - predicator: function return true iff given value is your searching one.
//
// returns:
//
//	(T, true) if found. otherwise, (zero value of T, false)
func First[T any](sli []T, predicator func(T) bool) (T, bool) {
	for _, v := range sli {
		if predicator(v) {
			return v, true
		}
	}

	var zero T
	return zero, false
}

// concatenate slices into a new one
func Concat[T any](sli ...[]T) []T {
	l := 0
	for _, s := range sli {
		l += len(s)
	}

	dest := make([]T, 0, l)
	for _, s := range sli {
		dest = append(dest, s...)
	}
	return dest
}
