package cmp

// a == b as BiPredicator function
func EqEq[T comparable](a, b T) bool {
	return a == b
}

// Equality for types having `Equal(T) bool` method, as BiPredicator function.
//
// Descriptors, values and slots in this module implement it.
func EqualMethod[T interface{ Equal(T) bool }](a, b T) bool {
	return a.Equal(b)
}

type BiPredicator[V any, U any] func(a V, b U) bool
