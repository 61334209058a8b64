// Package sliceutil provides small generic helpers for working with slices.
package sliceutil

// Map returns a new slice containing the result of applying fn to each
// element of slice in order.
func Map[T any, U any](slice []T, fn func(T) U) []U {
	result := make([]U, len(slice))
	for i, v := range slice {
		result[i] = fn(v)
	}
	return result
}
