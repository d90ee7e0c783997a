package models

// Result is the outcome of one pipeline stage. A failed result still carries
// the degraded value the caller should use (an empty BOM, empty asset lists).
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Failed[T any](fallback T, err error) Result[T] {
	return Result[T]{value: fallback, err: err}
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() error {
	return r.err
}

func (r Result[T]) Failed() bool {
	return r.err != nil
}
