// Package iterator provides forwards-only iterators over enumerable collections, allowing for early termination.
package iterator

import "iter"

// Accept is a predicate that receives a value from an iterator
// and returns true if more values are desired.
type Accept[T any] func(T) bool

// Collection is a source for iterable values.
type Collection[T any] interface {
	Each(Accept[T])
}

// Iterator is a lazy, forwards-only iterator over an iterable collection with early termination.
type Iterator[T any] struct {
	next    func() (T, bool)
	stop    func()
	current T
}

// BuildIterator returns a reference to an iterator for the given collection.
func BuildIterator[T any](coll Collection[T]) *Iterator[T] {
	next, stop := iter.Pull(Seq(coll))
	return &Iterator[T]{next: next, stop: stop}
}

// Seq adapts a collection to a range-over-func sequence.
func Seq[T any](coll Collection[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		coll.Each(Accept[T](yield))
	}
}

// Next advances the iterator, returning true if successful.
func (iter *Iterator[T]) Next() (ok bool) {
	iter.current, ok = iter.next()
	return
}

// Value returns the value of the iterable collection at the current position of the iterator.
func (iter *Iterator[T]) Value() T {
	return iter.current
}

// Stop invalidates the iterator, useful for partial iteration.
func (iter *Iterator[T]) Stop() {
	iter.stop()
}

// Drain returns a slice of the values remaining in the iterator.
func (iter *Iterator[T]) Drain() []T {
	values := []T{}
	for iter.Next() {
		values = append(values, iter.Value())
	}
	return values
}

// Reduce fully reduces the iterated collection by adding the values sequentially to the given init value.
func Reduce[T any, U any](iter *Iterator[T], add func(U, T) U, init U) U {
	result := init
	for iter.Next() {
		result = add(result, iter.Value())
	}
	return result
}

// Slice is a wrapper type for slices.
type Slice[T any] []T

func (slice Slice[T]) Each(accept Accept[T]) {
	for _, value := range slice {
		if !accept(value) {
			return
		}
	}
}
