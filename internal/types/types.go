// Package types defines the core system types.
package types

// Void is used for values in maps used as sets.
type Void struct{}

// ValueType converts between the raw representation of a value, as read from a store or
// supplied by a caller, and its typed representation.
//
// Implementations should be pure: an attribute casts at most once and keeps the result.
type ValueType interface {
	// Cast converts a raw value supplied by a caller.
	Cast(raw any) (value any, err error)
	// Deserialize converts a raw value read from a store.
	Deserialize(raw any) (value any, err error)
	// Serialize converts a typed value into its store representation.
	Serialize(value any) (raw any, err error)
	// AssertValid returns a ValidationError if the typed value is not acceptable.
	AssertValid(value any) (err error)
}

// Named value types can be encoded by name and resolved again by the registry.
type Named interface {
	TypeName() string
}

// Comparer value types define their own notion of equality between typed values.
type Comparer interface {
	Equal(a, b any) bool
}

// Copier value types know how to fully copy their typed values.
type Copier interface {
	DeepCopy(value any) (copied any, err error)
}

// Fallback supplies a value for an uninitialized attribute.
type Fallback func(name string) any

// TypeName returns the registered name of the value type, or "" if it has none.
func TypeName(typ ValueType) (name string) {
	named, ok := typ.(Named)
	if ok {
		name = named.TypeName()
	}
	return
}
