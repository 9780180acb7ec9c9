// Package attribute provides the lazily cast, change tracked value of a single named column.
package attribute

import (
	"errors"
	"reflect"

	"github.com/mitchellh/hashstructure/v2"

	. "github.com/rails/rails-fast-attributes/internal/types"
)

// Kind is the source of an attribute's value.
type Kind int8

const (
	KindUninitialized Kind = iota
	KindFromDatabase
	KindFromUser
	KindWithCastValue
)

func (kind Kind) String() string {
	switch kind {
	case KindFromDatabase:
		return "from_database"
	case KindFromUser:
		return "from_user"
	case KindWithCastValue:
		return "with_cast_value"
	default:
		return "uninitialized"
	}
}

// Attribute is a named value of a value type. The raw value is cast on first read and the
// result is kept for the lifetime of the attribute. Attributes are replaced, never
// changed, by the With methods.
//
// Attributes are not safe for concurrent reads until they have been read once.
type Attribute struct {
	kind     Kind
	name     string
	typ      ValueType
	raw      any
	original *Attribute

	read   bool
	cached any
	keyed  bool
	key    uint64
}

// FromDatabase returns an attribute whose raw value was read from a store.
func FromDatabase(name string, raw any, typ ValueType) *Attribute {
	return &Attribute{kind: KindFromDatabase, name: name, raw: raw, typ: typ}
}

// FromUser returns an attribute whose raw value was supplied by a caller, superseding the
// original attribute. The value is validated when it is first read.
func FromUser(name string, raw any, typ ValueType, original *Attribute) *Attribute {
	return &Attribute{kind: KindFromUser, name: name, raw: raw, typ: typ, original: original}
}

// WithCastValue returns an attribute holding an already typed value.
func WithCastValue(name string, value any, typ ValueType) *Attribute {
	return &Attribute{kind: KindWithCastValue, name: name, typ: typ, read: true, cached: value}
}

// Uninitialized returns an attribute with no value.
func Uninitialized(name string, typ ValueType) *Attribute {
	return &Attribute{kind: KindUninitialized, name: name, typ: typ}
}

func (a *Attribute) Name() string                  { return a.name }
func (a *Attribute) Type() ValueType               { return a.typ }
func (a *Attribute) Kind() Kind                    { return a.kind }
func (a *Attribute) OriginalAttribute() *Attribute { return a.original }
func (a *Attribute) HasBeenRead() bool             { return a.read }
func (a *Attribute) Initialized() bool             { return a.kind != KindUninitialized }

// Value returns the typed value, casting the raw value on the first call. Uninitialized
// attributes return the result of the fallback, if given, and are never cached. Attributes
// with no value type pass their raw values through.
func (a *Attribute) Value(fallback ...Fallback) (value any, err error) {
	switch {
	case a.kind == KindUninitialized:
		if len(fallback) > 0 && fallback[0] != nil {
			value = fallback[0](a.name)
		}
		return
	case a.read:
		value = a.cached
		return
	}
	switch {
	case a.typ == nil:
		value = a.raw
	case a.kind == KindFromDatabase:
		value, err = a.typ.Deserialize(a.raw)
	case a.kind == KindFromUser:
		value, err = a.typ.Cast(a.raw)
		if err == nil {
			err = a.validate(value)
		}
	}
	if err != nil {
		value = nil
		return
	}
	a.cached, a.read = value, true
	a.key, a.keyed = a.comparisonKey(value)
	return
}

// ValueBeforeTypeCast returns the raw value, or the typed value for attributes that were
// given one.
func (a *Attribute) ValueBeforeTypeCast() (raw any) {
	switch a.kind {
	case KindFromDatabase, KindFromUser:
		raw = a.raw
	case KindWithCastValue:
		raw = a.cached
	}
	return
}

// ValueForDatabase returns the typed value serialized by the value type.
func (a *Attribute) ValueForDatabase() (raw any, err error) {
	value, err := a.Value()
	if err != nil {
		return
	}
	if a.typ == nil {
		raw = value
		return
	}
	raw, err = a.typ.Serialize(value)
	return
}

// WithValueFromUser returns an attribute for a caller supplied raw value that supersedes
// this one. The cast value is validated now, so invalid assignments fail immediately.
func (a *Attribute) WithValueFromUser(raw any) (attr *Attribute, err error) {
	if a.typ != nil {
		value, castErr := a.typ.Cast(raw)
		if castErr != nil {
			err = castErr
			return
		}
		err = a.validate(value)
		if err != nil {
			return
		}
	}
	attr = FromUser(a.name, raw, a.typ, a)
	return
}

func (a *Attribute) WithValueFromDatabase(raw any) *Attribute {
	return FromDatabase(a.name, raw, a.typ)
}

func (a *Attribute) WithCastValue(value any) *Attribute {
	return WithCastValue(a.name, value, a.typ)
}

// WithType returns the attribute under a new value type. If the typed value has been
// changed in place, the result is assigned the changed value, superseding this attribute.
func (a *Attribute) WithType(typ ValueType) (attr *Attribute) {
	if a.ChangedInPlace() {
		attr = FromUser(a.name, a.cached, typ, a)
		return
	}
	attr = &Attribute{kind: a.kind, name: a.name, typ: typ, raw: a.raw, original: a.original}
	if a.kind == KindWithCastValue {
		attr.read, attr.cached = true, a.cached
	}
	return
}

// ForgettingAssignment returns an attribute read from the store with this attribute's
// current value, with no record of what it superseded.
func (a *Attribute) ForgettingAssignment() (attr *Attribute, err error) {
	raw, err := a.ValueForDatabase()
	if err != nil {
		return
	}
	attr = a.WithValueFromDatabase(raw)
	return
}

// Changed is true if the attribute was assigned a value different from its original's,
// or if its value has been changed in place.
func (a *Attribute) Changed() bool {
	if a.kind == KindFromUser {
		var original any
		if a.original != nil {
			var err error
			original, err = a.original.Value()
			if err != nil {
				return true
			}
		}
		value, err := a.Value()
		if err != nil || !a.equalValues(original, value) {
			return true
		}
	}
	return a.ChangedInPlace()
}

// ChangedInPlace is true if the typed value has been read and its serialized form no
// longer matches the form it had when read. The value type is never consulted for
// attributes that have not been read.
func (a *Attribute) ChangedInPlace() bool {
	switch {
	case !a.read, !a.keyed:
		return false
	case a.kind == KindWithCastValue, a.kind == KindUninitialized:
		return false
	}
	key, ok := a.comparisonKey(a.cached)
	return !ok || key != a.key
}

// Equal is true if the attributes have the same kind, name, value type and payload.
// Original attributes are not compared.
func (a *Attribute) Equal(other *Attribute) bool {
	switch {
	case a == other:
		return true
	case a == nil, other == nil:
		return false
	case a.kind != other.kind, a.name != other.name:
		return false
	case !sameType(a.typ, other.typ):
		return false
	}
	return reflect.DeepEqual(a.ValueBeforeTypeCast(), other.ValueBeforeTypeCast())
}

func (a *Attribute) validate(value any) (err error) {
	err = a.typ.AssertValid(value)
	if err == nil {
		return
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Name == "" {
			named := *validationErr
			named.Name = a.name
			err = &named
		}
		return
	}
	err = &ValidationError{Name: a.name, Value: value, Err: err}
	return
}

func (a *Attribute) comparisonKey(value any) (key uint64, ok bool) {
	if a.typ == nil {
		return
	}
	raw, err := a.typ.Serialize(value)
	if err != nil {
		return
	}
	key, err = hashstructure.Hash(raw, hashstructure.FormatV2, nil)
	ok = err == nil
	return
}

func (a *Attribute) equalValues(x, y any) bool {
	if comparer, ok := a.typ.(Comparer); ok {
		return comparer.Equal(x, y)
	}
	return reflect.DeepEqual(x, y)
}

func sameType(x, y ValueType) bool {
	xName, yName := TypeName(x), TypeName(y)
	if xName != "" || yName != "" {
		return xName == yName
	}
	return reflect.DeepEqual(x, y)
}
