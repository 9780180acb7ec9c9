// Package attributeset provides ordered sets of attributes keyed by name, and the builder
// that derives them from a schema and raw store values.
package attributeset

import (
	"log/slog"

	"github.com/rails/rails-fast-attributes/internal/attribute"
	"github.com/rails/rails-fast-attributes/internal/index"
	"github.com/rails/rails-fast-attributes/internal/iterator"
	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// AttributeSet is an ordered set of attributes, unique by name.
//
// Sets are not safe for concurrent use. Dup is cheap and shares attributes with the
// original; DeepDup copies them.
type AttributeSet struct {
	attrs  *index.Index
	frozen bool
	degree int
	logger *slog.Logger
}

// NamedValue is a value of the attribute with the given name.
type NamedValue struct {
	Name  string
	Value any
}

// Values are named values in attribute order.
type Values []NamedValue

// Map returns the values keyed by name.
func (values Values) Map() (m map[string]any) {
	m = make(map[string]any, len(values))
	for _, value := range values {
		m[value.Name] = value.Value
	}
	return
}

// Names returns the names of the values in order.
func (values Values) Names() (names []string) {
	names = make([]string, len(values))
	for i, value := range values {
		names[i] = value.Name
	}
	return
}

// New returns a set of the given attributes, in order.
func New(attrs []*attribute.Attribute, opts ...Option) (set *AttributeSet) {
	o := newOptions(opts)
	set = &AttributeSet{attrs: index.New(o.degree), degree: o.degree, logger: o.logger}
	iterator.Slice[*attribute.Attribute](attrs).Each(func(attr *attribute.Attribute) bool {
		set.attrs.Insert(attr)
		return true
	})
	return
}

// Get returns the attribute with the given name. Unknown names get an uninitialized
// attribute of the null type that is not added to the set.
func (set *AttributeSet) Get(name string) (attr *attribute.Attribute) {
	attr, extant := set.attrs.Find(name)
	if !extant {
		attr = attribute.Uninitialized(name, sys.Null{})
	}
	return
}

// FetchValue returns the value of the named attribute. The fallback supplies values for
// uninitialized attributes; unknown names always have a nil value.
func (set *AttributeSet) FetchValue(name string, fallback ...Fallback) (value any, err error) {
	attr, extant := set.attrs.Find(name)
	if !extant {
		return
	}
	value, err = attr.Value(fallback...)
	return
}

// Has is true if the set has an initialized attribute with the given name.
func (set *AttributeSet) Has(name string) bool {
	attr, extant := set.attrs.Find(name)
	return extant && attr.Initialized()
}

// Keys returns the names of the initialized attributes.
func (set *AttributeSet) Keys() []string {
	return set.names((*attribute.Attribute).Initialized)
}

// names returns the names of the attributes that satisfy the predicate, in order.
func (set *AttributeSet) names(pred func(*attribute.Attribute) bool) []string {
	return iterator.Reduce(set.attrs.Select(), func(names []string, entry index.Entry) []string {
		if pred(entry.Attr) {
			names = append(names, entry.Name)
		}
		return names
	}, []string{})
}

// ToHash returns the values of the initialized attributes, reading them as needed.
func (set *AttributeSet) ToHash() (values Values, err error) {
	values = Values{}
	set.Each(func(attr *attribute.Attribute) bool {
		if !attr.Initialized() {
			return true
		}
		var value any
		value, err = attr.Value()
		if err != nil {
			return false
		}
		values = append(values, NamedValue{Name: attr.Name(), Value: value})
		return true
	})
	if err != nil {
		values = nil
	}
	return
}

// ValuesBeforeTypeCast returns the raw values of all of the attributes.
func (set *AttributeSet) ValuesBeforeTypeCast() (values Values) {
	values = make(Values, 0, set.Len())
	set.Each(func(attr *attribute.Attribute) bool {
		values = append(values, NamedValue{Name: attr.Name(), Value: attr.ValueBeforeTypeCast()})
		return true
	})
	return
}

// Accessed returns the names of the attributes that have been read.
func (set *AttributeSet) Accessed() []string {
	return set.names((*attribute.Attribute).HasBeenRead)
}

func (set *AttributeSet) WriteFromDatabase(name string, raw any) error {
	return set.write("write_from_database", name, func(attr *attribute.Attribute) (*attribute.Attribute, error) {
		return attr.WithValueFromDatabase(raw), nil
	})
}

// WriteFromUser replaces the named attribute with one for the caller supplied value,
// failing if the value type rejects it.
func (set *AttributeSet) WriteFromUser(name string, raw any) error {
	return set.write("write_from_user", name, func(attr *attribute.Attribute) (*attribute.Attribute, error) {
		return attr.WithValueFromUser(raw)
	})
}

func (set *AttributeSet) WriteCastValue(name string, value any) error {
	return set.write("write_cast_value", name, func(attr *attribute.Attribute) (*attribute.Attribute, error) {
		return attr.WithCastValue(value), nil
	})
}

// Reset makes the named attribute uninitialized. Unknown names are ignored.
func (set *AttributeSet) Reset(name string) (err error) {
	if set.frozen {
		err = set.rejectFrozen("reset", name)
		return
	}
	attr, extant := set.attrs.Find(name)
	if extant {
		set.attrs.Insert(attribute.Uninitialized(name, attr.Type()))
	}
	return
}

// Set adds the attribute to the set, replacing any attribute with its name.
func (set *AttributeSet) Set(attr *attribute.Attribute) (err error) {
	if set.frozen {
		err = set.rejectFrozen("set", attr.Name())
		return
	}
	set.attrs.Insert(attr)
	return
}

func (set *AttributeSet) write(op string, name string, transform func(*attribute.Attribute) (*attribute.Attribute, error)) (err error) {
	if set.frozen {
		err = set.rejectFrozen(op, name)
		return
	}
	attr, extant := set.attrs.Find(name)
	if !extant {
		set.logger.Debug("rejected write of unknown attribute", "op", op, "name", name)
		err = &MissingAttributeError{Name: name}
		return
	}
	next, err := transform(attr)
	if err != nil {
		return
	}
	set.attrs.Insert(next)
	return
}

func (set *AttributeSet) rejectFrozen(op string, name string) error {
	set.logger.Debug("rejected change to frozen attribute set", "op", op, "name", name)
	return &ImmutabilityError{Op: op, Name: name}
}

// Map returns a new set of the attributes returned by the transform.
func (set *AttributeSet) Map(transform func(*attribute.Attribute) (*attribute.Attribute, error)) (mapped *AttributeSet, err error) {
	mapped = &AttributeSet{attrs: index.New(set.degree), degree: set.degree, logger: set.logger}
	set.Each(func(attr *attribute.Attribute) bool {
		var next *attribute.Attribute
		next, err = transform(attr)
		if err != nil {
			return false
		}
		mapped.attrs.Insert(next)
		return true
	})
	if err != nil {
		mapped = nil
	}
	return
}

// Each visits the attributes in order until accept returns false.
func (set *AttributeSet) Each(accept iterator.Accept[*attribute.Attribute]) {
	set.attrs.Each(func(entry index.Entry) bool {
		return accept(entry.Attr)
	})
}

// Iterate returns an iterator of the attributes in order.
func (set *AttributeSet) Iterate() *iterator.Iterator[*attribute.Attribute] {
	return iterator.BuildIterator[*attribute.Attribute](set)
}

func (set *AttributeSet) Len() int {
	return set.attrs.Len()
}

// Dup returns an unfrozen copy of the set that shares its attributes. Writes to either set
// do not affect the other, but changes made in place to shared values are seen by both.
func (set *AttributeSet) Dup() *AttributeSet {
	return &AttributeSet{attrs: set.attrs.Clone(), degree: set.degree, logger: set.logger}
}

// DeepDup returns an unfrozen copy of the set with copies of its attributes.
func (set *AttributeSet) DeepDup() (dup *AttributeSet, err error) {
	return set.Map(func(attr *attribute.Attribute) (*attribute.Attribute, error) {
		return attr.DeepDup()
	})
}

// Equal is true if the sets have equal attributes with the same names, in any order.
func (set *AttributeSet) Equal(other *AttributeSet) (equal bool) {
	switch {
	case set == other:
		return true
	case set == nil, other == nil:
		return false
	case set.Len() != other.Len():
		return false
	}
	equal = true
	set.Each(func(attr *attribute.Attribute) bool {
		otherAttr, extant := other.attrs.Find(attr.Name())
		equal = extant && attr.Equal(otherAttr)
		return equal
	})
	return
}

// Freeze makes the set reject further changes. Reads are unaffected.
func (set *AttributeSet) Freeze() {
	set.frozen = true
	set.logger.Debug("froze attribute set", "size", set.Len())
}

func (set *AttributeSet) Frozen() bool {
	return set.frozen
}
