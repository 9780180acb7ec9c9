package attribute

import (
	"reflect"

	"github.com/mitchellh/copystructure"

	. "github.com/rails/rails-fast-attributes/internal/types"
)

// Dup returns a copy of the attribute with its own cache. A cached value is copied one
// level deep, so maps, slices and structs read through the copy are the copy's own. An
// attribute that has not been read is not cast.
func (a *Attribute) Dup() (dup *Attribute) {
	clone := *a
	dup = &clone
	if a.read {
		dup.cached = shallowCopy(a.cached)
	}
	return
}

// WithoutCastValue returns a copy of the attribute that has not been read. Attributes that
// were given a typed value keep it.
func (a *Attribute) WithoutCastValue() (attr *Attribute) {
	clone := *a
	attr = &clone
	if a.kind != KindWithCastValue {
		attr.read, attr.cached, attr.keyed, attr.key = false, nil, false, 0
	}
	return
}

// DeepDup returns a copy of the attribute whose raw value, cached value and original
// attribute are fully copied.
func (a *Attribute) DeepDup() (dup *Attribute, err error) {
	clone := *a
	dup = &clone
	dup.raw, err = deepCopy(a.typ, a.raw)
	if err != nil {
		dup = nil
		return
	}
	if a.read {
		dup.cached, err = deepCopy(a.typ, a.cached)
		if err != nil {
			dup = nil
			return
		}
	}
	if a.original != nil {
		dup.original, err = a.original.DeepDup()
		if err != nil {
			dup = nil
		}
	}
	return
}

func deepCopy(typ ValueType, value any) (copied any, err error) {
	if value == nil {
		return
	}
	if copier, ok := typ.(Copier); ok {
		copied, err = copier.DeepCopy(value)
		return
	}
	copied, err = copystructure.Copy(value)
	if err != nil {
		err = NewError("attribute.uncopyable", "value", value, "error", err)
	}
	return
}

func shallowCopy(value any) any {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return value
		}
		m := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m.SetMapIndex(iter.Key(), iter.Value())
		}
		return m.Interface()
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(s, v)
		return s.Interface()
	case reflect.Pointer:
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return value
		}
		p := reflect.New(v.Elem().Type())
		p.Elem().Set(v.Elem())
		return p.Interface()
	}
	return value
}
