// Package assembler provides for the construction of structs from attribute sets.
package assembler

import (
	"math"
	"reflect"

	"github.com/rails/rails-fast-attributes/internal/attributeset"
	"github.com/rails/rails-fast-attributes/internal/structs/models"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// Assemble sets the attr tagged fields of the target struct pointer to the typed values of
// the set's attributes. Nil values leave zero values. Fields of uninitialized or unknown
// attributes are untouched.
func Assemble(analyzer models.Analyzer, set *attributeset.AttributeSet, target any) (err error) {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		err = NewError("assembler.targetNotPointer")
		return
	}
	value := ptr.Elem()
	if value.Kind() != reflect.Struct {
		err = NewError("assembler.targetValueNotStruct")
		return
	}
	model, err := analyzer.Analyze(value.Type())
	if err != nil {
		return
	}
	for _, attr := range model.AttrFields {
		if !set.Has(attr.Name) {
			continue
		}
		v, fetchErr := set.FetchValue(attr.Name)
		if fetchErr != nil {
			err = fetchErr
			return
		}
		err = assign(attr, value.Field(attr.Index), v)
		if err != nil {
			return
		}
	}
	return
}

func assign(attr models.AttrFieldModel, field reflect.Value, v any) (err error) {
	if v == nil {
		field.SetZero()
		return
	}
	typ := attr.FieldType
	if attr.IsPointer() {
		typ = typ.Elem()
	}
	x, ok := convert(reflect.ValueOf(v), typ)
	if !ok {
		err = NewError("assembler.invalidValue", "attr", attr.Name, "value", v, "type", attr.FieldType)
		return
	}
	if attr.IsPointer() {
		p := reflect.New(typ)
		p.Elem().Set(x)
		x = p
	}
	field.Set(x)
	return
}

func convert(v reflect.Value, typ reflect.Type) (x reflect.Value, ok bool) {
	switch {
	case v.Type().AssignableTo(typ):
		x, ok = v, true
	case v.CanConvert(typ) && kindClass(v.Kind()) == kindClass(typ.Kind()):
		if kindClass(typ.Kind()) == reflect.Float64 && !fits(v, typ) {
			return
		}
		x, ok = v.Convert(typ), true
	}
	return
}

// fits is true if the number converts to the numeric type without overflow or loss of a
// fraction.
func fits(v reflect.Value, typ reflect.Type) bool {
	target := reflect.New(typ).Elem()
	switch {
	case v.CanInt():
		i := v.Int()
		switch {
		case target.CanInt():
			return !target.OverflowInt(i)
		case target.CanUint():
			return i >= 0 && !target.OverflowUint(uint64(i))
		}
	case v.CanUint():
		u := v.Uint()
		switch {
		case target.CanInt():
			return u <= math.MaxInt64 && !target.OverflowInt(int64(u))
		case target.CanUint():
			return !target.OverflowUint(u)
		}
	case v.CanFloat():
		f := v.Float()
		switch {
		case target.CanFloat():
			return !target.OverflowFloat(f)
		case f != math.Trunc(f):
			return false
		case target.CanInt():
			return f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
		case target.CanUint():
			return f >= 0 && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
		}
	}
	return true
}

// kindClass groups the numeric kinds, which convert among themselves.
func kindClass(kind reflect.Kind) reflect.Kind {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return reflect.Float64
	}
	return kind
}
