// Package shredder deconstructs structs into raw attribute values.
package shredder

import (
	"reflect"

	"github.com/rails/rails-fast-attributes/internal/attributeset"
	"github.com/rails/rails-fast-attributes/internal/structs/models"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// Shredder shreds structs into named values.
type Shredder struct {
	analyzer models.Analyzer
}

// NewShredder returns a new shredder.
func NewShredder(analyzer models.Analyzer) *Shredder {
	return &Shredder{analyzer: analyzer}
}

// Shred returns the values of the attr tagged fields of the given struct or struct pointer,
// in field order. Nil pointers and ignored empty values are nil.
func (s *Shredder) Shred(x any) (values attributeset.Values, err error) {
	fields := reflect.ValueOf(x)
	switch fields.Kind() {
	case reflect.Struct:
	case reflect.Pointer:
		if fields.IsNil() {
			err = NewError("shredder.nilStruct")
			return
		}
		fields = fields.Elem()
	default:
		err = NewError("shredder.invalidStruct", "type", reflect.TypeOf(x))
		return
	}
	model, err := s.analyzer.Analyze(fields.Type())
	if err != nil {
		return
	}
	values = make(attributeset.Values, 0, len(model.AttrFields))
	for _, attr := range model.AttrFields {
		values = append(values, attributeset.NamedValue{Name: attr.Name, Value: fieldValue(attr, fields.Field(attr.Index))})
	}
	return
}

func fieldValue(attr models.AttrFieldModel, field reflect.Value) (value any) {
	switch {
	case attr.IgnoreEmpty && field.IsZero():
		return
	case attr.IsPointer():
		if field.IsNil() {
			return
		}
		value = field.Elem().Interface()
	default:
		value = field.Interface()
	}
	return
}

// Assign writes the values of the struct's fields to the set as caller supplied values.
// Primary attributes are not written from zero fields, and the first failed write stops
// the assignment.
func (s *Shredder) Assign(set *attributeset.AttributeSet, x any) (err error) {
	values, err := s.Shred(x)
	if err != nil {
		return
	}
	model, err := s.analyzer.Analyze(reflect.Indirect(reflect.ValueOf(x)).Type())
	if err != nil {
		return
	}
	for i, value := range values {
		if model.AttrFields[i].Primary && (value.Value == nil || reflect.ValueOf(value.Value).IsZero()) {
			continue
		}
		err = set.WriteFromUser(value.Name, value.Value)
		if err != nil {
			return
		}
	}
	return
}
