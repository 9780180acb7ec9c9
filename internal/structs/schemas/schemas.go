// Package schemas provides for deriving attribute set schemas from structs.
package schemas

import (
	"reflect"

	"github.com/rails/rails-fast-attributes/internal/attribute"
	"github.com/rails/rails-fast-attributes/internal/attributeset"
	"github.com/rails/rails-fast-attributes/internal/structs/models"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// Schema is the configuration of an attribute set builder.
type Schema struct {
	// Columns are the typed attribute names, in order.
	Columns []Column
	// Defaults are the attributes that are always initialized.
	Defaults []*attribute.Attribute
	// FallbackType types raw values with no column, if given.
	FallbackType ValueType
}

// Builder returns a builder for the schema.
func (schema Schema) Builder(opts ...attributeset.Option) *attributeset.Builder {
	schemaOpts := make([]attributeset.Option, 0, len(opts)+2)
	schemaOpts = append(schemaOpts, attributeset.WithDefaults(schema.Defaults...))
	if schema.FallbackType != nil {
		schemaOpts = append(schemaOpts, attributeset.WithFallbackType(schema.FallbackType))
	}
	return attributeset.NewBuilder(schema.Columns, append(schemaOpts, opts...)...)
}

// Primary returns a default attribute for a primary key, initialized with no value.
func Primary(name string, typ ValueType) *attribute.Attribute {
	return attribute.FromDatabase(name, nil, typ)
}

// Analyze returns the schema of the attr tagged fields of the struct type.
func Analyze(analyzer models.Analyzer, typ reflect.Type) (schema Schema, err error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	model, err := analyzer.Analyze(typ)
	if err != nil {
		return
	}
	schema.Columns = make([]Column, 0, len(model.AttrFields))
	for _, field := range model.AttrFields {
		schema.Columns = append(schema.Columns, Column{Name: field.Name, Type: field.Type})
		if field.Primary {
			schema.Defaults = append(schema.Defaults, Primary(field.Name, field.Type))
		}
	}
	return
}
