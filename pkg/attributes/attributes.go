// Package attributes contains the public attribute and attribute set types and functions.
package attributes

import (
	"reflect"

	"github.com/rails/rails-fast-attributes/internal/attribute"
	"github.com/rails/rails-fast-attributes/internal/attributeset"
	"github.com/rails/rails-fast-attributes/internal/structs/assembler"
	"github.com/rails/rails-fast-attributes/internal/structs/models"
	"github.com/rails/rails-fast-attributes/internal/structs/schemas"
	"github.com/rails/rails-fast-attributes/internal/structs/shredder"
	"github.com/rails/rails-fast-attributes/internal/types"
)

// Attribute is a named value that remembers its raw and typed forms and whether it changed.
type Attribute = attribute.Attribute

// AttributeSet is the ordered set of a record's attributes.
type AttributeSet = attributeset.AttributeSet

// Builder produces attribute sets from raw database values.
type Builder = attributeset.Builder

// ValueType converts between raw and typed values.
type ValueType = types.ValueType

// Column is a named, typed slot in a schema.
type Column = types.Column

// Values are named values in attribute order.
type Values = attributeset.Values

var (
	FromDatabase  = attribute.FromDatabase
	FromUser      = attribute.FromUser
	WithCastValue = attribute.WithCastValue
	Uninitialized = attribute.Uninitialized
)

// Model binds the attr tagged fields of a struct type to attribute sets.
type Model[T any] struct {
	analyzer models.Analyzer
	builder  *Builder
	shredder *shredder.Shredder
}

// NewModel analyzes the struct type T.
func NewModel[T any](config Config) (model *Model[T], err error) {
	analyzer := models.NewCachingAnalyzer()
	schema, err := schemas.Analyze(analyzer, reflect.TypeFor[T]())
	if err != nil {
		return
	}
	schema.FallbackType = config.FallbackType
	model = &Model[T]{
		analyzer: analyzer,
		builder:  schema.Builder(config.options()...),
		shredder: shredder.NewShredder(analyzer),
	}
	return
}

// Build returns an attribute set for the raw database values.
func (model *Model[T]) Build(raw map[string]any) *AttributeSet {
	return model.builder.BuildFromDatabase(raw, nil)
}

// Assemble returns a struct with the typed values of the set.
func (model *Model[T]) Assemble(set *AttributeSet) (entity *T, err error) {
	var x T
	err = assembler.Assemble(model.analyzer, set, &x)
	if err != nil {
		return
	}
	entity = &x
	return
}

// Assign writes the entity's field values to the set as caller supplied values.
func (model *Model[T]) Assign(set *AttributeSet, entity *T) error {
	return model.shredder.Assign(set, entity)
}
