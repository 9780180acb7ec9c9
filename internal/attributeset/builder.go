package attributeset

import (
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/rails/rails-fast-attributes/internal/attribute"
	"github.com/rails/rails-fast-attributes/internal/index"
	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

type options struct {
	degree   int
	logger   *slog.Logger
	defaults []*attribute.Attribute
	fallback ValueType
}

// Option configures a builder or set.
type Option func(o *options)

// WithDegree sets the degree of the btrees that index the attributes.
func WithDegree(degree int) Option {
	return func(o *options) {
		if degree > 1 {
			o.degree = degree
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDefaults gives the builder attributes that are always initialized in built sets,
// e.g. primary keys.
func WithDefaults(attrs ...*attribute.Attribute) Option {
	return func(o *options) {
		o.defaults = append(o.defaults, attrs...)
	}
}

// WithFallbackType sets the type of raw values whose names are not in the schema.
func WithFallbackType(typ ValueType) Option {
	return func(o *options) {
		o.fallback = typ
	}
}

func newOptions(opts []Option) (o options) {
	o = options{
		degree:   32,
		logger:   slog.New(slog.DiscardHandler),
		fallback: sys.Value{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return
}

// Builder builds attribute sets for a schema. Builders are not changed by builds and are
// safe for concurrent use.
type Builder struct {
	lock     sync.Mutex
	template *index.Index
	defaults []*attribute.Attribute
	options  options
}

// NewBuilder returns a builder for the given columns. Default attributes replace the
// uninitialized attributes of columns with their names, or follow the columns.
func NewBuilder(columns []Column, opts ...Option) (builder *Builder) {
	o := newOptions(opts)
	template := index.New(o.degree)
	for _, column := range columns {
		template.Insert(attribute.Uninitialized(column.Name, column.Type))
	}
	for _, attr := range o.defaults {
		template.Insert(attr.WithoutCastValue())
	}
	builder = &Builder{template: template, defaults: o.defaults, options: o}
	return
}

// BuildFromDatabase returns a set with an attribute for every column and default, and for
// every override and raw value. Columns keep their order; defaults and overrides that are
// not columns follow them, then raw values with no attribute, both in name order. Raw
// values with no column or override have the fallback type. Nil overrides are ignored.
func (builder *Builder) BuildFromDatabase(raw map[string]any, overrides map[string]ValueType) (set *AttributeSet) {
	builder.lock.Lock()
	attrs := builder.template.Clone()
	builder.lock.Unlock()
	for _, attr := range builder.defaults {
		attrs.Insert(attr.WithoutCastValue())
	}
	overridden := maps.Keys(overrides)
	slices.Sort(overridden)
	for _, name := range overridden {
		typ := overrides[name]
		if typ == nil {
			continue
		}
		attrs.Insert(attribute.Uninitialized(name, typ))
	}
	names := maps.Keys(raw)
	slices.Sort(names)
	for _, name := range names {
		attr, extant := attrs.Find(name)
		if extant {
			attrs.Insert(attr.WithValueFromDatabase(raw[name]))
		} else {
			attrs.Insert(attribute.FromDatabase(name, raw[name], builder.options.fallback))
		}
	}
	set = &AttributeSet{attrs: attrs, degree: builder.options.degree, logger: builder.options.logger}
	builder.options.logger.Debug("built attribute set", "size", set.Len(), "raw", len(raw), "overrides", len(overrides))
	return
}
