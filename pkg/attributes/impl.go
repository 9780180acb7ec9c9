package attributes

import (
	"io"
	"log/slog"

	"github.com/rails/rails-fast-attributes/internal/attributeset"
	schemaconfig "github.com/rails/rails-fast-attributes/internal/config"
)

type Config struct {
	Degree       int
	FallbackType ValueType
	Logger       *slog.Logger
}

var defaultConfig Config = Config{
	Degree: 32,
	Logger: slog.New(slog.DiscardHandler),
}

func (config Config) options() (opts []attributeset.Option) {
	degree := config.Degree
	if degree == 0 {
		degree = defaultConfig.Degree
	}
	logger := config.Logger
	if logger == nil {
		logger = defaultConfig.Logger
	}
	opts = []attributeset.Option{attributeset.WithDegree(degree), attributeset.WithLogger(logger)}
	return
}

// NewBuilder returns a builder for the columns. Defaults are attributes every set has.
func NewBuilder(config Config, columns []Column, defaults ...*Attribute) *Builder {
	opts := append(config.options(), attributeset.WithDefaults(defaults...))
	if config.FallbackType != nil {
		opts = append(opts, attributeset.WithFallbackType(config.FallbackType))
	}
	return attributeset.NewBuilder(columns, opts...)
}

// LoadBuilder returns a builder for the yaml schema document. A fallback type in the
// document takes precedence over the config's.
func LoadBuilder(config Config, r io.Reader) (builder *Builder, err error) {
	logger := config.Logger
	if logger == nil {
		logger = defaultConfig.Logger
	}
	schema, err := schemaconfig.Load(r, logger)
	if err != nil {
		return
	}
	if schema.FallbackType == nil {
		schema.FallbackType = config.FallbackType
	}
	builder = schema.Builder(config.options()...)
	return
}
