package schemas

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rails/rails-fast-attributes/internal/attribute"
	"github.com/rails/rails-fast-attributes/internal/structs/models"
	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

func TestAnalyzeSimple(t *testing.T) {
	type Person struct {
		ID    uint64  `attr:"id,primary"`
		Name  string  `attr:"name"`
		Title *string `attr:"title"`
	}
	var p *Person

	actual, err := Analyze(models.NewCachingAnalyzer(), reflect.TypeOf(p))
	assert.NoError(t, err)
	assert.Equal(t, Columns("id", sys.Integer{}, "name", sys.String{}, "title", sys.String{}), actual.Columns)
	require.Len(t, actual.Defaults, 1)
	assert.True(t, attribute.FromDatabase("id", nil, sys.Integer{}).Equal(actual.Defaults[0]))
}

func TestBuilder(t *testing.T) {
	type Person struct {
		ID   int64  `attr:"id,primary"`
		Name string `attr:"name"`
	}

	schema, err := Analyze(models.NewCachingAnalyzer(), reflect.TypeOf(Person{}))
	require.NoError(t, err)
	attrs := schema.Builder().BuildFromDatabase(nil, nil)
	assert.Equal(t, []string{"id"}, attrs.Keys())
	assert.Equal(t, 2, attrs.Len())

	schema.FallbackType = sys.Integer{}
	attrs = schema.Builder().BuildFromDatabase(map[string]any{"name": "Donald", "age": "48"}, nil)
	assert.Equal(t, []string{"id", "name", "age"}, attrs.Keys())
	age, err := attrs.FetchValue("age")
	assert.NoError(t, err)
	assert.Equal(t, int64(48), age)
}

func TestAnalyzeInvalid(t *testing.T) {
	_, err := Analyze(models.NewCachingAnalyzer(), reflect.TypeOf("person"))
	assert.Error(t, err)
}
