package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

func TestAnalyze(t *testing.T) {
	type Person struct {
		ID      int64           `attr:"id,primary"`
		Name    string          `attr:"name"`
		Age     *int            `attr:"age,ignoreempty,check=value >= 0 && value < 200"`
		Born    time.Time       `attr:"born"`
		Balance decimal.Decimal `attr:"balance"`
		Code    string          `attr:"code,type=integer"`
		Tags    []string        `attr:"tags"`
		Note    string
	}

	model, err := Analyze(reflect.TypeOf(Person{}))
	require.NoError(t, err)
	require.Len(t, model.AttrFields, 7)

	id, ok := model.Attr("id")
	assert.True(t, ok)
	assert.True(t, id.Primary)
	assert.Equal(t, sys.Integer{}, id.Type)

	age, ok := model.Attr("age")
	assert.True(t, ok)
	assert.Equal(t, 2, age.Index)
	assert.True(t, age.IsPointer())
	assert.True(t, age.IgnoreEmpty)
	assert.Equal(t, "integer|value >= 0 && value < 200", age.TypeName)
	assert.Error(t, age.Type.AssertValid(int64(200)))

	for name, typeName := range map[string]string{
		"name":    sys.TypeString,
		"born":    sys.TypeDateTime,
		"balance": sys.TypeDecimal,
		"code":    sys.TypeInteger,
		"tags":    sys.TypeJSON,
	} {
		attr, ok := model.Attr(name)
		assert.True(t, ok, name)
		assert.Equal(t, typeName, attr.TypeName, name)
	}

	_, ok = model.Attr("note")
	assert.False(t, ok)
}

func TestAnalyzeErrors(t *testing.T) {
	for code, typ := range map[string]reflect.Type{
		"models.notStruct": reflect.TypeOf(1),
		"models.invalidDirective": reflect.TypeOf(struct {
			Name string `attr:"name,identity"`
		}{}),
		"models.invalidType": reflect.TypeOf(struct {
			Ch chan int `attr:"ch"`
		}{}),
		"models.unexportedField": reflect.TypeOf(struct {
			name string `attr:"name"`
		}{}),
		"models.missingName": reflect.TypeOf(struct {
			Name string `attr:",primary"`
		}{}),
		"sys.unknownType": reflect.TypeOf(struct {
			Name string `attr:"name,type=money"`
		}{}),
	} {
		_, err := Analyze(typ)
		var sysErr Error
		if assert.ErrorAs(t, err, &sysErr, code) {
			assert.Equal(t, code, sysErr.Code)
		}
	}
}

func TestCachingAnalyzer(t *testing.T) {
	type Thing struct {
		Name string `attr:"name"`
	}
	analyzer := NewCachingAnalyzer()
	first, err := analyzer.Analyze(reflect.TypeOf(Thing{}))
	require.NoError(t, err)
	second, err := analyzer.Analyze(reflect.TypeOf(Thing{}))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, analyzer.models, 1)
}
