package attribute

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// stubType returns fixed results and counts its calls.
type stubType struct {
	cast        func(raw any) any
	deserialize func(raw any) any
	serialize   func(value any) any
	assertValid func(value any) error
	calls       map[string]int
}

func newStubType() *stubType {
	return &stubType{calls: map[string]int{}}
}

func (typ *stubType) Cast(raw any) (value any, err error) {
	typ.calls["cast"]++
	value = raw
	if typ.cast != nil {
		value = typ.cast(raw)
	}
	return
}

func (typ *stubType) Deserialize(raw any) (value any, err error) {
	typ.calls["deserialize"]++
	value = raw
	if typ.deserialize != nil {
		value = typ.deserialize(raw)
	}
	return
}

func (typ *stubType) Serialize(value any) (raw any, err error) {
	typ.calls["serialize"]++
	raw = value
	if typ.serialize != nil {
		raw = typ.serialize(value)
	}
	return
}

func (typ *stubType) AssertValid(value any) (err error) {
	typ.calls["assertValid"]++
	if typ.assertValid != nil {
		err = typ.assertValid(value)
	}
	return
}

// raisingType fails the test if any of its methods are called.
type raisingType struct{}

func (raisingType) Cast(raw any) (any, error)        { panic("cast") }
func (raisingType) Deserialize(raw any) (any, error) { panic("deserialize") }
func (raisingType) Serialize(value any) (any, error) { panic("serialize") }
func (raisingType) AssertValid(value any) error      { panic("assertValid") }

// suffixType appends the source of the value to string raw values.
type suffixType struct{}

func (suffixType) Cast(raw any) (any, error)        { return raw.(string) + " from user", nil }
func (suffixType) Deserialize(raw any) (any, error) { return raw.(string) + " from database", nil }
func (suffixType) Serialize(value any) (any, error) { return value, nil }
func (suffixType) AssertValid(value any) error      { return nil }

type buffer struct {
	Text string
}

func (b *buffer) String() string {
	return b.Text
}

func fromUser(name string, raw any, typ ValueType) *Attribute {
	return FromUser(name, raw, typ, Uninitialized(name, typ))
}

func TestReads(t *testing.T) {
	t.Run("from database reads deserialize", func(t *testing.T) {
		typ := newStubType()
		typ.deserialize = func(any) any { return "type cast from database" }
		attr := FromDatabase("", "a value", typ)
		v, err := attr.Value()
		assert.NoError(t, err)
		assert.Equal(t, "type cast from database", v)
		assert.Zero(t, typ.calls["cast"])
	})

	t.Run("from user reads cast", func(t *testing.T) {
		typ := newStubType()
		typ.cast = func(any) any { return "type cast from user" }
		attr := fromUser("", "a value", typ)
		v, err := attr.Value()
		assert.NoError(t, err)
		assert.Equal(t, "type cast from user", v)
		assert.Zero(t, typ.calls["deserialize"])
	})

	t.Run("reading memoizes the value", func(t *testing.T) {
		typ := newStubType()
		typ.deserialize = func(any) any { return map[string]any{"from": "the database"} }
		attr := FromDatabase("", "whatever", typ)
		first, err := attr.Value()
		require.NoError(t, err)
		second, err := attr.Value()
		require.NoError(t, err)
		first.(map[string]any)["again"] = true
		assert.Equal(t, first, second)
		assert.Equal(t, true, second.(map[string]any)["again"])
		assert.Equal(t, 1, typ.calls["deserialize"])
	})

	t.Run("reading memoizes falsy values", func(t *testing.T) {
		typ := newStubType()
		typ.deserialize = func(any) any { return false }
		attr := FromDatabase("", "whatever", typ)
		attr.Value()
		attr.Value()
		assert.Equal(t, 1, typ.calls["deserialize"])
	})

	t.Run("value before type cast returns the given value", func(t *testing.T) {
		attr := FromDatabase("", "raw value", sys.Value{})
		assert.Equal(t, "raw value", attr.ValueBeforeTypeCast())
		assert.Nil(t, Uninitialized("foo", sys.Value{}).ValueBeforeTypeCast())
		assert.Equal(t, 3, WithCastValue("foo", 3, sys.Integer{}).ValueBeforeTypeCast())
	})

	t.Run("value for database serializes the read value", func(t *testing.T) {
		typ := newStubType()
		typ.deserialize = func(any) any { return "read from database" }
		typ.cast = func(any) any { return "read from user" }
		typ.serialize = func(v any) any { return v.(string) + ", ready for database" }
		raw, err := FromDatabase("", "whatever", typ).ValueForDatabase()
		assert.NoError(t, err)
		assert.Equal(t, "read from database, ready for database", raw)
		raw, err = fromUser("", "whatever", typ).ValueForDatabase()
		assert.NoError(t, err)
		assert.Equal(t, "read from user, ready for database", raw)
	})

	t.Run("cast failures are returned and not cached", func(t *testing.T) {
		attr := FromDatabase("age", "abc", sys.Integer{})
		_, err := attr.Value()
		assert.Error(t, err)
		assert.False(t, attr.HasBeenRead())
	})

	t.Run("attributes with no type pass values through", func(t *testing.T) {
		v, err := FromDatabase("foo", "1", nil).Value()
		assert.NoError(t, err)
		assert.Equal(t, "1", v)
		attr, err := Uninitialized("foo", nil).WithValueFromUser("2")
		require.NoError(t, err)
		v, err = attr.Value()
		assert.NoError(t, err)
		assert.Equal(t, "2", v)
		assert.True(t, attr.Changed())
	})

	t.Run("with cast value is read without casting", func(t *testing.T) {
		attr := WithCastValue("foo", "typed", raisingType{})
		assert.True(t, attr.HasBeenRead())
		v, err := attr.Value()
		assert.NoError(t, err)
		assert.Equal(t, "typed", v)
	})
}

func TestUninitialized(t *testing.T) {
	fallback := func(name string) any { return name + "!" }
	foo := Uninitialized("foo", nil)
	bar := Uninitialized("bar", nil)

	v, err := foo.Value(fallback)
	assert.NoError(t, err)
	assert.Equal(t, "foo!", v)
	v, _ = bar.Value(fallback)
	assert.Equal(t, "bar!", v)
	v, _ = foo.Value()
	assert.Nil(t, v)
	assert.False(t, foo.Initialized())
	assert.False(t, foo.HasBeenRead())
}

func TestDup(t *testing.T) {
	t.Run("duping dups the value", func(t *testing.T) {
		typ := newStubType()
		typ.deserialize = func(any) any { return map[string]any{"type": "cast"} }
		attr := FromDatabase("", "a value", typ)
		fromOrig, err := attr.Value()
		require.NoError(t, err)
		fromClone, err := attr.Dup().Value()
		require.NoError(t, err)
		fromOrig.(map[string]any)["foo"] = true
		assert.Equal(t, map[string]any{"type": "cast", "foo": true}, fromOrig)
		assert.Equal(t, map[string]any{"type": "cast"}, fromClone)
	})

	t.Run("duping does not copy values that cannot be copied", func(t *testing.T) {
		typ := newStubType()
		typ.deserialize = func(any) any { return false }
		attr := FromDatabase("", "a value", typ)
		dupValue, _ := attr.Dup().Value()
		value, _ := attr.Value()
		assert.Equal(t, value, dupValue)
	})

	t.Run("duping does not eagerly type cast if we have not yet type cast", func(t *testing.T) {
		attr := FromDatabase("", "a value", raisingType{})
		dup := attr.Dup()
		assert.False(t, dup.HasBeenRead())
		assert.True(t, attr.Equal(dup))
	})

	t.Run("duping gives the copy its own cache", func(t *testing.T) {
		typ := newStubType()
		attr := FromDatabase("", "a value", typ)
		dup := attr.Dup()
		dup.Value()
		assert.True(t, dup.HasBeenRead())
		assert.False(t, attr.HasBeenRead())
	})

	t.Run("deep duping copies nested values", func(t *testing.T) {
		raw := map[string]any{"tags": []any{"a"}}
		original := FromDatabase("doc", map[string]any{"tags": []any{"z"}}, sys.JSON{})
		attr := FromUser("doc", raw, sys.JSON{}, original)
		value, err := attr.Value()
		require.NoError(t, err)
		dup, err := attr.DeepDup()
		require.NoError(t, err)
		value.(map[string]any)["tags"].([]any)[0] = "b"
		raw["tags"].([]any)[0] = "c"
		dupValue, err := dup.Value()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"tags": []any{"a"}}, dupValue)
		assert.Equal(t, map[string]any{"tags": []any{"a"}}, dup.ValueBeforeTypeCast())
		assert.NotSame(t, original, dup.OriginalAttribute())
		assert.True(t, original.Equal(dup.OriginalAttribute()))
	})
}

func TestWith(t *testing.T) {
	t.Run("with value from user returns a new attribute with the value from the user", func(t *testing.T) {
		old := FromDatabase("", "old", suffixType{})
		attr, err := old.WithValueFromUser("new")
		require.NoError(t, err)
		v, _ := old.Value()
		assert.Equal(t, "old from database", v)
		v, _ = attr.Value()
		assert.Equal(t, "new from user", v)
		assert.Same(t, old, attr.OriginalAttribute())
	})

	t.Run("with value from database returns a new attribute with the value from the database", func(t *testing.T) {
		old := fromUser("", "old", suffixType{})
		attr := old.WithValueFromDatabase("new")
		v, _ := old.Value()
		assert.Equal(t, "old from user", v)
		v, _ = attr.Value()
		assert.Equal(t, "new from database", v)
		assert.Nil(t, attr.OriginalAttribute())
	})

	t.Run("with value from user validates the value", func(t *testing.T) {
		typ := newStubType()
		typ.assertValid = func(v any) error {
			if v == 1 {
				return errors.New("ones are not allowed")
			}
			return nil
		}
		attr := FromDatabase("foo", 1, typ)
		v, err := attr.Value()
		assert.NoError(t, err)
		assert.Equal(t, 1, v)
		two, err := attr.WithValueFromUser(2)
		require.NoError(t, err)
		v, err = two.Value()
		assert.NoError(t, err)
		assert.Equal(t, 2, v)
		_, err = attr.WithValueFromUser(1)
		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "foo", validationErr.Name)
		assert.EqualError(t, err, "invalid value for attribute 'foo': ones are not allowed")
	})

	t.Run("from user validates lazily", func(t *testing.T) {
		typ, err := sys.Lookup("integer|value > 0")
		require.NoError(t, err)
		attr := fromUser("age", "-3", typ)
		_, err = attr.Value()
		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "age", validationErr.Name)
		assert.Equal(t, int64(-3), validationErr.Value)
		assert.False(t, attr.HasBeenRead())
	})

	t.Run("with cast value", func(t *testing.T) {
		attr := FromDatabase("foo", "1", sys.Integer{}).WithCastValue(int64(2))
		assert.Equal(t, KindWithCastValue, attr.Kind())
		v, _ := attr.Value()
		assert.Equal(t, int64(2), v)
	})

	t.Run("with type preserves mutations", func(t *testing.T) {
		attr := FromDatabase("foo", &buffer{}, sys.Value{})
		v, err := attr.Value()
		require.NoError(t, err)
		v.(*buffer).Text = "1"
		typed := attr.WithType(sys.Integer{})
		assert.Equal(t, KindFromUser, typed.Kind())
		assert.Same(t, attr, typed.OriginalAttribute())
		v, err = typed.Value()
		assert.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("with type keeps the variant", func(t *testing.T) {
		attr := FromDatabase("foo", "1", sys.String{}).WithType(sys.Integer{})
		assert.Equal(t, KindFromDatabase, attr.Kind())
		v, _ := attr.Value()
		assert.Equal(t, int64(1), v)
		attr = Uninitialized("foo", sys.String{}).WithType(sys.Integer{})
		assert.Equal(t, KindUninitialized, attr.Kind())
		assert.Equal(t, sys.Integer{}, attr.Type())
	})
}

func TestEqual(t *testing.T) {
	first := FromDatabase("foo", 1, sys.Integer{})
	assert.True(t, first.Equal(FromDatabase("foo", 1, sys.Integer{})), "same constructor arguments")
	assert.False(t, first.Equal(FromDatabase("bar", 1, sys.Integer{})), "different names")
	assert.False(t, first.Equal(FromDatabase("foo", 1, sys.Float{})), "different types")
	assert.False(t, first.Equal(FromDatabase("foo", 2, sys.Integer{})), "different values")
	assert.False(t, first.Equal(fromUser("foo", 1, sys.Integer{})), "different kinds")
	assert.False(t, first.Equal(nil))
	assert.True(t, Uninitialized("foo", sys.Integer{}).Equal(Uninitialized("foo", sys.Integer{})))
}

func TestChanged(t *testing.T) {
	t.Run("an attribute has not been read by default", func(t *testing.T) {
		attr := FromDatabase("foo", 1, sys.Value{})
		assert.False(t, attr.HasBeenRead())
		attr.Value()
		assert.True(t, attr.HasBeenRead())
	})

	t.Run("an attribute is not changed if it hasn't been assigned or mutated", func(t *testing.T) {
		assert.False(t, FromDatabase("foo", 1, sys.Value{}).Changed())
	})

	t.Run("an attribute is changed if it's been assigned a new value", func(t *testing.T) {
		changed, err := FromDatabase("foo", 1, sys.Value{}).WithValueFromUser(2)
		require.NoError(t, err)
		assert.True(t, changed.Changed())
	})

	t.Run("an attribute is not changed if it's assigned the same value", func(t *testing.T) {
		unchanged, err := FromDatabase("foo", 1, sys.Value{}).WithValueFromUser(1)
		require.NoError(t, err)
		assert.False(t, unchanged.Changed())
	})

	t.Run("an attribute can not be mutated if it has not been read", func(t *testing.T) {
		attr := FromDatabase("foo", "bar", raisingType{})
		assert.False(t, attr.ChangedInPlace())
		assert.False(t, attr.Changed())
	})

	t.Run("an attribute is changed if it has been mutated", func(t *testing.T) {
		attr := FromDatabase("foo", map[string]any{"text": "bar"}, sys.JSON{})
		v, err := attr.Value()
		require.NoError(t, err)
		assert.False(t, attr.ChangedInPlace())
		v.(map[string]any)["text"] = "bar!"
		assert.True(t, attr.ChangedInPlace())
		assert.True(t, attr.Changed())
	})

	t.Run("an attribute can forget its changes", func(t *testing.T) {
		changed, err := FromDatabase("foo", "bar", sys.String{}).WithValueFromUser("foo")
		require.NoError(t, err)
		forgotten, err := changed.ForgettingAssignment()
		require.NoError(t, err)
		assert.True(t, changed.Changed())
		assert.False(t, forgotten.Changed())
		assert.Equal(t, KindFromDatabase, forgotten.Kind())
		assert.Equal(t, "foo", forgotten.ValueBeforeTypeCast())
	})

	t.Run("values are compared with the type's equality", func(t *testing.T) {
		attr, err := FromDatabase("price", "1.0", sys.Decimal{}).WithValueFromUser("1.00")
		require.NoError(t, err)
		assert.False(t, attr.Changed())
	})

	t.Run("cast values are never changed in place", func(t *testing.T) {
		value := map[string]any{"a": 1}
		attr := WithCastValue("doc", value, sys.JSON{})
		value["a"] = 2
		assert.False(t, attr.ChangedInPlace())
	})
}

func TestCodec(t *testing.T) {
	original := FromDatabase("age", "1", sys.Integer{})
	assigned, err := original.WithValueFromUser("2")
	require.NoError(t, err)
	check, err := sys.Lookup("integer|value < 10")
	require.NoError(t, err)

	for _, attr := range []*Attribute{
		original,
		assigned,
		WithCastValue("age", int64(3), sys.Integer{}),
		Uninitialized("age", sys.Integer{}),
		Uninitialized("age", nil),
		FromDatabase("doc", map[string]any{"a": []any{"b"}}, sys.JSON{}),
		FromDatabase("age", 4, check),
	} {
		data, err := attr.MarshalBinary()
		require.NoError(t, err)
		var decoded Attribute
		require.NoError(t, decoded.UnmarshalBinary(data))
		assert.True(t, attr.Equal(&decoded), "round trip %s", attr.Kind())
		assert.False(t, decoded.Kind() != KindWithCastValue && decoded.HasBeenRead())
	}

	data, err := assigned.MarshalBinary()
	require.NoError(t, err)
	var decoded Attribute
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.True(t, original.Equal(decoded.OriginalAttribute()))
	assert.True(t, decoded.Changed())

	_, err = FromDatabase("foo", 1, newStubType()).MarshalBinary()
	var sysErr Error
	assert.True(t, errors.As(err, &sysErr))
	assert.Equal(t, "attribute.unnamedType", sysErr.Code)
}
