// Package sys provides the system value types and the registry that resolves them by name.
package sys

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/copystructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	. "github.com/rails/rails-fast-attributes/internal/types"
)

const (
	TypeValue    = "value"
	TypeNull     = "null"
	TypeInteger  = "integer"
	TypeFloat    = "float"
	TypeDecimal  = "decimal"
	TypeString   = "string"
	TypeBoolean  = "boolean"
	TypeDateTime = "datetime"
	TypeJSON     = "json"
	TypeUUID     = "uuid"
)

// Value passes values through unchanged. It is the type of attributes that have no
// declared type.
type Value struct{}

// Null is the type of attributes read from a set that does not know them.
type Null struct{}

// Integer casts to int64, truncating fractions.
type Integer struct{}

// Float casts to float64.
type Float struct{}

// Decimal casts to decimal.Decimal and serializes to its string form.
type Decimal struct{}

// String casts to string.
type String struct{}

// Boolean casts to bool. Blank strings cast to nil.
type Boolean struct{}

// DateTime casts to a UTC time.Time.
type DateTime struct{}

// JSON casts to decoded JSON documents and serializes to a JSON string.
type JSON struct{}

// UUID casts to uuid.UUID and serializes to its canonical string form.
type UUID struct{}

var (
	_ ValueType = Value{}
	_ ValueType = Null{}
	_ ValueType = Integer{}
	_ ValueType = Float{}
	_ ValueType = Decimal{}
	_ ValueType = String{}
	_ ValueType = Boolean{}
	_ ValueType = DateTime{}
	_ ValueType = JSON{}
	_ ValueType = UUID{}
)

func (Value) TypeName() string                    { return TypeValue }
func (Value) Cast(raw any) (any, error)           { return raw, nil }
func (Value) Deserialize(raw any) (any, error)    { return raw, nil }
func (Value) Serialize(value any) (any, error)    { return value, nil }
func (Value) AssertValid(value any) error         { return nil }
func (Null) TypeName() string                     { return TypeNull }
func (Null) Cast(raw any) (any, error)            { return nil, nil }
func (Null) Deserialize(raw any) (any, error)     { return nil, nil }
func (Null) Serialize(value any) (any, error)     { return nil, nil }
func (Null) AssertValid(value any) error          { return nil }
func (Integer) TypeName() string                  { return TypeInteger }
func (Integer) Cast(raw any) (any, error)         { return castInteger(raw) }
func (Integer) Deserialize(raw any) (any, error)  { return castInteger(raw) }
func (Integer) Serialize(value any) (any, error)  { return castInteger(value) }
func (Integer) AssertValid(value any) error       { return nil }
func (Float) TypeName() string                    { return TypeFloat }
func (Float) Cast(raw any) (any, error)           { return castFloat(raw) }
func (Float) Deserialize(raw any) (any, error)    { return castFloat(raw) }
func (Float) Serialize(value any) (any, error)    { return castFloat(value) }
func (Float) AssertValid(value any) error         { return nil }
func (Decimal) TypeName() string                  { return TypeDecimal }
func (Decimal) Cast(raw any) (any, error)         { return castDecimal(raw) }
func (Decimal) Deserialize(raw any) (any, error)  { return castDecimal(raw) }
func (Decimal) AssertValid(value any) error       { return nil }
func (Decimal) DeepCopy(value any) (any, error)   { return value, nil }
func (String) TypeName() string                   { return TypeString }
func (String) Cast(raw any) (any, error)          { return castString(raw) }
func (String) Deserialize(raw any) (any, error)   { return castString(raw) }
func (String) Serialize(value any) (any, error)   { return castString(value) }
func (String) AssertValid(value any) error        { return nil }
func (Boolean) TypeName() string                  { return TypeBoolean }
func (Boolean) Cast(raw any) (any, error)         { return castBoolean(raw) }
func (Boolean) Deserialize(raw any) (any, error)  { return castBoolean(raw) }
func (Boolean) Serialize(value any) (any, error)  { return castBoolean(value) }
func (Boolean) AssertValid(value any) error       { return nil }
func (DateTime) TypeName() string                 { return TypeDateTime }
func (DateTime) Cast(raw any) (any, error)        { return castDateTime(raw) }
func (DateTime) Deserialize(raw any) (any, error) { return castDateTime(raw) }
func (DateTime) Serialize(value any) (any, error) { return castDateTime(value) }
func (DateTime) AssertValid(value any) error      { return nil }
func (DateTime) DeepCopy(value any) (any, error)  { return value, nil }
func (JSON) TypeName() string                     { return TypeJSON }
func (JSON) Cast(raw any) (any, error)            { return castJSON(raw) }
func (JSON) Deserialize(raw any) (any, error)     { return castJSON(raw) }
func (JSON) AssertValid(value any) error          { return nil }
func (UUID) TypeName() string                     { return TypeUUID }
func (UUID) Cast(raw any) (any, error)            { return castUUID(raw) }
func (UUID) Deserialize(raw any) (any, error)     { return castUUID(raw) }
func (UUID) AssertValid(value any) error          { return nil }
func (UUID) DeepCopy(value any) (any, error)      { return value, nil }

func (Decimal) Serialize(value any) (raw any, err error) {
	v, err := castDecimal(value)
	if err != nil || v == nil {
		return
	}
	raw = v.(decimal.Decimal).String()
	return
}

// Equal compares decimals numerically, so 1.0 equals 1.00.
func (Decimal) Equal(a, b any) bool {
	da, aok := a.(decimal.Decimal)
	db, bok := b.(decimal.Decimal)
	if !aok || !bok {
		return a == nil && b == nil
	}
	return da.Equal(db)
}

// Equal compares instants, ignoring locations.
func (DateTime) Equal(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if !aok || !bok {
		return a == nil && b == nil
	}
	return ta.Equal(tb)
}

func (JSON) Serialize(value any) (raw any, err error) {
	if value == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		err = NewError("sys.invalidJSON", "value", value, "error", err)
		return
	}
	raw = string(encoded)
	return
}

func (UUID) Serialize(value any) (raw any, err error) {
	v, err := castUUID(value)
	if err != nil || v == nil {
		return
	}
	raw = v.(uuid.UUID).String()
	return
}

// blank reports whether the raw value is a string of only whitespace, returning the
// trimmed string otherwise.
func blank(raw any) (s string, isString bool, isBlank bool) {
	s, isString = raw.(string)
	if isString {
		s = strings.TrimSpace(s)
		isBlank = s == ""
	}
	return
}

func stringify(raw any) any {
	if stringer, ok := raw.(fmt.Stringer); ok {
		return stringer.String()
	}
	return raw
}

func castInteger(raw any) (v any, err error) {
	raw = stringify(raw)
	s, isString, isBlank := blank(raw)
	switch {
	case raw == nil, isBlank:
		return
	case isString:
		raw = s
	}
	i, intErr := cast.ToInt64E(raw)
	if intErr == nil {
		v = i
		return
	}
	f, floatErr := cast.ToFloat64E(raw)
	if floatErr != nil {
		err = NewError("sys.invalidInteger", "value", raw)
		return
	}
	v = int64(f)
	return
}

func castFloat(raw any) (v any, err error) {
	raw = stringify(raw)
	s, isString, isBlank := blank(raw)
	switch {
	case raw == nil, isBlank:
		return
	case isString:
		raw = s
	}
	f, castErr := cast.ToFloat64E(raw)
	if castErr != nil {
		err = NewError("sys.invalidFloat", "value", raw)
		return
	}
	v = f
	return
}

func castDecimal(raw any) (v any, err error) {
	switch x := raw.(type) {
	case nil:
		return
	case decimal.Decimal:
		v = x
		return
	case float32:
		v = decimal.NewFromFloat32(x)
		return
	case float64:
		v = decimal.NewFromFloat(x)
		return
	}
	raw = stringify(raw)
	s, isString, isBlank := blank(raw)
	switch {
	case isBlank:
		return
	case isString:
		d, parseErr := decimal.NewFromString(s)
		if parseErr != nil {
			err = NewError("sys.invalidDecimal", "value", raw)
			return
		}
		v = d
		return
	}
	i, castErr := cast.ToInt64E(raw)
	if castErr != nil {
		err = NewError("sys.invalidDecimal", "value", raw)
		return
	}
	v = decimal.NewFromInt(i)
	return
}

func castString(raw any) (v any, err error) {
	switch x := raw.(type) {
	case nil:
		return
	case string:
		v = x
		return
	case []byte:
		v = string(x)
		return
	case bool:
		if x {
			v = "t"
		} else {
			v = "f"
		}
		return
	}
	s, castErr := cast.ToStringE(stringify(raw))
	if castErr != nil {
		err = NewError("sys.invalidString", "value", raw)
		return
	}
	v = s
	return
}

// falseValues are the strings that cast to false. Any other non-blank string is true.
var falseValues = map[string]Void{
	"0": {}, "f": {}, "false": {}, "off": {}, "n": {}, "no": {},
}

func castBoolean(raw any) (v any, err error) {
	s, isString, isBlank := blank(raw)
	switch {
	case raw == nil, isBlank:
		return
	case isString:
		_, ok := falseValues[strings.ToLower(s)]
		v = !ok
		return
	}
	b, castErr := cast.ToBoolE(raw)
	if castErr != nil {
		b = true
	}
	v = b
	return
}

func castDateTime(raw any) (v any, err error) {
	s, isString, isBlank := blank(raw)
	switch {
	case raw == nil, isBlank:
		return
	case isString:
		raw = s
	}
	t, castErr := cast.ToTimeE(raw)
	if castErr != nil {
		err = NewError("sys.invalidDateTime", "value", raw)
		return
	}
	v = t.UTC()
	return
}

func castJSON(raw any) (v any, err error) {
	var encoded []byte
	switch x := raw.(type) {
	case nil:
		return
	case string:
		encoded = []byte(x)
	case []byte:
		encoded = x
	case map[string]any, []any:
		v = x
		return
	default:
		m, castErr := cast.ToStringMapE(raw)
		if castErr != nil {
			err = NewError("sys.invalidJSON", "value", raw)
			return
		}
		v = m
		return
	}
	if len(strings.TrimSpace(string(encoded))) == 0 {
		return
	}
	if jsonErr := json.Unmarshal(encoded, &v); jsonErr != nil {
		err = NewError("sys.invalidJSON", "value", raw, "error", jsonErr)
	}
	return
}

func castUUID(raw any) (v any, err error) {
	switch x := raw.(type) {
	case nil:
		return
	case uuid.UUID:
		v = x
		return
	case [16]byte:
		v = uuid.UUID(x)
		return
	}
	s, isString, isBlank := blank(stringify(raw))
	switch {
	case isBlank:
		return
	case !isString:
		err = NewError("sys.invalidUUID", "value", raw)
		return
	}
	id, parseErr := uuid.Parse(s)
	if parseErr != nil {
		err = NewError("sys.invalidUUID", "value", raw)
		return
	}
	v = id
	return
}

// Types are the registered value types, by name.
var Types map[string]ValueType = map[string]ValueType{
	TypeValue:    Value{},
	TypeNull:     Null{},
	TypeInteger:  Integer{},
	TypeFloat:    Float{},
	TypeDecimal:  Decimal{},
	TypeString:   String{},
	TypeBoolean:  Boolean{},
	TypeDateTime: DateTime{},
	TypeJSON:     JSON{},
	TypeUUID:     UUID{},
}

var lock sync.RWMutex

// Register adds a named value type to the registry, replacing any type with that name.
func Register(name string, typ ValueType) {
	lock.Lock()
	defer lock.Unlock()
	Types[name] = typ
}

// Lookup resolves a registered value type by name. Names of the form
// "base|expression" resolve to the base type constrained by the expression.
func Lookup(name string) (typ ValueType, err error) {
	base, check, constrained := strings.Cut(name, "|")
	lock.RLock()
	typ, ok := Types[base]
	lock.RUnlock()
	if !ok {
		err = NewError("sys.unknownType", "name", name)
		return
	}
	if constrained {
		c, constrainErr := Constrain(typ, check)
		if constrainErr != nil {
			typ, err = nil, constrainErr
			return
		}
		typ = c
	}
	return
}

func init() {
	immutable := func(v any) (any, error) { return v, nil }
	copystructure.Copiers[reflect.TypeOf(decimal.Decimal{})] = immutable
	copystructure.Copiers[reflect.TypeOf(uuid.UUID{})] = immutable
}
