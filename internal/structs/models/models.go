// Package models provides models of structs with attribute bindings.
package models

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// StructModel models a struct that has fields bound to attributes, whose instances
// correspond to records.
type StructModel struct {
	// Type is the struct type, whose kind must be a struct.
	Type reflect.Type
	// AttrFields are the fields bound to attributes, in field order.
	AttrFields []AttrFieldModel
}

// Attr returns the attribute field model with the given name, if any.
func (model StructModel) Attr(name string) (attr AttrFieldModel, ok bool) {
	for _, a := range model.AttrFields {
		if a.Name == name {
			attr = a
			ok = true
			break
		}
	}
	return
}

// AttrFieldModel models a field bound to an attribute.
type AttrFieldModel struct {
	// Name is the name of the attribute.
	Name string
	// Index is the position of the field in the struct.
	Index int
	// FieldType is the field's go type.
	FieldType reflect.Type
	// TypeName is the registered name of the value type, including any check.
	TypeName string
	// Type is the resolved value type.
	Type ValueType
	// Primary indicates the attribute is always initialized.
	Primary bool
	// IgnoreEmpty indicates that zero values are treated as nils.
	IgnoreEmpty bool
}

// IsPointer indicates that the field value is a pointer.
func (attr AttrFieldModel) IsPointer() bool {
	return attr.FieldType.Kind() == reflect.Pointer
}

// Analyzer builds struct models.
type Analyzer interface {
	Analyze(typ reflect.Type) (model StructModel, err error)
}

// CachingAnalyzer is an analyzer that remembers its models. It is safe for concurrent use.
type CachingAnalyzer struct {
	lock   sync.RWMutex
	models map[reflect.Type]StructModel
}

var _ Analyzer = (*CachingAnalyzer)(nil)

func NewCachingAnalyzer() *CachingAnalyzer {
	return &CachingAnalyzer{models: map[reflect.Type]StructModel{}}
}

func (analyzer *CachingAnalyzer) Analyze(typ reflect.Type) (model StructModel, err error) {
	analyzer.lock.RLock()
	model, ok := analyzer.models[typ]
	analyzer.lock.RUnlock()
	if ok {
		return
	}
	model, err = Analyze(typ)
	if err != nil {
		return
	}
	analyzer.lock.Lock()
	analyzer.models[typ] = model
	analyzer.lock.Unlock()
	return
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
)

// Analyze builds a struct model for the given type. Fields without attr tags are ignored.
func Analyze(typ reflect.Type) (model StructModel, err error) {
	if typ.Kind() != reflect.Struct {
		err = NewError("models.notStruct", "type", typ)
		return
	}
	model.Type = typ
	n := typ.NumField()
	attrFields := make([]AttrFieldModel, 0, n)
	for i := 0; i < n; i++ {
		field := typ.Field(i)
		attr, tagged, fieldErr := parseAttrField(field)
		if fieldErr != nil {
			err = fieldErr
			return
		}
		if !tagged {
			continue
		}
		attr.Index = i
		attrFields = append(attrFields, attr)
	}
	model.AttrFields = attrFields
	return
}

// TypeNameForKind returns the name of the builtin value type for values of the given go
// type, or "" if there is none.
func TypeNameForKind(typ reflect.Type) (name string) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	switch typ {
	case timeType:
		return sys.TypeDateTime
	case decimalType:
		return sys.TypeDecimal
	case uuidType:
		return sys.TypeUUID
	}
	switch typ.Kind() {
	case reflect.Bool:
		name = sys.TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		name = sys.TypeInteger
	case reflect.Float32, reflect.Float64:
		name = sys.TypeFloat
	case reflect.String:
		name = sys.TypeString
	case reflect.Map:
		if typ.Key().Kind() == reflect.String {
			name = sys.TypeJSON
		}
	case reflect.Slice:
		name = sys.TypeJSON
	case reflect.Interface:
		name = sys.TypeValue
	}
	return
}

func parseAttrField(field reflect.StructField) (attr AttrFieldModel, tagged bool, err error) {
	tag, tagged := field.Tag.Lookup("attr")
	if !tagged {
		return
	}
	if !field.IsExported() {
		err = NewError("models.unexportedField", "tag", tag, "field", field.Name)
		return
	}
	attr, check, err := parseAttrTag(tag)
	if err != nil {
		return
	}
	attr.FieldType = field.Type
	if attr.TypeName == "" {
		attr.TypeName = TypeNameForKind(field.Type)
		if attr.TypeName == "" {
			err = NewError("models.invalidType", "tag", tag, "type", field.Type, "kind", field.Type.Kind())
			return
		}
	}
	if check != "" {
		attr.TypeName += "|" + check
	}
	attr.Type, err = sys.Lookup(attr.TypeName)
	return
}

// parseAttrTag parses tags of the form "name,type=integer,primary,ignoreempty,check=value > 0".
// The check directive must be last, as the expression may contain commas.
func parseAttrTag(tag string) (attr AttrFieldModel, check string, err error) {
	parts := strings.Split(tag, ",")
	attr.Name = parts[0]
	if attr.Name == "" {
		err = NewError("models.missingName", "tag", tag)
		return
	}
	n := len(parts)
	for i := 1; i < n; i++ {
		part := parts[i]
		switch part {
		case "primary":
			attr.Primary = true
		case "ignoreempty":
			attr.IgnoreEmpty = true
		default:
			switch {
			case strings.HasPrefix(part, "type="):
				attr.TypeName = part[5:]
			case strings.HasPrefix(part, "check="):
				check = strings.Join(parts[i:], ",")[6:]
				return
			default:
				err = NewError("models.invalidDirective", "tag", tag)
				return
			}
		}
	}
	return
}
