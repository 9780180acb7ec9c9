package attribute

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// record is the encoded form of an attribute. Value types are encoded by name; cached
// values are not encoded except for attributes that were given a typed value.
type record struct {
	Kind     Kind
	Name     string
	Type     string
	Raw      any
	Original *record
}

func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register(time.Time{})
	gob.Register(decimal.Decimal{})
	gob.Register(uuid.UUID{})
}

func (a *Attribute) MarshalBinary() (data []byte, err error) {
	rec, err := a.record()
	if err != nil {
		return
	}
	var buf bytes.Buffer
	err = gob.NewEncoder(&buf).Encode(rec)
	if err != nil {
		err = NewError("attribute.encode", "name", a.name, "error", err)
		return
	}
	data = buf.Bytes()
	return
}

func (a *Attribute) UnmarshalBinary(data []byte) (err error) {
	var rec record
	err = gob.NewDecoder(bytes.NewReader(data)).Decode(&rec)
	if err != nil {
		err = NewError("attribute.decode", "error", err)
		return
	}
	attr, err := rec.attribute()
	if err != nil {
		return
	}
	*a = *attr
	return
}

func (a *Attribute) record() (rec *record, err error) {
	rec = &record{Kind: a.kind, Name: a.name, Raw: a.ValueBeforeTypeCast()}
	if a.typ != nil {
		rec.Type = TypeName(a.typ)
		if rec.Type == "" {
			rec, err = nil, NewError("attribute.unnamedType", "name", a.name)
			return
		}
	}
	if a.original != nil {
		rec.Original, err = a.original.record()
		if err != nil {
			rec = nil
		}
	}
	return
}

func (rec *record) attribute() (attr *Attribute, err error) {
	var typ ValueType
	if rec.Type != "" {
		typ, err = sys.Lookup(rec.Type)
		if err != nil {
			return
		}
	}
	switch rec.Kind {
	case KindFromDatabase:
		attr = FromDatabase(rec.Name, rec.Raw, typ)
	case KindFromUser:
		var original *Attribute
		if rec.Original != nil {
			original, err = rec.Original.attribute()
			if err != nil {
				return
			}
		}
		attr = FromUser(rec.Name, rec.Raw, typ, original)
	case KindWithCastValue:
		attr = WithCastValue(rec.Name, rec.Raw, typ)
	case KindUninitialized:
		attr = Uninitialized(rec.Name, typ)
	default:
		err = NewError("attribute.unknownKind", "name", rec.Name, "kind", rec.Kind)
	}
	return
}
