package attributeset

import (
	"bytes"
	"encoding/gob"

	"github.com/rails/rails-fast-attributes/internal/attribute"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// MarshalBinary encodes the attributes in order. Frozen state is not encoded.
func (set *AttributeSet) MarshalBinary() (data []byte, err error) {
	encoded := make([][]byte, 0, set.Len())
	set.Each(func(attr *attribute.Attribute) bool {
		var bs []byte
		bs, err = attr.MarshalBinary()
		if err != nil {
			return false
		}
		encoded = append(encoded, bs)
		return true
	})
	if err != nil {
		return
	}
	var buf bytes.Buffer
	err = gob.NewEncoder(&buf).Encode(encoded)
	if err != nil {
		err = NewError("attributeset.encode", "error", err)
		return
	}
	data = buf.Bytes()
	return
}

// UnmarshalBinary replaces the set's attributes with the decoded attributes.
func (set *AttributeSet) UnmarshalBinary(data []byte) (err error) {
	var encoded [][]byte
	err = gob.NewDecoder(bytes.NewReader(data)).Decode(&encoded)
	if err != nil {
		err = NewError("attributeset.decode", "error", err)
		return
	}
	attrs := make([]*attribute.Attribute, len(encoded))
	for i, bs := range encoded {
		attrs[i] = &attribute.Attribute{}
		err = attrs[i].UnmarshalBinary(bs)
		if err != nil {
			return
		}
	}
	var opts []Option
	if set.logger != nil {
		opts = append(opts, WithLogger(set.logger))
	}
	if set.degree > 1 {
		opts = append(opts, WithDegree(set.degree))
	}
	*set = *New(attrs, opts...)
	return
}
