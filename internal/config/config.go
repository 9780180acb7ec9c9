// Package config loads attribute set schemas from yaml documents.
package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/rails/rails-fast-attributes/internal/structs/schemas"
	"github.com/rails/rails-fast-attributes/internal/sys"
	. "github.com/rails/rails-fast-attributes/internal/types"
)

// Document is the yaml form of a schema.
type Document struct {
	// FallbackType names the type of raw values with no attribute.
	FallbackType string `yaml:"fallback_type"`
	// Attributes are the typed attribute names, in order.
	Attributes []AttributeDocument `yaml:"attributes"`
}

// AttributeDocument is the yaml form of a schema column.
type AttributeDocument struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Primary bool   `yaml:"primary"`
	Check   string `yaml:"check"`
}

// TypeName returns the registered name of the attribute's value type, value if none is given.
func (attr AttributeDocument) TypeName() (name string) {
	name = attr.Type
	if name == "" {
		name = sys.TypeValue
	}
	if attr.Check != "" {
		name += "|" + attr.Check
	}
	return
}

// Validate checks the names are present and unique.
func (doc Document) Validate() (err error) {
	seen := make(map[string]struct{}, len(doc.Attributes))
	for i, attr := range doc.Attributes {
		if attr.Name == "" {
			err = NewError("config.missingName", "index", i)
			return
		}
		if _, dup := seen[attr.Name]; dup {
			err = NewError("config.duplicateName", "name", attr.Name)
			return
		}
		seen[attr.Name] = struct{}{}
	}
	return
}

// Schema resolves the document's types into a schema.
func (doc Document) Schema() (schema schemas.Schema, err error) {
	err = doc.Validate()
	if err != nil {
		return
	}
	if doc.FallbackType != "" {
		schema.FallbackType, err = sys.Lookup(doc.FallbackType)
		if err != nil {
			return
		}
	}
	schema.Columns = make([]Column, 0, len(doc.Attributes))
	for _, attr := range doc.Attributes {
		typ, lookupErr := sys.Lookup(attr.TypeName())
		if lookupErr != nil {
			err = lookupErr
			return
		}
		schema.Columns = append(schema.Columns, Column{Name: attr.Name, Type: typ})
		if attr.Primary {
			schema.Defaults = append(schema.Defaults, schemas.Primary(attr.Name, typ))
		}
	}
	return
}

// Load decodes a schema document, rejecting unknown fields. An empty document is an empty schema.
func Load(r io.Reader, logger *slog.Logger) (schema schemas.Schema, err error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var doc Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if decodeErr := decoder.Decode(&doc); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		err = NewError("config.decode", "error", decodeErr)
		return
	}
	schema, err = doc.Schema()
	if err != nil {
		return
	}
	logger.Debug("loaded schema", "attributes", len(schema.Columns), "defaults", len(schema.Defaults))
	return
}

// Parse decodes a schema document from bytes.
func Parse(data []byte) (schema schemas.Schema, err error) {
	return Load(bytes.NewReader(data), nil)
}

// Marshal encodes a document.
func Marshal(doc Document) (data []byte, err error) {
	err = doc.Validate()
	if err != nil {
		return
	}
	return yaml.Marshal(doc)
}
