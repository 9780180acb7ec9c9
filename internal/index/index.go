// Package index provides for attribute indexes implemented on btrees.
package index

import (
	"github.com/google/btree"

	"github.com/rails/rails-fast-attributes/internal/attribute"
	"github.com/rails/rails-fast-attributes/internal/iterator"
)

// Entry is an attribute at a position in an index.
type Entry struct {
	Name string
	Pos  uint64
	Attr *attribute.Attribute
}

// Index is a set of attributes unique by name, iterated in the order the names were first
// inserted. Replacing the attribute for a name retains the name's position.
//
// Index instances are safe for concurrent reads, not for concurrent writes, including cloning.
type Index struct {
	names *btree.BTreeG[Entry]
	order *btree.BTreeG[Entry]
	next  uint64
}

// New returns an empty index whose btrees have the given degree.
func New(degree int) (idx *Index) {
	idx = &Index{
		names: btree.NewG(degree, btree.LessFunc[Entry](LessName)),
		order: btree.NewG(degree, btree.LessFunc[Entry](LessPos)),
	}
	return
}

// Find returns the attribute with the given name, if any.
func (idx *Index) Find(name string) (attr *attribute.Attribute, extant bool) {
	entry, extant := idx.names.Get(Entry{Name: name})
	if extant {
		attr = entry.Attr
	}
	return
}

// Insert ensures the given attribute is indexed under its name, returning true if the
// name was already present.
func (idx *Index) Insert(attr *attribute.Attribute) (extant bool) {
	entry := Entry{Name: attr.Name(), Attr: attr}
	prior, extant := idx.names.Get(entry)
	if extant {
		entry.Pos = prior.Pos
	} else {
		entry.Pos = idx.next
		idx.next++
	}
	idx.names.ReplaceOrInsert(entry)
	idx.order.ReplaceOrInsert(entry)
	return
}

// Len returns the number of indexed attributes.
func (idx *Index) Len() int {
	return idx.names.Len()
}

// Each visits the entries in insertion order.
func (idx *Index) Each(accept iterator.Accept[Entry]) {
	idx.order.Ascend(btree.ItemIteratorG[Entry](accept))
}

// Select returns an iterator of the entries in insertion order.
func (idx *Index) Select() (iter *iterator.Iterator[Entry]) {
	return iterator.BuildIterator[Entry](idx)
}

// Clone returns a copy of the index. Both instances are hereafter safe to change without
// affecting the other.
func (idx *Index) Clone() (clone *Index) {
	clone = &Index{names: idx.names.Clone(), order: idx.order.Clone(), next: idx.next}
	return
}
