// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"fmt"
	"sort"
)

// KeyNotFound is an error type returned from the Lookup methods on Document.
// This type contains information about which key was not found and if it was
// actually not found or if a component of the key except the last was not a
// document nor array.
type KeyNotFound struct {
	Key   []string // The keys that were searched for.
	Depth uint     // Which key either was not found or was an incorrect type.
	Type  Type     // The type of the key that was found but was an incorrect type.
}

func (knf KeyNotFound) Error() string {
	depth := knf.Depth
	if depth >= uint(len(knf.Key)) {
		depth = uint(len(knf.Key)) - 1
	}

	if len(knf.Key) == 0 {
		return "no keys were provided for lookup"
	}

	if knf.Type != Type(0) {
		return fmt.Sprintf(`key "%s" was found but was not valid to traverse BSON type %s`, knf.Key[depth], knf.Type)
	}

	return fmt.Sprintf(`key "%s" was not found`, knf.Key[depth])
}

// Document is a mutable ordered map that represents a BSON document. Keys are
// unique within one level; insertion order is preserved through encode and
// decode.
type Document struct {
	elems []Element
	index []uint32
}

// NewDocument creates a new Document from the given elements.
func NewDocument(elems ...Element) *Document {
	doc := &Document{
		elems: make([]Element, 0, len(elems)),
		index: make([]uint32, 0, len(elems)),
	}
	doc.AppendElements(elems...)
	return doc
}

// Copy makes a shallow copy of this document.
func (d *Document) Copy() *Document {
	if d == nil {
		return nil
	}

	doc := &Document{
		elems: make([]Element, len(d.elems), cap(d.elems)),
		index: make([]uint32, len(d.index), cap(d.index)),
	}

	copy(doc.elems, d.elems)
	copy(doc.index, d.index)

	return doc
}

// Len returns the number of elements in the document.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}

	return len(d.elems)
}

// Append adds an element to the end of the document, creating it from the key
// and value provided.
func (d *Document) Append(key string, val Value) *Document {
	return d.AppendElements(Element{Key: key, Value: val})
}

// AppendElements adds each element to the end of the document, in order.
func (d *Document) AppendElements(elems ...Element) *Document {
	if d == nil {
		d = &Document{elems: make([]Element, 0, len(elems)), index: make([]uint32, 0, len(elems))}
	}

	for _, elem := range elems {
		d.elems = append(d.elems, elem)
		i := sort.Search(len(d.index), func(i int) bool { return d.elems[d.index[i]].Key >= elem.Key })
		if i < len(d.index) {
			d.index = append(d.index, 0)
			copy(d.index[i+1:], d.index[i:])
			d.index[i] = uint32(len(d.elems) - 1)
		} else {
			d.index = append(d.index, uint32(len(d.elems)-1))
		}
	}
	return d
}

// Set replaces an element of a document. If an element with a matching key is
// found, the element will be replaced with the one provided, keeping its
// position. If the document does not have an element with that key, the
// element is appended to the document instead.
func (d *Document) Set(key string, val Value) *Document {
	if d == nil {
		panic(ErrNilDocument)
	}

	i := sort.Search(len(d.index), func(i int) bool { return d.elems[d.index[i]].Key >= key })
	if i < len(d.index) && d.elems[d.index[i]].Key == key {
		d.elems[d.index[i]].Value = val
		return d
	}

	return d.Append(key, val)
}

// Lookup searches the document, potentially recursively, for the given key.
// If there are multiple keys provided, this method will recurse down, as long
// as the top and intermediate nodes are either documents or arrays. A
// KeyNotFound error is returned if any component of the path is missing or
// not traversable.
func (d *Document) Lookup(key ...string) (Value, error) {
	elem, err := d.LookupElement(key...)
	if err != nil {
		return Value{}, err
	}
	return elem.Value, nil
}

// LookupElement is like Lookup but returns the whole key-value pair.
func (d *Document) LookupElement(key ...string) (Element, error) {
	if d == nil {
		return Element{}, ErrNilDocument
	}
	if len(key) == 0 {
		return Element{}, KeyNotFound{Key: key}
	}

	var elem Element
	var ok bool
	doc := d
	for depth, k := range key {
		elem, ok = doc.lookupOne(k)
		if !ok {
			return Element{}, KeyNotFound{Key: key, Depth: uint(depth)}
		}
		if depth == len(key)-1 {
			break
		}
		switch elem.Value.Type() {
		case TypeEmbeddedDocument:
			doc = elem.Value.Document()
		case TypeArray:
			doc = elem.Value.Array().doc
		default:
			return Element{}, KeyNotFound{Key: key, Depth: uint(depth), Type: elem.Value.Type()}
		}
	}
	return elem, nil
}

func (d *Document) lookupOne(key string) (Element, bool) {
	i := sort.Search(len(d.index), func(i int) bool { return d.elems[d.index[i]].Key >= key })
	if i < len(d.index) && d.elems[d.index[i]].Key == key {
		return d.elems[d.index[i]], true
	}
	return Element{}, false
}

// Delete removes the element with the given key from the document. The
// removed element is returned along with true. If the key does not exist the
// delete is a no-op and false is returned.
func (d *Document) Delete(key string) (Element, bool) {
	if d == nil {
		return Element{}, false
	}

	i := sort.Search(len(d.index), func(i int) bool { return d.elems[d.index[i]].Key >= key })
	if i >= len(d.index) || d.elems[d.index[i]].Key != key {
		return Element{}, false
	}

	pos := d.index[i]
	elem := d.elems[pos]
	d.elems = append(d.elems[:pos], d.elems[pos+1:]...)
	d.index = append(d.index[:i], d.index[i+1:]...)
	// Positions after the removed element shifted down by one.
	for idx := range d.index {
		if d.index[idx] > pos {
			d.index[idx]--
		}
	}
	return elem, true
}

// ElementAt retrieves the element at the given index in a Document. It panics
// if the index is out of bounds.
func (d *Document) ElementAt(index uint) Element {
	if index >= uint(len(d.elems)) {
		panic(ErrOutOfBounds)
	}
	return d.elems[index]
}

// ElementAtOK is the same as ElementAt, but returns a boolean instead of
// panicking.
func (d *Document) ElementAtOK(index uint) (Element, bool) {
	if d == nil || index >= uint(len(d.elems)) {
		return Element{}, false
	}
	return d.elems[index], true
}

// Elements returns a copy of the elements of this document, in insertion
// order.
func (d *Document) Elements() []Element {
	if d == nil {
		return nil
	}
	elems := make([]Element, len(d.elems))
	copy(elems, d.elems)
	return elems
}

// Keys returns the keys of this document, in insertion order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.elems))
	for _, elem := range d.elems {
		keys = append(keys, elem.Key)
	}
	return keys
}

// Reset clears a document so it can be reused.
func (d *Document) Reset() {
	d.elems = d.elems[:0]
	d.index = d.index[:0]
}

// Equal compares this document to another, returning true if they are equal.
// Key order is significant.
func (d *Document) Equal(d2 *Document) bool {
	if d == nil && d2 == nil {
		return true
	}
	if d == nil || d2 == nil {
		return false
	}
	if len(d.elems) != len(d2.elems) {
		return false
	}
	for idx := range d.elems {
		if !d.elems[idx].Equal(d2.elems[idx]) {
			return false
		}
	}
	return true
}

// String implements the fmt.Stringer interface.
func (d *Document) String() string {
	var buf bytes.Buffer
	buf.WriteString("bson.Document{")
	for idx, elem := range d.elems {
		if idx > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%v", elem)
	}
	buf.WriteByte('}')
	return buf.String()
}
