// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"fmt"
	"strconv"
)

// Array represents an array in BSON. An array is stored as a document with
// ascending numeric-string keys starting at "0".
type Array struct {
	doc *Document
}

// NewArray creates a new array with the given values.
func NewArray(values ...Value) *Array {
	arr := &Array{doc: NewDocument()}
	arr.Append(values...)
	return arr
}

// Len returns the number of values in the array.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return a.doc.Len()
}

// Append adds each value to the end of the array, in order.
func (a *Array) Append(values ...Value) *Array {
	for _, val := range values {
		a.doc.Append(strconv.Itoa(a.doc.Len()), val)
	}
	return a
}

// Lookup returns the value at the given index. It panics if the index is out
// of bounds.
func (a *Array) Lookup(index uint) Value {
	v, ok := a.LookupOK(index)
	if !ok {
		panic(ErrOutOfBounds)
	}
	return v
}

// LookupOK is the same as Lookup, but returns a boolean instead of panicking.
func (a *Array) LookupOK(index uint) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	elem, ok := a.doc.ElementAtOK(index)
	if !ok {
		return Value{}, false
	}
	return elem.Value, true
}

// Set replaces the value at the given index. It panics if the index is out of
// bounds.
func (a *Array) Set(index uint, val Value) *Array {
	if index >= uint(a.doc.Len()) {
		panic(ErrOutOfBounds)
	}
	a.doc.Set(strconv.Itoa(int(index)), val)
	return a
}

// Values returns a copy of the values of this array, in order.
func (a *Array) Values() []Value {
	if a == nil {
		return nil
	}
	values := make([]Value, 0, a.doc.Len())
	for _, elem := range a.doc.elems {
		values = append(values, elem.Value)
	}
	return values
}

// Equal compares this array to another, returning true if they are equal.
func (a *Array) Equal(a2 *Array) bool {
	if a == nil && a2 == nil {
		return true
	}
	if a == nil || a2 == nil {
		return false
	}
	return a.doc.Equal(a2.doc)
}

// String implements the fmt.Stringer interface.
func (a *Array) String() string {
	var buf bytes.Buffer
	buf.WriteString("bson.Array[")
	for idx, elem := range a.doc.elems {
		if idx > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%v", elem.Value)
	}
	buf.WriteByte(']')
	return buf.String()
}
