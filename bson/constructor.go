// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"encoding/binary"
	"math"
	"strings"
	"time"

	"github.com/appsignal/mongo-go-driver/bson/primitive"
)

var _ Embeddable = (*Document)(nil)
var _ Embeddable = (*Array)(nil)

// Embeddable is the interface implemented by types that can be embedded into
// a Value. There are only two implementors of this type: Document and Array.
type Embeddable interface {
	embed()
}

func (d *Document) embed() {}
func (a *Array) embed()    {}

// Double constructs a BSON double Value.
func Double(f64 float64) Value {
	v := Value{t: TypeDouble}
	binary.LittleEndian.PutUint64(v.bootstrap[0:8], math.Float64bits(f64))
	return v
}

// String constructs a BSON string Value.
func String(str string) Value {
	v := Value{t: TypeString}
	switch {
	case len(str) < 15 && strings.IndexByte(str, 0x00) == -1:
		copy(v.bootstrap[:], str)
	default:
		v.primitive = str
	}
	return v
}

// Embed constructs a Value from the given Embeddable. The type will be a BSON
// embedded document for *Document, a BSON array for *Array, and a BSON null
// for either a nil pointer to *Document, *Array, or the value nil.
func Embed(embed Embeddable) Value {
	var v Value
	switch tt := embed.(type) {
	case *Document:
		if tt == nil {
			v.t = TypeNull
			break
		}
		v.t = TypeEmbeddedDocument
		v.primitive = tt
	case *Array:
		if tt == nil {
			v.t = TypeNull
			break
		}
		v.t = TypeArray
		v.primitive = tt
	default:
		v.t = TypeNull
	}
	return v
}

// Binary constructs a BSON binary Value with the generic subtype.
func Binary(data []byte) Value {
	return BinaryWithSubtype(TypeBinaryGeneric, data)
}

// BinaryWithSubtype constructs a BSON binary Value with the given subtype.
func BinaryWithSubtype(subtype byte, data []byte) Value {
	return Value{t: TypeBinary, primitive: primitive.Binary{Subtype: subtype, Data: data}}
}

// Undefined constructs a BSON undefined Value.
func Undefined() Value { return Value{t: TypeUndefined} }

// ObjectID constructs a BSON objectid Value.
func ObjectID(oid primitive.ObjectID) Value {
	v := Value{t: TypeObjectID}
	copy(v.bootstrap[0:12], oid[:])
	return v
}

// Boolean constructs a BSON boolean Value.
func Boolean(b bool) Value {
	v := Value{t: TypeBoolean}
	if b {
		v.bootstrap[0] = 0x01
	}
	return v
}

// DateTime constructs a BSON datetime Value from milliseconds since the Unix
// epoch.
func DateTime(dt int64) Value {
	return Value{t: TypeDateTime}.writei64(dt)
}

// Time constructs a BSON datetime Value from a time.Time, truncating to
// millisecond precision.
func Time(t time.Time) Value {
	return DateTime(t.Unix()*1000 + int64(t.Nanosecond()/1000000))
}

// Null constructs a BSON null Value.
func Null() Value { return Value{t: TypeNull} }

// Regex constructs a BSON regex Value.
func Regex(pattern, options string) Value {
	return Value{t: TypeRegex, primitive: primitive.Regex{Pattern: pattern, Options: options}}
}

// Int32 constructs a BSON int32 Value.
func Int32(i32 int32) Value {
	v := Value{t: TypeInt32}
	binary.LittleEndian.PutUint32(v.bootstrap[0:4], uint32(i32))
	return v
}

// Timestamp constructs a BSON timestamp Value.
func Timestamp(t uint32, i uint32) Value {
	v := Value{t: TypeTimestamp}
	binary.LittleEndian.PutUint32(v.bootstrap[0:4], i)
	binary.LittleEndian.PutUint32(v.bootstrap[4:8], t)
	return v
}

// Int64 constructs a BSON int64 Value.
func Int64(i64 int64) Value {
	return Value{t: TypeInt64}.writei64(i64)
}

// MinKey constructs a BSON minkey Value.
func MinKey() Value { return Value{t: TypeMinKey} }

// MaxKey constructs a BSON maxkey Value.
func MaxKey() Value { return Value{t: TypeMaxKey} }
