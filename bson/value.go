// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/appsignal/mongo-go-driver/bson/primitive"
)

// Value represents a BSON value. Values are immutable once constructed and
// are created with the constructor functions in this package.
type Value struct {
	// NOTE: The bootstrap is a small amount of space that'll be on the stack. At 15 bytes this
	// doesn't make this type any larger, since there are 7 bytes of padding and we want an int64 to
	// store small values (e.g. boolean, double, int64, etc...). The primitive property is where all
	// of the larger values go. They will use either Go primitives or types from this package.
	t         Type
	bootstrap [15]byte
	primitive interface{}
}

func (v Value) string() string {
	if v.primitive != nil {
		return v.primitive.(string)
	}
	// The string will either end with a null byte or it fills the entire bootstrap space.
	idx := bytes.IndexByte(v.bootstrap[:], 0x00)
	if idx == -1 {
		idx = 15
	}
	return string(v.bootstrap[:idx])
}

func (v Value) i64() int64 {
	return int64(v.bootstrap[0]) | int64(v.bootstrap[1])<<8 | int64(v.bootstrap[2])<<16 |
		int64(v.bootstrap[3])<<24 | int64(v.bootstrap[4])<<32 | int64(v.bootstrap[5])<<40 |
		int64(v.bootstrap[6])<<48 | int64(v.bootstrap[7])<<56
}

func (v Value) writei64(i64 int64) Value {
	v.bootstrap[0] = byte(i64)
	v.bootstrap[1] = byte(i64 >> 8)
	v.bootstrap[2] = byte(i64 >> 16)
	v.bootstrap[3] = byte(i64 >> 24)
	v.bootstrap[4] = byte(i64 >> 32)
	v.bootstrap[5] = byte(i64 >> 40)
	v.bootstrap[6] = byte(i64 >> 48)
	v.bootstrap[7] = byte(i64 >> 56)
	return v
}

// IsZero returns true if this value is zero.
func (v Value) IsZero() bool { return v.t == Type(0) }

// Type returns the BSON type of this value.
func (v Value) Type() Type { return v.t }

// Interface returns the Go value of this Value as an empty interface.
//
// This method will return nil if it is empty, otherwise it will return a Go
// primitive or a type from this package.
func (v Value) Interface() interface{} {
	switch v.t {
	case TypeDouble:
		return v.Double()
	case TypeString:
		return v.StringValue()
	case TypeEmbeddedDocument:
		return v.Document()
	case TypeArray:
		return v.Array()
	case TypeBinary:
		return v.Binary()
	case TypeObjectID:
		return v.ObjectID()
	case TypeBoolean:
		return v.Boolean()
	case TypeDateTime:
		return v.DateTime()
	case TypeRegex:
		return v.Regex()
	case TypeInt32:
		return v.Int32()
	case TypeTimestamp:
		return v.Timestamp()
	case TypeInt64:
		return v.Int64()
	case TypeNull, TypeUndefined, TypeMinKey, TypeMaxKey:
		return nil
	default:
		return nil
	}
}

// Double returns the BSON double value the Value represents. It panics if the
// value is a BSON type other than double.
func (v Value) Double() float64 {
	if v.t != TypeDouble {
		panic(ElementTypeError{"bson.Value.Double", v.t})
	}
	return math.Float64frombits(uint64(v.i64()))
}

// DoubleOK is the same as Double, but returns a boolean instead of panicking.
func (v Value) DoubleOK() (float64, bool) {
	if v.t != TypeDouble {
		return 0, false
	}
	return v.Double(), true
}

// StringValue returns the BSON string the Value represents. It panics if the
// value is a BSON type other than string.
//
// NOTE: This method is called StringValue to avoid a collision with the
// String method which implements the fmt.Stringer interface.
func (v Value) StringValue() string {
	if v.t != TypeString {
		panic(ElementTypeError{"bson.Value.StringValue", v.t})
	}
	return v.string()
}

// StringValueOK is the same as StringValue, but returns a boolean instead of
// panicking.
func (v Value) StringValueOK() (string, bool) {
	if v.t != TypeString {
		return "", false
	}
	return v.StringValue(), true
}

// Document returns the BSON embedded document value the Value represents. It
// panics if the value is a BSON type other than embedded document.
func (v Value) Document() *Document {
	if v.t != TypeEmbeddedDocument {
		panic(ElementTypeError{"bson.Value.Document", v.t})
	}
	return v.primitive.(*Document)
}

// DocumentOK is the same as Document, but returns a boolean instead of
// panicking.
func (v Value) DocumentOK() (*Document, bool) {
	if v.t != TypeEmbeddedDocument {
		return nil, false
	}
	return v.Document(), true
}

// Array returns the BSON array value the Value represents. It panics if the
// value is a BSON type other than array.
func (v Value) Array() *Array {
	if v.t != TypeArray {
		panic(ElementTypeError{"bson.Value.Array", v.t})
	}
	return v.primitive.(*Array)
}

// ArrayOK is the same as Array, but returns a boolean instead of panicking.
func (v Value) ArrayOK() (*Array, bool) {
	if v.t != TypeArray {
		return nil, false
	}
	return v.Array(), true
}

// Binary returns the BSON binary value the Value represents. It panics if the
// value is a BSON type other than binary.
func (v Value) Binary() primitive.Binary {
	if v.t != TypeBinary {
		panic(ElementTypeError{"bson.Value.Binary", v.t})
	}
	return v.primitive.(primitive.Binary)
}

// BinaryOK is the same as Binary, but returns a boolean instead of panicking.
func (v Value) BinaryOK() (primitive.Binary, bool) {
	if v.t != TypeBinary {
		return primitive.Binary{}, false
	}
	return v.Binary(), true
}

// ObjectID returns the BSON ObjectID value the Value represents. It panics if
// the value is a BSON type other than ObjectID.
func (v Value) ObjectID() primitive.ObjectID {
	if v.t != TypeObjectID {
		panic(ElementTypeError{"bson.Value.ObjectID", v.t})
	}
	var oid primitive.ObjectID
	copy(oid[:], v.bootstrap[:12])
	return oid
}

// ObjectIDOK is the same as ObjectID, but returns a boolean instead of
// panicking.
func (v Value) ObjectIDOK() (primitive.ObjectID, bool) {
	if v.t != TypeObjectID {
		return primitive.ObjectID{}, false
	}
	return v.ObjectID(), true
}

// Boolean returns the BSON boolean the Value represents. It panics if the
// value is a BSON type other than boolean.
func (v Value) Boolean() bool {
	if v.t != TypeBoolean {
		panic(ElementTypeError{"bson.Value.Boolean", v.t})
	}
	return v.bootstrap[0] == 0x01
}

// BooleanOK is the same as Boolean, but returns a boolean instead of
// panicking.
func (v Value) BooleanOK() (bool, bool) {
	if v.t != TypeBoolean {
		return false, false
	}
	return v.Boolean(), true
}

// DateTime returns the BSON datetime the Value represents as milliseconds
// since the Unix epoch. It panics if the value is a BSON type other than
// datetime.
func (v Value) DateTime() int64 {
	if v.t != TypeDateTime {
		panic(ElementTypeError{"bson.Value.DateTime", v.t})
	}
	return v.i64()
}

// DateTimeOK is the same as DateTime, but returns a boolean instead of
// panicking.
func (v Value) DateTimeOK() (int64, bool) {
	if v.t != TypeDateTime {
		return 0, false
	}
	return v.DateTime(), true
}

// Time returns the BSON datetime the Value represents as a time.Time. It
// panics if the value is a BSON type other than datetime.
func (v Value) Time() time.Time {
	if v.t != TypeDateTime {
		panic(ElementTypeError{"bson.Value.Time", v.t})
	}
	i := v.i64()
	return time.Unix(i/1000, i%1000*1000000)
}

// TimeOK is the same as Time, but returns a boolean instead of panicking.
func (v Value) TimeOK() (time.Time, bool) {
	if v.t != TypeDateTime {
		return time.Time{}, false
	}
	return v.Time(), true
}

// Regex returns the BSON regex the Value represents. It panics if the value
// is a BSON type other than regex.
func (v Value) Regex() primitive.Regex {
	if v.t != TypeRegex {
		panic(ElementTypeError{"bson.Value.Regex", v.t})
	}
	return v.primitive.(primitive.Regex)
}

// RegexOK is the same as Regex, but returns a boolean instead of panicking.
func (v Value) RegexOK() (primitive.Regex, bool) {
	if v.t != TypeRegex {
		return primitive.Regex{}, false
	}
	return v.Regex(), true
}

// Int32 returns the BSON int32 the Value represents. It panics if the value
// is a BSON type other than int32.
func (v Value) Int32() int32 {
	if v.t != TypeInt32 {
		panic(ElementTypeError{"bson.Value.Int32", v.t})
	}
	return int32(v.bootstrap[0]) | int32(v.bootstrap[1])<<8 |
		int32(v.bootstrap[2])<<16 | int32(v.bootstrap[3])<<24
}

// Int32OK is the same as Int32, but returns a boolean instead of panicking.
func (v Value) Int32OK() (int32, bool) {
	if v.t != TypeInt32 {
		return 0, false
	}
	return v.Int32(), true
}

// Timestamp returns the BSON timestamp the Value represents. It panics if the
// value is a BSON type other than timestamp.
func (v Value) Timestamp() primitive.Timestamp {
	if v.t != TypeTimestamp {
		panic(ElementTypeError{"bson.Value.Timestamp", v.t})
	}
	return primitive.Timestamp{
		T: uint32(v.bootstrap[4]) | uint32(v.bootstrap[5])<<8 |
			uint32(v.bootstrap[6])<<16 | uint32(v.bootstrap[7])<<24,
		I: uint32(v.bootstrap[0]) | uint32(v.bootstrap[1])<<8 |
			uint32(v.bootstrap[2])<<16 | uint32(v.bootstrap[3])<<24,
	}
}

// TimestampOK is the same as Timestamp, but returns a boolean instead of
// panicking.
func (v Value) TimestampOK() (primitive.Timestamp, bool) {
	if v.t != TypeTimestamp {
		return primitive.Timestamp{}, false
	}
	return v.Timestamp(), true
}

// Int64 returns the BSON int64 the Value represents. It panics if the value
// is a BSON type other than int64.
func (v Value) Int64() int64 {
	if v.t != TypeInt64 {
		panic(ElementTypeError{"bson.Value.Int64", v.t})
	}
	return v.i64()
}

// Int64OK is the same as Int64, but returns a boolean instead of panicking.
func (v Value) Int64OK() (int64, bool) {
	if v.t != TypeInt64 {
		return 0, false
	}
	return v.Int64(), true
}

// IsNumber returns true if the type of v is a numeric BSON type.
func (v Value) IsNumber() bool {
	switch v.t {
	case TypeDouble, TypeInt32, TypeInt64:
		return true
	default:
		return false
	}
}

// Equal compares v to v2 and returns true if they are equal. Documents and
// arrays compare element-wise in order.
func (v Value) Equal(v2 Value) bool {
	if v.t != v2.t {
		return false
	}

	switch v.t {
	case Type(0):
		return true
	case TypeEmbeddedDocument:
		return v.Document().Equal(v2.Document())
	case TypeArray:
		return v.Array().Equal(v2.Array())
	case TypeBinary:
		return v.Binary().Equal(v2.Binary())
	case TypeNull, TypeUndefined, TypeMinKey, TypeMaxKey:
		return true
	case TypeString:
		return v.StringValue() == v2.StringValue()
	case TypeRegex:
		return v.Regex() == v2.Regex()
	default:
		return v.bootstrap == v2.bootstrap
	}
}

func (v Value) String() string {
	switch v.t {
	case TypeString:
		return fmt.Sprintf(`"%s"`, v.StringValue())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
