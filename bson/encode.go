// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Marshal encodes d into its wire representation. Elements are written in
// insertion order. Either a complete, valid document is returned or an
// error; no partial buffers escape.
func Marshal(d *Document) ([]byte, error) {
	if d == nil {
		return nil, ErrNilDocument
	}
	dst, err := appendDocument(make([]byte, 0, 256), d)
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// MarshalBuffer is like Marshal but wraps the result in an owned Buffer.
func (d *Document) MarshalBuffer() (*Buffer, error) {
	b, err := Marshal(d)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: b}, nil
}

// MarshalBSON implements the Marshaler interface.
func (d *Document) MarshalBSON() ([]byte, error) { return Marshal(d) }

func appendDocument(dst []byte, d *Document) ([]byte, error) {
	var err error
	index := len(dst)
	dst = appendi32(dst, 0)
	for _, elem := range d.elems {
		dst, err = appendElement(dst, elem)
		if err != nil {
			return nil, err
		}
	}
	dst = append(dst, 0x00)
	updateLength(dst, index, int32(len(dst)-index))
	return dst, nil
}

func appendElement(dst []byte, elem Element) ([]byte, error) {
	var err error
	if err = validateKey(elem.Key); err != nil {
		return nil, err
	}

	dst = append(dst, byte(elem.Value.t))
	dst = append(dst, elem.Key...)
	dst = append(dst, 0x00)

	switch elem.Value.t {
	case TypeDouble:
		dst = appendu64(dst, math.Float64bits(elem.Value.Double()))
	case TypeString:
		dst = appendstring(dst, elem.Value.StringValue())
	case TypeEmbeddedDocument:
		dst, err = appendDocument(dst, elem.Value.Document())
	case TypeArray:
		dst, err = appendDocument(dst, elem.Value.Array().doc)
	case TypeBinary:
		bin := elem.Value.Binary()
		if bin.Subtype == TypeBinaryBinaryOld {
			// Old binary carries a second length prefix inside the payload.
			dst = appendi32(dst, int32(len(bin.Data))+4)
			dst = append(dst, bin.Subtype)
			dst = appendi32(dst, int32(len(bin.Data)))
		} else {
			dst = appendi32(dst, int32(len(bin.Data)))
			dst = append(dst, bin.Subtype)
		}
		dst = append(dst, bin.Data...)
	case TypeUndefined, TypeNull, TypeMinKey, TypeMaxKey:
	case TypeObjectID:
		oid := elem.Value.ObjectID()
		dst = append(dst, oid[:]...)
	case TypeBoolean:
		if elem.Value.Boolean() {
			dst = append(dst, 0x01)
		} else {
			dst = append(dst, 0x00)
		}
	case TypeDateTime:
		dst = appendu64(dst, uint64(elem.Value.DateTime()))
	case TypeRegex:
		regex := elem.Value.Regex()
		if err = validateCString(elem.Key, regex.Pattern); err != nil {
			return nil, err
		}
		if err = validateCString(elem.Key, regex.Options); err != nil {
			return nil, err
		}
		dst = append(dst, regex.Pattern...)
		dst = append(dst, 0x00)
		dst = append(dst, regex.Options...)
		dst = append(dst, 0x00)
	case TypeInt32:
		dst = appendi32(dst, elem.Value.Int32())
	case TypeTimestamp:
		ts := elem.Value.Timestamp()
		dst = appendu32(dst, ts.I)
		dst = appendu32(dst, ts.T)
	case TypeInt64:
		dst = appendu64(dst, uint64(elem.Value.Int64()))
	default:
		return nil, EncodingError{Key: elem.Key, Message: "unsupported value of type " + elem.Value.t.String()}
	}
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// validateKey ensures a key can be written as a BSON cstring: valid UTF-8
// with no interior null byte.
func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !utf8.ValidString(key) {
		return EncodingError{Key: key, Message: "key is not valid UTF-8"}
	}
	if strings.IndexByte(key, 0x00) != -1 {
		return EncodingError{Key: key, Message: "key contains a null byte"}
	}
	return nil
}

func validateCString(key, s string) error {
	if strings.IndexByte(s, 0x00) != -1 {
		return EncodingError{Key: key, Message: "regex component contains a null byte"}
	}
	return nil
}

func appendi32(dst []byte, i32 int32) []byte {
	return append(dst, byte(i32), byte(i32>>8), byte(i32>>16), byte(i32>>24))
}

func appendu32(dst []byte, u32 uint32) []byte {
	return append(dst, byte(u32), byte(u32>>8), byte(u32>>16), byte(u32>>24))
}

func appendu64(dst []byte, u64 uint64) []byte {
	return append(dst,
		byte(u64), byte(u64>>8), byte(u64>>16), byte(u64>>24),
		byte(u64>>32), byte(u64>>40), byte(u64>>48), byte(u64>>56))
}

// appendstring writes a length-prefixed, null-terminated string.
func appendstring(dst []byte, s string) []byte {
	dst = appendi32(dst, int32(len(s))+1)
	dst = append(dst, s...)
	return append(dst, 0x00)
}

func updateLength(dst []byte, index int, length int32) {
	dst[index] = byte(length)
	dst[index+1] = byte(length >> 8)
	dst[index+2] = byte(length >> 16)
	dst[index+3] = byte(length >> 24)
}
