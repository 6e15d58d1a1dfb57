// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/appsignal/mongo-go-driver/bson/primitive"
)

// ReadDocument decodes the encoded document in b. String fields that are not
// valid UTF-8 fail the decode with ErrInvalidUTF8.
func ReadDocument(b []byte) (*Document, error) {
	return decodeDocument(b, false)
}

// ReadDocumentLossy decodes the encoded document in b, replacing malformed
// UTF-8 byte sequences in string fields with the Unicode replacement
// character instead of failing.
func ReadDocumentLossy(b []byte) (*Document, error) {
	return decodeDocument(b, true)
}

// Decode decodes the contents of the Buffer. The result does not alias the
// Buffer's memory, so it is safe to use after a borrowed Buffer goes out of
// scope.
func (b *Buffer) Decode() (*Document, error) {
	return decodeDocument(b.Bytes(), false)
}

// DecodeLossy is the lossy-UTF-8 variant of Decode.
func (b *Buffer) DecodeLossy() (*Document, error) {
	return decodeDocument(b.Bytes(), true)
}

func decodeDocument(b []byte, lossy bool) (*Document, error) {
	if len(b) < 5 {
		return nil, DecodingError{Err: NewErrTooSmall()}
	}
	length := readi32(b[0:4])
	if length < 5 || int(length) > len(b) {
		return nil, DecodingError{Err: ErrInvalidLength}
	}
	b = b[:length]
	if b[length-1] != 0x00 {
		return nil, DecodingError{Err: ErrMissingTerminator}
	}

	doc := NewDocument()
	pos := uint32(4)
	end := uint32(length) - 1 // the terminator
	for pos < end {
		tag := Type(b[pos])
		pos++

		key, n, err := readCString(b, pos, end)
		if err != nil {
			return nil, DecodingError{Err: err}
		}
		pos += n
		if !utf8.ValidString(key) {
			if !lossy {
				return nil, DecodingError{Key: key, Err: ErrInvalidUTF8}
			}
			key = strings.ToValidUTF8(key, "�")
		}

		val, n, err := decodeValue(tag, b, pos, lossy)
		if err != nil {
			if _, ok := err.(DecodingError); ok {
				return nil, err
			}
			return nil, DecodingError{Key: key, Err: err}
		}
		pos += n

		doc.Append(key, val)
	}
	if pos != end {
		return nil, DecodingError{Err: ErrInvalidLength}
	}

	return doc, nil
}

func decodeValue(tag Type, b []byte, pos uint32, lossy bool) (Value, uint32, error) {
	switch tag {
	case TypeDouble, TypeDateTime, TypeInt64, TypeTimestamp:
		raw, err := readBytes(b, pos, 8)
		if err != nil {
			return Value{}, 0, err
		}
		v := Value{t: tag}
		copy(v.bootstrap[0:8], raw)
		return v, 8, nil
	case TypeString:
		str, n, err := readString(b, pos, lossy)
		if err != nil {
			return Value{}, 0, err
		}
		return String(str), n, nil
	case TypeEmbeddedDocument:
		sub, n, err := readSubdocument(b, pos, lossy)
		if err != nil {
			return Value{}, 0, err
		}
		return Embed(sub), n, nil
	case TypeArray:
		sub, n, err := readSubdocument(b, pos, lossy)
		if err != nil {
			return Value{}, 0, err
		}
		arr := &Array{doc: NewDocument()}
		for _, elem := range sub.elems {
			arr.Append(elem.Value)
		}
		return Embed(arr), n, nil
	case TypeBinary:
		bin, n, err := readBinary(b, pos)
		if err != nil {
			return Value{}, 0, err
		}
		return BinaryWithSubtype(bin.Subtype, bin.Data), n, nil
	case TypeUndefined, TypeNull, TypeMinKey, TypeMaxKey:
		return Value{t: tag}, 0, nil
	case TypeObjectID:
		raw, err := readBytes(b, pos, 12)
		if err != nil {
			return Value{}, 0, err
		}
		var oid primitive.ObjectID
		copy(oid[:], raw)
		return ObjectID(oid), 12, nil
	case TypeBoolean:
		raw, err := readBytes(b, pos, 1)
		if err != nil {
			return Value{}, 0, err
		}
		switch raw[0] {
		case 0x00:
			return Boolean(false), 1, nil
		case 0x01:
			return Boolean(true), 1, nil
		default:
			return Value{}, 0, ErrInvalidBooleanType
		}
	case TypeRegex:
		end := uint32(len(b))
		pattern, n1, err := readCString(b, pos, end)
		if err != nil {
			return Value{}, 0, err
		}
		options, n2, err := readCString(b, pos+n1, end)
		if err != nil {
			return Value{}, 0, err
		}
		return Regex(pattern, options), n1 + n2, nil
	case TypeInt32:
		raw, err := readBytes(b, pos, 4)
		if err != nil {
			return Value{}, 0, err
		}
		v := Value{t: tag}
		copy(v.bootstrap[0:4], raw)
		return v, 4, nil
	default:
		return Value{}, 0, UnsupportedTypeError{Type: tag}
	}
}

// readCString reads a null-terminated string starting at pos, bounded by
// end. The returned count includes the terminator.
func readCString(b []byte, pos, end uint32) (string, uint32, error) {
	if pos >= end {
		return "", 0, NewErrTooSmall()
	}
	idx := bytes.IndexByte(b[pos:end], 0x00)
	if idx == -1 {
		return "", 0, ErrInvalidKey
	}
	return string(b[pos : pos+uint32(idx)]), uint32(idx) + 1, nil
}

func readBytes(b []byte, pos, n uint32) ([]byte, error) {
	if uint32(len(b)) < pos+n {
		return nil, NewErrTooSmall()
	}
	return b[pos : pos+n], nil
}

func readString(b []byte, pos uint32, lossy bool) (string, uint32, error) {
	raw, err := readBytes(b, pos, 4)
	if err != nil {
		return "", 0, err
	}
	l := readi32(raw)
	if l < 1 {
		return "", 0, ErrInvalidString
	}
	raw, err = readBytes(b, pos+4, uint32(l))
	if err != nil {
		return "", 0, err
	}
	if raw[l-1] != 0x00 {
		return "", 0, ErrInvalidString
	}
	str := string(raw[:l-1])
	if !utf8.ValidString(str) {
		if !lossy {
			return "", 0, ErrInvalidUTF8
		}
		str = strings.ToValidUTF8(str, "�")
	}
	return str, 4 + uint32(l), nil
}

func readSubdocument(b []byte, pos uint32, lossy bool) (*Document, uint32, error) {
	raw, err := readBytes(b, pos, 4)
	if err != nil {
		return nil, 0, err
	}
	l := readi32(raw)
	if l < 5 {
		return nil, 0, ErrInvalidLength
	}
	raw, err = readBytes(b, pos, uint32(l))
	if err != nil {
		return nil, 0, err
	}
	sub, err := decodeDocument(raw, lossy)
	if err != nil {
		return nil, 0, err
	}
	return sub, uint32(l), nil
}

func readBinary(b []byte, pos uint32) (primitive.Binary, uint32, error) {
	raw, err := readBytes(b, pos, 4)
	if err != nil {
		return primitive.Binary{}, 0, err
	}
	l := readi32(raw)
	if l < 0 {
		return primitive.Binary{}, 0, ErrInvalidLength
	}
	if _, err = readBytes(b, pos+4, 1); err != nil {
		return primitive.Binary{}, 0, err
	}
	subtype := b[pos+4]
	payload, err := readBytes(b, pos+5, uint32(l))
	if err != nil {
		return primitive.Binary{}, 0, err
	}
	total := 5 + uint32(l)

	if subtype == TypeBinaryBinaryOld {
		// Old binary carries a second length prefix inside the payload.
		if l < 4 || readi32(payload[0:4]) != l-4 {
			return primitive.Binary{}, 0, ErrInvalidLength
		}
		payload = payload[4:]
	}

	data := make([]byte, len(payload))
	copy(data, payload)
	return primitive.Binary{Subtype: subtype, Data: data}, total, nil
}
