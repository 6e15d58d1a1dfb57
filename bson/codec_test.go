// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/appsignal/mongo-go-driver/bson/primitive"
)

func requireRoundTrip(t *testing.T, d *Document) {
	t.Helper()
	raw, err := Marshal(d)
	require.NoError(t, err)

	// The length prefix covers the whole frame, terminator included.
	require.Equal(t, uint32(len(raw)), binary.LittleEndian.Uint32(raw[0:4]))
	require.Equal(t, byte(0x00), raw[len(raw)-1])

	got, err := ReadDocument(raw)
	require.NoError(t, err)
	if !d.Equal(got) {
		t.Fatalf("document did not survive the round trip\nwant: %s\ngot:  %s", spew.Sdump(d), spew.Sdump(got))
	}
}

func TestRoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Now().Truncate(time.Millisecond)

	t.Run("empty", func(t *testing.T) {
		requireRoundTrip(t, NewDocument())
	})
	t.Run("scalars", func(t *testing.T) {
		requireRoundTrip(t, NewDocument(
			EC("double", Double(-1.5)),
			EC("string", String("hello world")),
			EC("longstring", String("this string does not fit in the inline value buffer")),
			EC("oid", ObjectID(oid)),
			EC("bool", Boolean(true)),
			EC("datetime", Time(now)),
			EC("null", Null()),
			EC("int32", Int32(-42)),
			EC("int64", Int64(1<<40)),
			EC("timestamp", Timestamp(100, 3)),
			EC("minkey", MinKey()),
			EC("maxkey", MaxKey()),
		))
	})
	t.Run("regex", func(t *testing.T) {
		requireRoundTrip(t, NewDocument(EC("re", Regex("^ab*c$", "imx"))))
	})
	t.Run("binary", func(t *testing.T) {
		requireRoundTrip(t, NewDocument(
			EC("generic", Binary([]byte{0xDE, 0xAD, 0xBE, 0xEF})),
			EC("old", BinaryWithSubtype(0x02, []byte{0x01, 0x02, 0x03})),
			EC("user", BinaryWithSubtype(0x80, []byte{})),
		))
	})
	t.Run("nested", func(t *testing.T) {
		requireRoundTrip(t, NewDocument(
			EC("outer", Embed(NewDocument(
				EC("inner", Embed(NewDocument(
					EC("leaf", String("deep")),
				))),
			))),
		))
	})
	t.Run("array order", func(t *testing.T) {
		d := NewDocument(EC("arr", Embed(NewArray(
			Int32(3), Int32(1), Int32(2), String("mixed"), Embed(NewDocument(EC("k", Null()))),
		))))
		raw, err := Marshal(d)
		require.NoError(t, err)
		got, err := ReadDocument(raw)
		require.NoError(t, err)

		arr, err := got.Lookup("arr")
		require.NoError(t, err)
		vals := arr.Array().Values()
		require.Len(t, vals, 5)
		require.Equal(t, int32(3), vals[0].Int32())
		require.Equal(t, int32(1), vals[1].Int32())
		require.Equal(t, int32(2), vals[2].Int32())
		require.Equal(t, "mixed", vals[3].StringValue())
	})
	t.Run("field order", func(t *testing.T) {
		d := NewDocument(EC("z", Int32(1)), EC("a", Int32(2)), EC("m", Int32(3)))
		raw, err := Marshal(d)
		require.NoError(t, err)
		got, err := ReadDocument(raw)
		require.NoError(t, err)
		if diff := cmp.Diff([]string{"z", "a", "m"}, got.Keys()); diff != "" {
			t.Fatalf("field order changed (-want +got):\n%s", diff)
		}
	})
}

func TestMarshalErrors(t *testing.T) {
	t.Run("nil document", func(t *testing.T) {
		_, err := Marshal(nil)
		require.Equal(t, ErrNilDocument, err)
	})
	t.Run("empty key", func(t *testing.T) {
		_, err := Marshal(NewDocument(EC("", Int32(1))))
		require.Error(t, err)
	})
	t.Run("key with NUL byte", func(t *testing.T) {
		_, err := Marshal(NewDocument(EC("a\x00b", Int32(1))))
		require.Error(t, err)
	})
	t.Run("regex pattern with NUL byte", func(t *testing.T) {
		_, err := Marshal(NewDocument(EC("re", Regex("a\x00b", ""))))
		require.Error(t, err)
	})
}

func TestDecodeErrors(t *testing.T) {
	t.Run("too small", func(t *testing.T) {
		_, err := ReadDocument([]byte{0x05, 0x00})
		require.Error(t, err)
		de, ok := err.(DecodingError)
		require.True(t, ok)
		require.True(t, NewErrTooSmall().Equals(de.Err))
	})
	t.Run("length prefix larger than frame", func(t *testing.T) {
		_, err := ReadDocument([]byte{0xFF, 0x00, 0x00, 0x00, 0x00})
		require.Error(t, err)
	})
	t.Run("missing terminator", func(t *testing.T) {
		_, err := ReadDocument([]byte{0x05, 0x00, 0x00, 0x00, 0x01})
		require.Error(t, err)
	})
	t.Run("unknown type tag", func(t *testing.T) {
		raw := []byte{
			0x08, 0x00, 0x00, 0x00,
			0x42, 'a', 0x00,
			0x00,
		}
		_, err := ReadDocument(raw)
		require.Error(t, err)
		de, ok := err.(DecodingError)
		require.True(t, ok)
		_, ok = de.Err.(UnsupportedTypeError)
		require.True(t, ok)
	})
	t.Run("invalid boolean byte", func(t *testing.T) {
		raw := []byte{
			0x09, 0x00, 0x00, 0x00,
			0x08, 'b', 0x00, 0x02,
			0x00,
		}
		_, err := ReadDocument(raw)
		require.Error(t, err)
	})
}

// stringField encodes {"s": <payload>} with the payload bytes taken as given.
func stringField(payload []byte) []byte {
	var raw []byte
	raw = append(raw, 0, 0, 0, 0)
	raw = append(raw, byte(TypeString), 's', 0x00)
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(payload)+1))
	raw = append(raw, length[:]...)
	raw = append(raw, payload...)
	raw = append(raw, 0x00, 0x00)
	binary.LittleEndian.PutUint32(raw[0:4], uint32(len(raw)))
	return raw
}

// invalidKey encodes {"k\x80b": 7} with malformed UTF-8 in the key.
func invalidKey() []byte {
	raw := []byte{
		0, 0, 0, 0,
		byte(TypeInt32), 'k', 0x80, 'b', 0x00,
		0x07, 0x00, 0x00, 0x00,
		0x00,
	}
	binary.LittleEndian.PutUint32(raw[0:4], uint32(len(raw)))
	return raw
}

func TestUTF8Handling(t *testing.T) {
	invalid := stringField([]byte{'a', 0x80, 0xAE, 'b'})

	t.Run("strict decode fails", func(t *testing.T) {
		_, err := ReadDocument(invalid)
		require.Error(t, err)
		de, ok := err.(DecodingError)
		require.True(t, ok)
		require.Equal(t, ErrInvalidUTF8, de.Err)
	})
	t.Run("lossy decode replaces", func(t *testing.T) {
		doc, err := ReadDocumentLossy(invalid)
		require.NoError(t, err)
		val, err := doc.Lookup("s")
		require.NoError(t, err)
		// A run of invalid bytes collapses into one replacement rune.
		require.Equal(t, "a�b", val.StringValue())
	})
	t.Run("strict decode fails on invalid key", func(t *testing.T) {
		_, err := ReadDocument(invalidKey())
		require.Error(t, err)
		de, ok := err.(DecodingError)
		require.True(t, ok)
		require.Equal(t, ErrInvalidUTF8, de.Err)
	})
	t.Run("lossy decode replaces key bytes", func(t *testing.T) {
		doc, err := ReadDocumentLossy(invalidKey())
		require.NoError(t, err)
		val, err := doc.Lookup("k�b")
		require.NoError(t, err)
		require.Equal(t, int32(7), val.Int32())
	})
	t.Run("valid multibyte passes strict", func(t *testing.T) {
		doc := NewDocument(EC("s", String("héllo wörld ☃")))
		raw, err := Marshal(doc)
		require.NoError(t, err)
		got, err := ReadDocument(raw)
		require.NoError(t, err)
		val, err := got.Lookup("s")
		require.NoError(t, err)
		require.Equal(t, "héllo wörld ☃", val.StringValue())
	})
}
