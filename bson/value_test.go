// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/appsignal/mongo-go-driver/bson/primitive"
)

func TestValueAccessors(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Now().Truncate(time.Millisecond).UTC()

	t.Run("Double", func(t *testing.T) {
		v := Double(3.14159)
		require.Equal(t, TypeDouble, v.Type())
		require.Equal(t, 3.14159, v.Double())
	})
	t.Run("StringValue", func(t *testing.T) {
		short := String("hi")
		require.Equal(t, "hi", short.StringValue())
		long := String("a string too long for the inline buffer to hold")
		require.Equal(t, "a string too long for the inline buffer to hold", long.StringValue())
		withNul := String("a\x00b")
		require.Equal(t, "a\x00b", withNul.StringValue())
	})
	t.Run("ObjectID", func(t *testing.T) {
		v := ObjectID(oid)
		require.Equal(t, oid, v.ObjectID())
	})
	t.Run("Boolean", func(t *testing.T) {
		require.True(t, Boolean(true).Boolean())
		require.False(t, Boolean(false).Boolean())
	})
	t.Run("DateTime", func(t *testing.T) {
		v := Time(now)
		require.Equal(t, now.UnixNano()/int64(time.Millisecond), v.DateTime())
		require.True(t, now.Equal(v.Time()))
	})
	t.Run("Regex", func(t *testing.T) {
		v := Regex("^a+$", "i")
		require.Equal(t, primitive.Regex{Pattern: "^a+$", Options: "i"}, v.Regex())
	})
	t.Run("Timestamp", func(t *testing.T) {
		v := Timestamp(42, 7)
		require.Equal(t, primitive.Timestamp{T: 42, I: 7}, v.Timestamp())
	})
	t.Run("Binary", func(t *testing.T) {
		v := BinaryWithSubtype(0x80, []byte{0x01, 0x02})
		require.Equal(t, primitive.Binary{Subtype: 0x80, Data: []byte{0x01, 0x02}}, v.Binary())
	})
	t.Run("Int32 and Int64", func(t *testing.T) {
		require.Equal(t, int32(-7), Int32(-7).Int32())
		require.Equal(t, int64(1<<40), Int64(1<<40).Int64())
	})
	t.Run("wrong type panics", func(t *testing.T) {
		v := Int32(1)
		require.Panics(t, func() { v.StringValue() })
		require.Panics(t, func() { v.Double() })
		require.Panics(t, func() { v.ObjectID() })
	})
	t.Run("wrong type OK variant", func(t *testing.T) {
		v := Int32(1)
		_, ok := v.StringValueOK()
		require.False(t, ok)
		i32, ok := v.Int32OK()
		require.True(t, ok)
		require.Equal(t, int32(1), i32)
	})
	t.Run("IsNumber", func(t *testing.T) {
		require.True(t, Int32(1).IsNumber())
		require.True(t, Int64(1).IsNumber())
		require.True(t, Double(1).IsNumber())
		require.False(t, String("1").IsNumber())
		require.False(t, Boolean(true).IsNumber())
	})
}

func TestValueEqual(t *testing.T) {
	oid := primitive.NewObjectID()
	testCases := []struct {
		name  string
		v1    Value
		v2    Value
		equal bool
	}{
		{"same int32", Int32(5), Int32(5), true},
		{"different int32", Int32(5), Int32(6), false},
		{"int32 vs int64", Int32(5), Int64(5), false},
		{"same string", String("abc"), String("abc"), true},
		{"different string", String("abc"), String("abd"), false},
		{"same oid", ObjectID(oid), ObjectID(oid), true},
		{"null vs null", Null(), Null(), true},
		{"minkey vs maxkey", MinKey(), MaxKey(), false},
		{
			"same document",
			Embed(NewDocument(EC("a", Int32(1)))),
			Embed(NewDocument(EC("a", Int32(1)))),
			true,
		},
		{
			"different document",
			Embed(NewDocument(EC("a", Int32(1)))),
			Embed(NewDocument(EC("a", Int32(2)))),
			false,
		},
		{
			"same array",
			Embed(NewArray(Int32(1), String("x"))),
			Embed(NewArray(Int32(1), String("x"))),
			true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.equal, tc.v1.Equal(tc.v2))
		})
	}
}
