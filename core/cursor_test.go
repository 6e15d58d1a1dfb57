// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/internal/drivertest"
)

func docN(n int32) *bson.Document {
	return bson.NewDocument(bson.EC("n", bson.Int32(n)))
}

func TestCursor(t *testing.T) {
	ctx := context.Background()

	t.Run("yields all documents then exhausts", func(t *testing.T) {
		handle := drivertest.NewCursorHandle(docN(1), docN(2), docN(3))
		cursor := core.NewCursor(handle)
		defer cursor.Close(ctx)

		var got []int32
		for cursor.Next(ctx) {
			val, err := cursor.Current().Lookup("n")
			require.NoError(t, err)
			got = append(got, val.Int32())
		}
		require.NoError(t, cursor.Err())
		require.Equal(t, []int32{1, 2, 3}, got)

		// Exhaustion is terminal.
		require.False(t, cursor.Next(ctx))
		require.False(t, cursor.Next(ctx))
	})
	t.Run("empty stream", func(t *testing.T) {
		cursor := core.NewCursor(drivertest.NewCursorHandle())
		defer cursor.Close(ctx)
		require.False(t, cursor.Next(ctx))
		require.NoError(t, cursor.Err())
	})
	t.Run("driver error is terminal", func(t *testing.T) {
		fail := &core.Error{Domain: core.DomainCursor, Code: 43, Message: "cursor not found"}
		handle := drivertest.NewCursorHandle(docN(1))
		handle.AppendError(fail)
		cursor := core.NewCursor(handle)
		defer cursor.Close(ctx)

		require.True(t, cursor.Next(ctx))
		require.False(t, cursor.Next(ctx))
		require.Equal(t, fail, cursor.Err())
		// The error stays after further calls.
		require.False(t, cursor.Next(ctx))
		require.Equal(t, fail, cursor.Err())
	})
	t.Run("decode error is surfaced but not terminal", func(t *testing.T) {
		// A frame whose only field has an unknown type tag.
		bad := []byte{0x08, 0x00, 0x00, 0x00, 0x42, 'a', 0x00, 0x00}
		handle := drivertest.NewCursorHandle(docN(1))
		handle.AppendRaw(bad)
		handle.AppendDoc(docN(3))
		cursor := core.NewCursor(handle)
		defer cursor.Close(ctx)

		require.True(t, cursor.Next(ctx))
		require.False(t, cursor.Next(ctx))
		require.Error(t, cursor.Err())

		require.True(t, cursor.Next(ctx))
		require.NoError(t, cursor.Err())
		val, err := cursor.Current().Lookup("n")
		require.NoError(t, err)
		require.Equal(t, int32(3), val.Int32())
	})
	t.Run("Close destroys the handle exactly once", func(t *testing.T) {
		handle := drivertest.NewCursorHandle(docN(1))
		cursor := core.NewCursor(handle)
		require.NoError(t, cursor.Close(ctx))
		require.NoError(t, cursor.Close(ctx))
		require.NoError(t, cursor.Close(ctx))
		require.Equal(t, 1, handle.Destroyed)
	})
	t.Run("Next after Close fails", func(t *testing.T) {
		cursor := core.NewCursor(drivertest.NewCursorHandle(docN(1)))
		require.NoError(t, cursor.Close(ctx))
		require.False(t, cursor.Next(ctx))
		require.Equal(t, core.ErrCursorClosed, cursor.Err())
	})
	t.Run("nil handle panics", func(t *testing.T) {
		require.Panics(t, func() { core.NewCursor(nil) })
	})
}

func TestTailingCursorWait(t *testing.T) {
	t.Run("waits through pauses", func(t *testing.T) {
		handle := drivertest.NewCursorHandle(docN(1))
		handle.AppendPause()
		handle.AppendPause()
		handle.AppendDoc(docN(2))
		cursor := core.NewTailingCursor(handle, time.Millisecond)
		defer cursor.Close(context.Background())

		ctx := context.Background()
		require.True(t, cursor.Next(ctx))
		require.True(t, cursor.Next(ctx))
		val, err := cursor.Current().Lookup("n")
		require.NoError(t, err)
		require.Equal(t, int32(2), val.Int32())
	})
	t.Run("stops when the handle dies", func(t *testing.T) {
		handle := drivertest.NewCursorHandle(docN(1))
		cursor := core.NewTailingCursor(handle, time.Millisecond)
		defer cursor.Close(context.Background())

		ctx := context.Background()
		require.True(t, cursor.Next(ctx))
		// The script has ended, so the handle reports not alive.
		require.False(t, cursor.Next(ctx))
		require.NoError(t, cursor.Err())
	})
	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		handle := drivertest.NewCursorHandle(docN(1))
		handle.AppendPause()
		handle.AppendPause()
		cursor := core.NewTailingCursor(handle, time.Hour)
		defer cursor.Close(context.Background())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		require.True(t, cursor.Next(ctx))
		start := time.Now()
		require.False(t, cursor.Next(ctx))
		require.True(t, time.Since(start) < time.Second)
		require.Equal(t, context.DeadlineExceeded, cursor.Err())
	})
}
