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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/bson/primitive"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/internal/drivertest"
)

func entryDoc(id primitive.ObjectID, n int32) *bson.Document {
	return bson.NewDocument(
		bson.EC("_id", bson.ObjectID(id)),
		bson.EC("n", bson.Int32(n)),
	)
}

// scriptedFind returns a FindFunc that hands out the given cursors in order
// and records every query it receives.
func scriptedFind(t *testing.T, cursors ...*core.Cursor) (core.FindFunc, *[]*bson.Document) {
	t.Helper()
	queries := &[]*bson.Document{}
	find := func(ctx context.Context, query *bson.Document) (*core.Cursor, error) {
		*queries = append(*queries, query.Copy())
		if len(cursors) == 0 {
			return nil, errors.New("no more scripted cursors")
		}
		c := cursors[0]
		cursors = cursors[1:]
		return c, nil
	}
	return find, queries
}

func tailingCursor(docs ...*bson.Document) *core.Cursor {
	return core.NewTailingCursor(drivertest.NewCursorHandle(docs...), time.Millisecond)
}

func TestTailingCursorResume(t *testing.T) {
	ctx := context.Background()
	opts := core.TailOptions{WaitDuration: time.Millisecond, MaxRetries: 3}

	ids := make([]primitive.ObjectID, 4)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}

	t.Run("resumes after the last seen document", func(t *testing.T) {
		first := tailingCursor(entryDoc(ids[0], 1), entryDoc(ids[1], 2))
		second := tailingCursor(entryDoc(ids[2], 3), entryDoc(ids[3], 4))
		find, queries := scriptedFind(t, first, second)

		tc, err := core.Tail(ctx, find, bson.NewDocument(), opts)
		require.NoError(t, err)
		defer tc.Close(ctx)

		var got []int32
		for i := 0; i < 4; i++ {
			require.True(t, tc.Next(ctx))
			val, err := tc.Current().Lookup("n")
			require.NoError(t, err)
			got = append(got, val.Int32())
		}
		require.Equal(t, []int32{1, 2, 3, 4}, got)

		// The reopen query narrows to documents after the last one seen.
		require.Len(t, *queries, 2)
		gt, err := (*queries)[1].Lookup("_id", "$gt")
		require.NoError(t, err)
		require.Equal(t, ids[1], gt.ObjectID())
	})
	t.Run("gives up after max consecutive failures", func(t *testing.T) {
		first := tailingCursor(entryDoc(ids[0], 1))
		find, queries := scriptedFind(t, first)

		tc, err := core.Tail(ctx, find, bson.NewDocument(), opts)
		require.NoError(t, err)
		defer tc.Close(ctx)

		require.True(t, tc.Next(ctx))
		require.False(t, tc.Next(ctx))
		require.Error(t, tc.Err())
		// The initial find plus MaxRetries+1 reopen attempts; the last
		// failure is surfaced instead of retried.
		require.Len(t, *queries, 1+opts.MaxRetries+1)
	})
	t.Run("surfaces the cursor error once retries run out", func(t *testing.T) {
		srvErr := &core.Error{Domain: core.DomainCursor, Code: 43, Message: "cursor not found"}
		var cursors []*core.Cursor
		for i := 0; i < 1+opts.MaxRetries+1; i++ {
			handle := drivertest.NewCursorHandle().AppendError(srvErr)
			cursors = append(cursors, core.NewTailingCursor(handle, time.Millisecond))
		}
		find, queries := scriptedFind(t, cursors...)

		tc, err := core.Tail(ctx, find, bson.NewDocument(), opts)
		require.NoError(t, err)
		defer tc.Close(ctx)

		// Every cursor dies with a server error, so the error that
		// exhausts the retry budget is what Err reports, not a
		// generic closed-cursor error.
		require.False(t, tc.Next(ctx))
		require.Equal(t, srvErr, tc.Err())
		require.Len(t, *queries, 1+opts.MaxRetries+1)
	})
	t.Run("success resets the retry counter", func(t *testing.T) {
		cursors := []*core.Cursor{
			tailingCursor(entryDoc(ids[0], 1)),
			tailingCursor(entryDoc(ids[1], 2)),
			tailingCursor(entryDoc(ids[2], 3)),
			tailingCursor(entryDoc(ids[3], 4)),
		}
		find, _ := scriptedFind(t, cursors...)

		tc, err := core.Tail(ctx, find, bson.NewDocument(), opts)
		require.NoError(t, err)
		defer tc.Close(ctx)

		// Each cursor dies after one document, forcing a reopen every
		// time. With the counter resetting on success this outlives
		// MaxRetries total reopens.
		var got []int32
		for i := 0; i < 4; i++ {
			require.True(t, tc.Next(ctx))
			val, err := tc.Current().Lookup("n")
			require.NoError(t, err)
			got = append(got, val.Int32())
		}
		require.Equal(t, []int32{1, 2, 3, 4}, got)
	})
	t.Run("cancellation stops iteration", func(t *testing.T) {
		first := tailingCursor(entryDoc(ids[0], 1))
		find, _ := scriptedFind(t, first, tailingCursor(), tailingCursor(), tailingCursor())

		cctx, cancel := context.WithCancel(ctx)
		tc, err := core.Tail(cctx, find, bson.NewDocument(), opts)
		require.NoError(t, err)
		defer tc.Close(ctx)

		require.True(t, tc.Next(cctx))
		cancel()
		require.False(t, tc.Next(cctx))
		require.Equal(t, context.Canceled, tc.Err())
	})
	t.Run("invalid params", func(t *testing.T) {
		_, err := core.Tail(ctx, nil, bson.NewDocument(), opts)
		require.Equal(t, core.ErrInvalidParams, err)
		find, _ := scriptedFind(t)
		_, err = core.Tail(ctx, find, nil, opts)
		require.Equal(t, core.ErrInvalidParams, err)
	})
}
