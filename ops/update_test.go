// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/bson/primitive"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/internal/drivertest"
)

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	ns := core.NewNamespace("db", "items")

	selector := func() *bson.Document {
		return bson.NewDocument(bson.EC("name", bson.String("a")))
	}
	change := func() *bson.Document {
		return bson.NewDocument(bson.EC("$set", bson.Embed(
			bson.NewDocument(bson.EC("name", bson.String("b"))),
		)))
	}

	t.Run("updates matched documents", func(t *testing.T) {
		conn := &drivertest.Conn{}
		conn.PushReply(bson.NewDocument(
			bson.EC("ok", bson.Double(1)),
			bson.EC("n", bson.Int32(3)),
			bson.EC("nModified", bson.Int32(2)),
		))

		result, err := Update(ctx, conn, ns, selector(), change(), UpdateOptions{Multi: true})
		require.NoError(t, err)
		require.Equal(t, int64(3), result.Matched)
		require.Equal(t, int64(2), result.Modified)
		require.Equal(t, int64(0), result.Upserted)

		require.Len(t, conn.Commands, 1)
		cmd := conn.Commands[0]
		coll, err := cmd.Lookup("update")
		require.NoError(t, err)
		require.Equal(t, "items", coll.StringValue())
		q, err := cmd.Lookup("updates", "0", "q")
		require.NoError(t, err)
		require.True(t, q.Document().Equal(selector()))
		u, err := cmd.Lookup("updates", "0", "u")
		require.NoError(t, err)
		require.True(t, u.Document().Equal(change()))
		multi, err := cmd.Lookup("updates", "0", "multi")
		require.NoError(t, err)
		require.True(t, multi.Boolean())
		upsert, err := cmd.Lookup("updates", "0", "upsert")
		require.NoError(t, err)
		require.False(t, upsert.Boolean())
	})
	t.Run("counts upserts", func(t *testing.T) {
		conn := &drivertest.Conn{}
		conn.PushReply(bson.NewDocument(
			bson.EC("ok", bson.Double(1)),
			bson.EC("n", bson.Int32(1)),
			bson.EC("nModified", bson.Int32(0)),
			bson.EC("upserted", bson.Embed(bson.NewArray(
				bson.Embed(bson.NewDocument(
					bson.EC("index", bson.Int32(0)),
					bson.EC("_id", bson.ObjectID(primitive.NewObjectID())),
				)),
			))),
		))

		result, err := Update(ctx, conn, ns, selector(), change(), UpdateOptions{Upsert: true})
		require.NoError(t, err)
		require.Equal(t, int64(1), result.Upserted)

		upsert, err := conn.Commands[0].Lookup("updates", "0", "upsert")
		require.NoError(t, err)
		require.True(t, upsert.Boolean())
	})
	t.Run("surfaces write errors", func(t *testing.T) {
		conn := &drivertest.Conn{}
		conn.PushReply(bson.NewDocument(
			bson.EC("ok", bson.Double(1)),
			bson.EC("n", bson.Int32(0)),
			bson.EC("writeErrors", bson.Embed(bson.NewArray(
				bson.Embed(bson.NewDocument(
					bson.EC("index", bson.Int32(0)),
					bson.EC("code", bson.Int32(66)),
					bson.EC("errmsg", bson.String("immutable field")),
				)),
			))),
		))

		_, err := Update(ctx, conn, ns, selector(), change(), UpdateOptions{})
		require.Error(t, err)
		werr, ok := err.(*core.Error)
		require.True(t, ok)
		require.Equal(t, uint32(66), werr.Code)
		require.Equal(t, "immutable field", werr.Message)
		require.Equal(t, core.DomainCollection, werr.Domain)
	})
	t.Run("invalid params", func(t *testing.T) {
		_, err := Update(ctx, &drivertest.Conn{}, ns, nil, change(), UpdateOptions{})
		require.Equal(t, core.ErrInvalidParams, err)
		_, err = Update(ctx, &drivertest.Conn{}, ns, selector(), nil, UpdateOptions{})
		require.Equal(t, core.ErrInvalidParams, err)
		_, err = Update(ctx, &drivertest.Conn{}, core.Namespace{}, selector(), change(), UpdateOptions{})
		require.Error(t, err)
	})
}
