// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package ops

import (
	"context"

	"github.com/pkg/errors"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/core"
)

// Tail opens a tailable cursor over a capped collection and wraps it in a
// TailingCursor that reopens it after server-side kills, resuming after the
// last document seen.
func Tail(ctx context.Context, conn core.Connection, ns core.Namespace, query *bson.Document, opts core.TailOptions) (*core.TailingCursor, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	if query == nil {
		query = bson.NewDocument()
	}
	opts = normalizeTailOptions(opts)

	find := func(ctx context.Context, query *bson.Document) (*core.Cursor, error) {
		buf, err := query.MarshalBuffer()
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode tail query")
		}
		defer buf.Release()
		flags := core.TailableCursor | core.AwaitData | core.NoCursorTimeout
		handle, err := conn.Query(ctx, ns, buf, flags)
		if err != nil {
			return nil, err
		}
		return core.NewTailingCursor(handle, opts.WaitDuration), nil
	}
	return core.Tail(ctx, find, query, opts)
}

func normalizeTailOptions(opts core.TailOptions) core.TailOptions {
	if opts.WaitDuration == 0 {
		opts.WaitDuration = core.DefaultTailWaitDuration
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = core.DefaultTailMaxRetries
	}
	return opts
}
