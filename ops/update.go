// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package ops

import (
	"context"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/readpref"
)

// UpdateOptions configures an Update.
type UpdateOptions struct {
	// Upsert inserts the update document when the selector matches
	// nothing.
	Upsert bool

	// Multi updates every matched document instead of only the first.
	Multi bool
}

// UpdateResult reports the outcome of an Update.
type UpdateResult struct {
	// Matched is the number of documents the selector matched.
	Matched int64

	// Modified is the number of documents actually changed.
	Modified int64

	// Upserted is the number of documents inserted through an upsert.
	Upserted int64
}

// Update applies the update document to the documents matching the selector.
func Update(ctx context.Context, conn core.Connection, ns core.Namespace, selector, update *bson.Document, opts UpdateOptions) (*UpdateResult, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	if selector == nil || update == nil {
		return nil, core.ErrInvalidParams
	}

	stmt := bson.NewDocument(
		bson.EC("q", bson.Embed(selector)),
		bson.EC("u", bson.Embed(update)),
		bson.EC("upsert", bson.Boolean(opts.Upsert)),
		bson.EC("multi", bson.Boolean(opts.Multi)),
	)
	cmd := bson.NewDocument(
		bson.EC("update", bson.String(ns.Collection)),
		bson.EC("updates", bson.Embed(bson.NewArray(bson.Embed(stmt)))),
	)
	reply, err := Run(ctx, conn, ns.DB, cmd, readpref.Primary())
	if err != nil {
		return nil, err
	}
	if err := writeErrors(reply, core.DomainCollection); err != nil {
		return nil, err
	}

	result := &UpdateResult{
		Matched:  replyCount(reply, "n"),
		Modified: replyCount(reply, "nModified"),
	}
	if val, err := reply.Lookup("upserted"); err == nil {
		if arr, ok := val.ArrayOK(); ok {
			result.Upserted = int64(arr.Len())
		}
	}
	return result, nil
}
