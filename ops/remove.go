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

// RemoveOptions configures a Remove.
type RemoveOptions struct {
	// Single removes only the first matched document instead of all of
	// them.
	Single bool
}

// RemoveResult reports the outcome of a Remove.
type RemoveResult struct {
	// N is the number of documents removed.
	N int64
}

// Remove deletes the documents matching the selector from the namespace.
func Remove(ctx context.Context, conn core.Connection, ns core.Namespace, selector *bson.Document, opts RemoveOptions) (*RemoveResult, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	if selector == nil {
		return nil, core.ErrInvalidParams
	}

	var limit int32
	if opts.Single {
		limit = 1
	}
	stmt := bson.NewDocument(
		bson.EC("q", bson.Embed(selector)),
		bson.EC("limit", bson.Int32(limit)),
	)
	cmd := bson.NewDocument(
		bson.EC("delete", bson.String(ns.Collection)),
		bson.EC("deletes", bson.Embed(bson.NewArray(bson.Embed(stmt)))),
	)
	reply, err := Run(ctx, conn, ns.DB, cmd, readpref.Primary())
	if err != nil {
		return nil, err
	}
	if err := writeErrors(reply, core.DomainCollection); err != nil {
		return nil, err
	}
	return &RemoveResult{N: replyCount(reply, "n")}, nil
}
