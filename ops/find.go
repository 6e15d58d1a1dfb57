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

// FindOptions configures a Find operation. The zero value asks for server
// defaults.
type FindOptions struct {
	// Limit bounds the number of documents returned. Zero means no limit.
	Limit int64

	// BatchSize is the number of documents per server batch. Zero means the
	// server default.
	BatchSize int32

	// Sort orders the results, e.g. {"_id": 1}. Nil means natural order.
	Sort *bson.Document

	// Projection restricts the fields returned. Nil returns all fields.
	Projection *bson.Document
}

// Find runs a find command against the namespace and returns a cursor over
// the matching documents. The cursor pages through server batches with
// getMore as it is iterated.
func Find(ctx context.Context, conn core.Connection, ns core.Namespace, filter *bson.Document, opts FindOptions, pref *readpref.ReadPref) (*core.BatchCursor, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = bson.NewDocument()
	}
	cmd := bson.NewDocument(
		bson.EC("find", bson.String(ns.Collection)),
		bson.EC("filter", bson.Embed(filter)),
	)
	if opts.Limit != 0 {
		cmd.Append("limit", bson.Int64(opts.Limit))
	}
	if opts.BatchSize != 0 {
		cmd.Append("batchSize", bson.Int32(opts.BatchSize))
	}
	if opts.Sort != nil {
		cmd.Append("sort", bson.Embed(opts.Sort))
	}
	if opts.Projection != nil {
		cmd.Append("projection", bson.Embed(opts.Projection))
	}

	reply, err := Run(ctx, conn, ns.DB, cmd, pref)
	if err != nil {
		return nil, err
	}
	return core.NewBatchCursor(&singleResultCursor{doc: reply}, conn, ns)
}

// singleResultCursor adapts an already-decoded command reply to the
// DocumentSource interface, yielding it exactly once.
type singleResultCursor struct {
	doc  *bson.Document
	done bool
}

func (s *singleResultCursor) Next(context.Context) bool {
	if s.done || s.doc == nil {
		return false
	}
	s.done = true
	return true
}

func (s *singleResultCursor) Current() *bson.Document { return s.doc }

func (s *singleResultCursor) Err() error { return nil }

func (s *singleResultCursor) Close(context.Context) error {
	s.doc = nil
	return nil
}
